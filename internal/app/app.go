// Package app wires configuration, storage, clients and services into a
// single application core shared by the server entrypoint and tests.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mhayashi/kabuto/internal/clients/eodhd"
	"github.com/mhayashi/kabuto/internal/clients/gemini"
	"github.com/mhayashi/kabuto/internal/common"
	"github.com/mhayashi/kabuto/internal/interfaces"
	"github.com/mhayashi/kabuto/internal/services/market"
	"github.com/mhayashi/kabuto/internal/services/portfolio"
	"github.com/mhayashi/kabuto/internal/storage"
)

// App holds all initialized services and clients.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	QuoteClient      interfaces.QuoteClient
	AIClient         interfaces.AIClient
	MarketService    interfaces.MarketService
	PortfolioService interfaces.PortfolioService
	StartupTime      time.Time

	scheduler *scheduler
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes all services, clients and storage.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	binDir := getBinaryDir()

	// Config resolution: explicit path, KABUTO_CONFIG, binary dir, then
	// the development fallback.
	if configPath == "" {
		configPath = os.Getenv("KABUTO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "kabuto.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/kabuto.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	config.ResolveDataPath(binDir)

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewManager(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	quoteClient := eodhd.NewClient(config.Clients.EODHD.APIKey,
		eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
		eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
		eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
		eodhd.WithLogger(logger),
	)

	// Commentary is optional: without an API key reports simply omit it.
	var aiClient interfaces.AIClient
	if config.Clients.Gemini.APIKey != "" {
		client, err := gemini.NewClient(context.Background(), config.Clients.Gemini.APIKey,
			gemini.WithModel(config.Clients.Gemini.Model),
			gemini.WithLogger(logger),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Gemini client unavailable, reports will have no commentary")
		} else {
			aiClient = client
		}
	}

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		QuoteClient:      quoteClient,
		AIClient:         aiClient,
		MarketService:    market.NewService(storageManager, quoteClient, logger),
		PortfolioService: portfolio.NewService(storageManager, aiClient, logger),
		StartupTime:      time.Now(),
	}

	if config.Collector.Enabled {
		sched, err := newScheduler(a)
		if err != nil {
			return nil, fmt.Errorf("failed to start collection scheduler: %w", err)
		}
		a.scheduler = sched
	}

	return a, nil
}

// Close releases all application resources.
func (a *App) Close() error {
	if a.scheduler != nil {
		a.scheduler.stop()
	}
	if a.AIClient != nil {
		if err := a.AIClient.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close AI client")
		}
	}
	return a.Storage.Close()
}
