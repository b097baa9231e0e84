// Package interfaces defines service contracts for Kabuto
package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/mhayashi/kabuto/internal/models"
)

// ErrNoPerformanceData marks the absence of computed records for a
// requested period, as opposed to a storage or calculation failure.
var ErrNoPerformanceData = errors.New("no performance data")

// HistoryOptions filters the performance history query.
type HistoryOptions struct {
	Period string // "6months", "1year", "all" (default)
	Stock  string // optional instrument code filter
}

// History is the monthly portfolio series plus, when a stock filter was
// given, that instrument's own record series.
type History struct {
	Summary []models.MonthlySummary    `json:"summary"`
	Stock   []models.PerformanceRecord `json:"stock,omitempty"`
}

// PortfolioService computes valuations and serves portfolio views.
type PortfolioService interface {
	// CalculatePerformance recomputes all performance records from the
	// ledger and market tables. Pure with respect to storage contents.
	CalculatePerformance(ctx context.Context) ([]models.PerformanceRecord, []models.Warning, error)

	// Recalculate recomputes and upserts the results into the performance table.
	Recalculate(ctx context.Context) ([]models.PerformanceRecord, []models.Warning, error)

	GetDashboard(ctx context.Context) (*models.Dashboard, error)
	GetHistory(ctx context.Context, opts HistoryOptions) (*History, error)
	GetCurrencyExposure(ctx context.Context) ([]models.CurrencyExposure, error)
	GetMonthlyReport(ctx context.Context, year, month int) (*models.MonthlyReport, error)

	// GetPortfolio lists the held instruments with their current value and
	// annualized growth rate.
	GetPortfolio(ctx context.Context) (*models.PortfolioView, error)

	// AddTransaction validates and appends one acquisition to the ledger.
	AddTransaction(ctx context.Context, row models.Transaction) (*models.Transaction, error)

	// GetDividends returns the dividend history with its yen total.
	GetDividends(ctx context.Context) (*models.DividendSummary, error)

	// AddDividend validates and appends one dividend payment.
	AddDividend(ctx context.Context, row models.DividendRecord) (*models.DividendRecord, error)

	// RenderGrowthChart renders the monthly value/cost series as PNG bytes.
	RenderGrowthChart(ctx context.Context) ([]byte, error)
}

// MarketService collects month-end market data for ledger instruments.
type MarketService interface {
	// CollectMonthEnd fetches month-end prices and FX rates for every
	// instrument in the ledger and upserts them into the market table.
	CollectMonthEnd(ctx context.Context, year int, month time.Month) (*models.CollectionResult, error)
}
