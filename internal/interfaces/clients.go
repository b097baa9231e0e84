// Package interfaces defines service contracts for Kabuto
package interfaces

import (
	"context"
	"time"

	"github.com/mhayashi/kabuto/internal/models"
)

// QuoteClient fetches raw market data from a price provider.
type QuoteClient interface {
	// GetDailyBars returns daily OHLCV bars for a symbol between from and to
	// (inclusive, "2006-01-02" strings), oldest first.
	GetDailyBars(ctx context.Context, symbol, from, to string) ([]models.EODBar, error)

	// GetMonthlyBar aggregates one calendar month of bars for a symbol.
	GetMonthlyBar(ctx context.Context, symbol string, year int, month time.Month) (*models.MonthlyBar, error)

	// GetFXRate returns the currency→JPY rate on or nearest before date.
	GetFXRate(ctx context.Context, currency, date string) (float64, error)
}

// AIClient generates natural-language commentary.
type AIClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Close() error
}
