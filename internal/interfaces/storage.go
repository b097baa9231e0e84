// Package interfaces defines service contracts for Kabuto
package interfaces

import (
	"context"

	"github.com/mhayashi/kabuto/internal/models"
)

// StorageManager coordinates the sheet-store tables.
type StorageManager interface {
	LedgerStore() LedgerStore
	MarketStore() MarketStore
	PerformanceStore() PerformanceStore
	DividendStore() DividendStore

	// DataPath returns the base data directory path.
	DataPath() string

	// WriteRaw writes arbitrary binary data to a subdirectory atomically.
	// Key is sanitized for safe filenames (e.g. "growth.png").
	WriteRaw(subdir, key string, data []byte) error

	Close() error
}

// LedgerStore holds the portfolio ledger: raw acquisition transactions.
type LedgerStore interface {
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	SaveTransactions(ctx context.Context, rows []models.Transaction) error
	AppendTransaction(ctx context.Context, row models.Transaction) error
}

// MarketStore holds month-end market data records.
type MarketStore interface {
	ListPoints(ctx context.Context) ([]models.MarketDataPoint, error)

	// UpsertPoints inserts or replaces points keyed by (date, code).
	UpsertPoints(ctx context.Context, points []models.MarketDataPoint) error
}

// PerformanceStore holds computed performance records.
type PerformanceStore interface {
	ListRecords(ctx context.Context) ([]models.PerformanceRecord, error)

	// UpsertRecords inserts or replaces records keyed by (date, code).
	UpsertRecords(ctx context.Context, records []models.PerformanceRecord) error
}

// DividendStore holds dividend and distribution payments.
type DividendStore interface {
	ListDividends(ctx context.Context) ([]models.DividendRecord, error)
	AppendDividend(ctx context.Context, row models.DividendRecord) error
}
