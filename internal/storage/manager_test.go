package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhayashi/kabuto/internal/common"
	"github.com/mhayashi/kabuto/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	logger := common.NewSilentLogger()
	m, err := NewManager(logger, t.TempDir())
	require.NoError(t, err)
	return m
}

func TestManager_CreatesLayout(t *testing.T) {
	m := newTestManager(t)

	for _, sub := range []string{"charts", "reports"} {
		info, err := os.Stat(filepath.Join(m.DataPath(), sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestLedgerStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	store := m.LedgerStore()

	// Empty table reads as empty, not an error.
	rows, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, store.SaveTransactions(ctx, []models.Transaction{
		{Code: "7974", Name: "Nintendo", AcquiredDate: "2024-01-15", Quantity: 10, LocalPrice: 5500, Currency: "JPY"},
	}))
	require.NoError(t, store.AppendTransaction(ctx, models.Transaction{
		Code: "NVDA", Name: "NVIDIA", AcquiredDate: "2024-03-05", Quantity: 2, LocalPrice: 850, Currency: "USD", FXRate: 149.50,
	}))

	rows, err = store.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "7974", rows[0].Code)
	assert.Equal(t, "NVDA", rows[1].Code)
	assert.Equal(t, 149.50, rows[1].FXRate)
}

func TestMarketStore_UpsertByDateAndCode(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	store := m.MarketStore()

	require.NoError(t, store.UpsertPoints(ctx, []models.MarketDataPoint{
		{Date: "2024-12-31", Code: "7974", LocalClose: 5900, Currency: "JPY", UpdatedAt: "2024-12-31T18:00:00Z"},
		{Date: "2024-11-29", Code: "7974", LocalClose: 5800, Currency: "JPY", UpdatedAt: "2024-11-29T18:00:00Z"},
	}))

	// Re-collecting the same month replaces the row, not duplicates it.
	require.NoError(t, store.UpsertPoints(ctx, []models.MarketDataPoint{
		{Date: "2024-12-31", Code: "7974", LocalClose: 6000, Currency: "JPY", UpdatedAt: "2025-01-02T09:00:00Z"},
	}))

	points, err := store.ListPoints(ctx)
	require.NoError(t, err)
	require.Len(t, points, 2)

	// Table is kept sorted by date then code.
	assert.Equal(t, "2024-11-29", points[0].Date)
	assert.Equal(t, "2024-12-31", points[1].Date)
	assert.Equal(t, 6000.0, points[1].LocalClose)
}

func TestMarketStore_UpsertKeepsNewerRow(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	store := m.MarketStore()

	require.NoError(t, store.UpsertPoints(ctx, []models.MarketDataPoint{
		{Date: "2024-12-31", Code: "7974", LocalClose: 6000, Currency: "JPY", UpdatedAt: "2025-01-02T09:00:00Z"},
	}))
	// A stale incoming row must not clobber the fresher stored one.
	require.NoError(t, store.UpsertPoints(ctx, []models.MarketDataPoint{
		{Date: "2024-12-31", Code: "7974", LocalClose: 5900, Currency: "JPY", UpdatedAt: "2024-12-31T18:00:00Z"},
	}))

	points, err := store.ListPoints(ctx)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 6000.0, points[0].LocalClose)
}

func TestPerformanceStore_UpsertRecords(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	store := m.PerformanceStore()

	require.NoError(t, store.UpsertRecords(ctx, []models.PerformanceRecord{
		{Date: "2024-12-31", Code: "7974", Profit: 4000},
		{Date: "2024-12-31", Code: "NVDA", Profit: 20000},
	}))
	require.NoError(t, store.UpsertRecords(ctx, []models.PerformanceRecord{
		{Date: "2024-12-31", Code: "7974", Profit: 5000},
	}))

	records, err := store.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 5000.0, records[0].Profit, "recalculation should replace the old row")
	assert.Equal(t, "NVDA", records[1].Code)
}

func TestDividendStore_AppendAndList(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	store := m.DividendStore()

	rows, err := store.ListDividends(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, store.AppendDividend(ctx, models.DividendRecord{
		Date: "2024-06-28", Code: "NVDA", Name: "NVIDIA",
		LocalDividend: 0.01, Quantity: 2, TotalLocal: 0.02,
		Currency: "USD", FXRate: 160.50, TotalJPY: 3,
	}))
	// Same instrument and date again: rows append, nothing is replaced.
	require.NoError(t, store.AppendDividend(ctx, models.DividendRecord{
		Date: "2024-06-28", Code: "NVDA", Currency: "USD", TotalJPY: 3,
	}))

	rows, err = store.ListDividends(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "NVDA", rows[0].Code)
	assert.Equal(t, 160.50, rows[0].FXRate)
}

func TestWriteRaw(t *testing.T) {
	m := newTestManager(t)

	data := []byte{0x89, 'P', 'N', 'G'}
	require.NoError(t, m.WriteRaw("charts", "growth.png", data))

	got, err := os.ReadFile(filepath.Join(m.DataPath(), "charts", "growth.png"))
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// Keys are sanitized so callers cannot escape the subdirectory.
	require.NoError(t, m.WriteRaw("charts", "../escape.png", []byte("x")))
	_, err = os.Stat(filepath.Join(m.DataPath(), "escape.png"))
	assert.True(t, os.IsNotExist(err))
}
