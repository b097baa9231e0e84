package storage

import (
	"context"
	"sort"

	"github.com/mhayashi/kabuto/internal/common"
	"github.com/mhayashi/kabuto/internal/interfaces"
	"github.com/mhayashi/kabuto/internal/models"
)

// Manager implements interfaces.StorageManager over a SheetStore.
type Manager struct {
	store       *SheetStore
	ledger      *ledgerStore
	market      *marketStore
	performance *performanceStore
	dividend    *dividendStore
}

// NewManager opens the data directory and wires the table stores.
func NewManager(logger *common.Logger, basePath string) (*Manager, error) {
	store, err := NewSheetStore(logger, basePath)
	if err != nil {
		return nil, err
	}
	return &Manager{
		store:       store,
		ledger:      &ledgerStore{ss: store},
		market:      &marketStore{ss: store},
		performance: &performanceStore{ss: store},
		dividend:    &dividendStore{ss: store},
	}, nil
}

func (m *Manager) LedgerStore() interfaces.LedgerStore           { return m.ledger }
func (m *Manager) MarketStore() interfaces.MarketStore           { return m.market }
func (m *Manager) PerformanceStore() interfaces.PerformanceStore { return m.performance }
func (m *Manager) DividendStore() interfaces.DividendStore       { return m.dividend }

// DataPath returns the base data directory path.
func (m *Manager) DataPath() string { return m.store.basePath }

// WriteRaw writes arbitrary binary data to a subdirectory atomically.
func (m *Manager) WriteRaw(subdir, key string, data []byte) error {
	return m.store.WriteRaw(subdir, key, data)
}

// Close releases backend resources. The file backend has none, but callers
// treat storage as a closable resource.
func (m *Manager) Close() error { return nil }

// --- Ledger table ---

type ledgerStore struct {
	ss *SheetStore
}

func (s *ledgerStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	s.ss.mu.Lock()
	defer s.ss.mu.Unlock()

	var rows []models.Transaction
	if err := s.ss.readTable(ledgerFile, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ledgerStore) SaveTransactions(ctx context.Context, rows []models.Transaction) error {
	s.ss.mu.Lock()
	defer s.ss.mu.Unlock()

	if rows == nil {
		rows = []models.Transaction{}
	}
	return s.ss.writeTable(ledgerFile, rows)
}

func (s *ledgerStore) AppendTransaction(ctx context.Context, row models.Transaction) error {
	s.ss.mu.Lock()
	defer s.ss.mu.Unlock()

	var rows []models.Transaction
	if err := s.ss.readTable(ledgerFile, &rows); err != nil {
		return err
	}
	rows = append(rows, row)
	return s.ss.writeTable(ledgerFile, rows)
}

// --- Market table ---

type marketStore struct {
	ss *SheetStore
}

func (s *marketStore) ListPoints(ctx context.Context) ([]models.MarketDataPoint, error) {
	s.ss.mu.Lock()
	defer s.ss.mu.Unlock()

	var points []models.MarketDataPoint
	if err := s.ss.readTable(marketFile, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// UpsertPoints inserts or replaces points keyed by (date, code). An incoming
// row replaces an existing one only when its UpdatedAt is not older.
func (s *marketStore) UpsertPoints(ctx context.Context, points []models.MarketDataPoint) error {
	s.ss.mu.Lock()
	defer s.ss.mu.Unlock()

	var existing []models.MarketDataPoint
	if err := s.ss.readTable(marketFile, &existing); err != nil {
		return err
	}

	index := make(map[string]models.MarketDataPoint, len(existing)+len(points))
	for _, p := range existing {
		index[p.Key()] = p
	}
	for _, p := range points {
		if cur, ok := index[p.Key()]; ok && cur.UpdatedAt > p.UpdatedAt {
			continue
		}
		index[p.Key()] = p
	}

	merged := make([]models.MarketDataPoint, 0, len(index))
	for _, p := range index {
		merged = append(merged, p)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Date != merged[j].Date {
			return merged[i].Date < merged[j].Date
		}
		return merged[i].Code < merged[j].Code
	})
	return s.ss.writeTable(marketFile, merged)
}

// --- Performance table ---

type performanceStore struct {
	ss *SheetStore
}

func (s *performanceStore) ListRecords(ctx context.Context) ([]models.PerformanceRecord, error) {
	s.ss.mu.Lock()
	defer s.ss.mu.Unlock()

	var records []models.PerformanceRecord
	if err := s.ss.readTable(performanceFile, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// UpsertRecords inserts or replaces records keyed by (date, code).
func (s *performanceStore) UpsertRecords(ctx context.Context, records []models.PerformanceRecord) error {
	s.ss.mu.Lock()
	defer s.ss.mu.Unlock()

	var existing []models.PerformanceRecord
	if err := s.ss.readTable(performanceFile, &existing); err != nil {
		return err
	}

	index := make(map[string]models.PerformanceRecord, len(existing)+len(records))
	for _, r := range existing {
		index[r.Key()] = r
	}
	for _, r := range records {
		index[r.Key()] = r
	}

	merged := make([]models.PerformanceRecord, 0, len(index))
	for _, r := range index {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Date != merged[j].Date {
			return merged[i].Date < merged[j].Date
		}
		return merged[i].Code < merged[j].Code
	})
	return s.ss.writeTable(performanceFile, merged)
}

// --- Dividend table ---

type dividendStore struct {
	ss *SheetStore
}

func (s *dividendStore) ListDividends(ctx context.Context) ([]models.DividendRecord, error) {
	s.ss.mu.Lock()
	defer s.ss.mu.Unlock()

	var rows []models.DividendRecord
	if err := s.ss.readTable(dividendFile, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AppendDividend adds one payment row. Rows are append-only: the same
// instrument can pay multiple times on one date, so there is no upsert key.
func (s *dividendStore) AppendDividend(ctx context.Context, row models.DividendRecord) error {
	s.ss.mu.Lock()
	defer s.ss.mu.Unlock()

	var rows []models.DividendRecord
	if err := s.ss.readTable(dividendFile, &rows); err != nil {
		return err
	}
	rows = append(rows, row)
	return s.ss.writeTable(dividendFile, rows)
}
