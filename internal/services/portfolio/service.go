// Package portfolio computes and serves portfolio performance views.
package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/mhayashi/kabuto/internal/common"
	"github.com/mhayashi/kabuto/internal/interfaces"
	"github.com/mhayashi/kabuto/internal/ledger"
	"github.com/mhayashi/kabuto/internal/models"
	"github.com/mhayashi/kabuto/internal/performance"
)

// Service implements interfaces.PortfolioService over the sheet stores.
type Service struct {
	storage interfaces.StorageManager
	ai      interfaces.AIClient // optional, nil disables commentary
	logger  *common.Logger
}

// NewService creates a portfolio service. The AI client may be nil, in which
// case monthly reports carry no generated commentary.
func NewService(storage interfaces.StorageManager, ai interfaces.AIClient, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		ai:      ai,
		logger:  logger,
	}
}

// CalculatePerformance recomputes all performance records from the ledger
// and market tables. It does not write anything back.
func (s *Service) CalculatePerformance(ctx context.Context) ([]models.PerformanceRecord, []models.Warning, error) {
	transactions, err := s.storage.LedgerStore().ListTransactions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	points, err := s.storage.MarketStore().ListPoints(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load market data: %w", err)
	}

	holdings, warnings := ledger.Build(transactions)
	records, calcWarnings := performance.Calculate(holdings, points)
	warnings = append(warnings, calcWarnings...)

	if len(warnings) > 0 {
		s.logger.Warn().Int("count", len(warnings)).Msg("Performance calculation produced warnings")
	}
	s.logger.Debug().Int("records", len(records)).Msg("Performance calculated")
	return records, warnings, nil
}

// Recalculate recomputes and upserts the results into the performance table.
func (s *Service) Recalculate(ctx context.Context) ([]models.PerformanceRecord, []models.Warning, error) {
	records, warnings, err := s.CalculatePerformance(ctx)
	if err != nil {
		return nil, nil, err
	}

	if len(records) > 0 {
		updatedAt := time.Now().UTC().Format(time.RFC3339)
		for i := range records {
			records[i].UpdatedAt = updatedAt
		}
		if err := s.storage.PerformanceStore().UpsertRecords(ctx, records); err != nil {
			return nil, nil, fmt.Errorf("failed to save performance records: %w", err)
		}
	}

	s.logger.Info().Int("records", len(records)).Int("warnings", len(warnings)).Msg("Performance recalculated")
	return records, warnings, nil
}

// GetDashboard assembles the latest-month portfolio view.
func (s *Service) GetDashboard(ctx context.Context) (*models.Dashboard, error) {
	records, _, err := s.CalculatePerformance(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := performance.LatestSnapshot(records)
	dashboard := &models.Dashboard{}
	if len(snapshot) == 0 {
		return dashboard, nil
	}

	dashboard.Date = snapshot[0].Date
	for _, r := range snapshot {
		dashboard.TotalValue += r.MarketValue
		dashboard.TotalCost += r.TotalCost
		dashboard.TotalProfit += r.Profit
	}
	if dashboard.TotalCost > 0 {
		dashboard.TotalProfitRate = performance.Round2(dashboard.TotalProfit / dashboard.TotalCost * 100)
	}

	for _, r := range snapshot {
		weight := 0.0
		if dashboard.TotalValue > 0 {
			weight = performance.Round2(r.MarketValue / dashboard.TotalValue * 100)
		}
		dashboard.Holdings = append(dashboard.Holdings, models.DashboardHolding{
			PerformanceRecord: r,
			Weight:            weight,
		})

		segment := &dashboard.JPStocks
		if r.Currency != common.HomeCurrency {
			segment = &dashboard.ForeignStocks
		}
		segment.Value += r.MarketValue
	}
	if dashboard.TotalValue > 0 {
		dashboard.JPStocks.Ratio = performance.Round2(dashboard.JPStocks.Value / dashboard.TotalValue * 100)
		dashboard.ForeignStocks.Ratio = performance.Round2(dashboard.ForeignStocks.Value / dashboard.TotalValue * 100)
	}

	dashboard.Currencies = performance.CurrencyExposure(records)
	return dashboard, nil
}

// GetHistory returns the monthly portfolio series, optionally windowed to a
// period and augmented with a single instrument's series.
func (s *Service) GetHistory(ctx context.Context, opts interfaces.HistoryOptions) (*interfaces.History, error) {
	records, _, err := s.CalculatePerformance(ctx)
	if err != nil {
		return nil, err
	}

	records = filterPeriod(records, opts.Period)

	history := &interfaces.History{
		Summary: performance.MonthlySeries(records),
	}
	if opts.Stock != "" {
		history.Stock = performance.StockSeries(records, opts.Stock)
	}
	return history, nil
}

// filterPeriod drops records older than the period window. The window is
// anchored at the newest record so a stale dataset still shows its last
// months rather than nothing.
func filterPeriod(records []models.PerformanceRecord, period string) []models.PerformanceRecord {
	var months int
	switch period {
	case "6months":
		months = 6
	case "1year":
		months = 12
	default:
		return records
	}

	latest := ""
	for _, r := range records {
		if r.Date > latest {
			latest = r.Date
		}
	}
	if latest == "" {
		return records
	}
	anchor, err := performance.ParseRecordDate(latest)
	if err != nil {
		return records
	}
	cutoff := anchor.AddDate(0, -months, 0).Format("2006-01-02")

	var filtered []models.PerformanceRecord
	for _, r := range records {
		if r.Date > cutoff {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// GetCurrencyExposure returns the latest snapshot summed per currency.
func (s *Service) GetCurrencyExposure(ctx context.Context) ([]models.CurrencyExposure, error) {
	records, _, err := s.CalculatePerformance(ctx)
	if err != nil {
		return nil, err
	}
	return performance.CurrencyExposure(records), nil
}
