// Package market collects month-end market data for ledger instruments.
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mhayashi/kabuto/internal/common"
	"github.com/mhayashi/kabuto/internal/interfaces"
	"github.com/mhayashi/kabuto/internal/ledger"
	"github.com/mhayashi/kabuto/internal/models"
)

// Service fetches month-end prices and FX rates for every instrument in the
// ledger and upserts them into the market table.
type Service struct {
	storage interfaces.StorageManager
	quotes  interfaces.QuoteClient
	logger  *common.Logger
}

// NewService creates a market collection service.
func NewService(storage interfaces.StorageManager, quotes interfaces.QuoteClient, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		quotes:  quotes,
		logger:  logger,
	}
}

// CollectMonthEnd collects one calendar month for every ledger instrument.
// A failed instrument is skipped with a warning; a foreign instrument whose
// FX rate cannot be fetched is stored with its local price only, which
// downstream valuation treats as a documented fallback.
func (s *Service) CollectMonthEnd(ctx context.Context, year int, month time.Month) (*models.CollectionResult, error) {
	result := &models.CollectionResult{
		RunID:     uuid.New().String(),
		Year:      year,
		Month:     int(month),
		Date:      monthEndDate(year, month),
		StartedAt: time.Now().UTC(),
	}

	transactions, err := s.storage.LedgerStore().ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	holdings, warnings := ledger.Build(transactions)
	result.Warnings = append(result.Warnings, warnings...)

	if len(holdings) == 0 {
		s.logger.Warn().Str("run_id", result.RunID).Msg("No instruments in ledger, nothing to collect")
		result.FinishedAt = time.Now().UTC()
		return result, nil
	}

	s.logger.Info().
		Str("run_id", result.RunID).
		Int("year", year).
		Int("month", int(month)).
		Int("instruments", len(holdings)).
		Msg("Collecting month-end market data")

	updatedAt := time.Now().UTC().Format(time.RFC3339)
	var points []models.MarketDataPoint

	for _, code := range holdings.Codes() {
		holding := holdings[code]

		bar, err := s.quotes.GetMonthlyBar(ctx, code, year, month)
		if err != nil {
			s.logger.Warn().Err(err).Str("code", code).Msg("Failed to fetch monthly bar")
			result.Skipped = append(result.Skipped, code)
			result.Warnings = append(result.Warnings, models.Warning{
				Source:  "collector",
				Code:    code,
				Message: fmt.Sprintf("failed to fetch monthly bar: %v", err),
			})
			continue
		}

		point := models.MarketDataPoint{
			Date:       result.Date,
			Code:       code,
			LocalClose: bar.Close,
			Currency:   holding.Currency,
			High:       bar.High,
			Low:        bar.Low,
			Average:    bar.Average,
			ChangeRate: bar.ChangeRate,
			Volume:     bar.Volume,
			UpdatedAt:  updatedAt,
		}

		if holding.Currency != common.HomeCurrency {
			fxRate, err := s.quotes.GetFXRate(ctx, holding.Currency, result.Date)
			if err != nil {
				s.logger.Warn().Err(err).Str("code", code).Str("currency", holding.Currency).
					Msg("Failed to fetch fx rate, storing local price only")
				result.Warnings = append(result.Warnings, models.Warning{
					Source:  "collector",
					Code:    code,
					Message: fmt.Sprintf("failed to fetch %s fx rate: %v", holding.Currency, err),
				})
			} else {
				point.FXRate = fxRate
			}
		}

		points = append(points, point)
		result.Collected = append(result.Collected, code)
	}

	if len(points) > 0 {
		if err := s.storage.MarketStore().UpsertPoints(ctx, points); err != nil {
			return nil, fmt.Errorf("failed to save market data: %w", err)
		}
	}

	result.FinishedAt = time.Now().UTC()
	s.logger.Info().
		Str("run_id", result.RunID).
		Int("collected", len(result.Collected)).
		Int("skipped", len(result.Skipped)).
		Msg("Month-end collection finished")
	return result, nil
}

// monthEndDate returns the last calendar day of the month as "2006-01-02".
func monthEndDate(year int, month time.Month) string {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, -1).Format("2006-01-02")
}
