package portfolio

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mhayashi/kabuto/internal/common"
	"github.com/mhayashi/kabuto/internal/ledger"
	"github.com/mhayashi/kabuto/internal/models"
	"github.com/mhayashi/kabuto/internal/performance"
)

// GetDividends returns the dividend history, oldest first, with the summed
// yen total.
func (s *Service) GetDividends(ctx context.Context) (*models.DividendSummary, error) {
	rows, err := s.storage.DividendStore().ListDividends(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dividends: %w", err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		return rows[i].Code < rows[j].Code
	})

	summary := &models.DividendSummary{Records: rows}
	if summary.Records == nil {
		summary.Records = []models.DividendRecord{}
	}
	for _, r := range rows {
		summary.TotalJPY += r.TotalJPY
	}
	summary.TotalJPY = performance.RoundYen(summary.TotalJPY)
	return summary, nil
}

// AddDividend validates one payment row, stamps it and appends it to the
// dividend table. When the yen total is absent it is derived from the
// local-currency amount and the payment-date rate.
func (s *Service) AddDividend(ctx context.Context, row models.DividendRecord) (*models.DividendRecord, error) {
	row.Code = strings.TrimSpace(row.Code)
	if row.Code == "" {
		return nil, fmt.Errorf("code is required")
	}
	parsed, err := ledger.ParseAcquiredDate(row.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", row.Date)
	}
	row.Date = parsed.Format("2006-01-02")

	row.Currency = strings.ToUpper(strings.TrimSpace(row.Currency))
	if row.Currency == "" {
		row.Currency = common.HomeCurrency
	}

	if row.TotalJPY == 0 {
		local := row.TotalLocal
		if local == 0 {
			local = row.LocalDividend * row.Quantity
		}
		rate := 1.0
		if row.Currency != common.HomeCurrency {
			if row.FXRate <= 0 {
				return nil, fmt.Errorf("fx_rate is required for %s rows without total_jpy", row.Currency)
			}
			rate = row.FXRate
		}
		row.TotalJPY = performance.RoundYen(local * rate)
	}
	if row.TotalJPY == 0 {
		return nil, fmt.Errorf("dividend amount is required")
	}

	row.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := s.storage.DividendStore().AppendDividend(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to append dividend: %w", err)
	}

	s.logger.Info().Str("code", row.Code).Str("date", row.Date).Float64("total_jpy", row.TotalJPY).Msg("Dividend recorded")
	return &row, nil
}
