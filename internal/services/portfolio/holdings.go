package portfolio

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mhayashi/kabuto/internal/common"
	"github.com/mhayashi/kabuto/internal/ledger"
	"github.com/mhayashi/kabuto/internal/models"
	"github.com/mhayashi/kabuto/internal/performance"
)

// GetPortfolio lists the held instruments with their aggregated acquisition
// position, the latest snapshot's valuation and the annualized growth rate.
// Instruments without market data appear with a zero current value.
func (s *Service) GetPortfolio(ctx context.Context) (*models.PortfolioView, error) {
	transactions, err := s.storage.LedgerStore().ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	points, err := s.storage.MarketStore().ListPoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load market data: %w", err)
	}

	holdings, warnings := ledger.Build(transactions)
	records, calcWarnings := performance.Calculate(holdings, points)
	warnings = append(warnings, calcWarnings...)

	snapshot := performance.LatestSnapshot(records)
	values := make(map[string]float64, len(snapshot))
	var asOf time.Time
	if len(snapshot) > 0 {
		for _, r := range snapshot {
			values[r.Code] = r.MarketValue
		}
		asOf, err = performance.ParseRecordDate(snapshot[0].Date)
		if err != nil {
			return nil, fmt.Errorf("invalid snapshot date %q: %w", snapshot[0].Date, err)
		}
	}

	view := &models.PortfolioView{Items: []models.PortfolioItem{}, Warnings: warnings}
	for _, code := range holdings.Codes() {
		h := holdings[code]

		var qty, totalCost, localCost, fxWeighted float64
		fxComplete := true
		for _, lot := range h.Lots {
			qty += lot.Quantity
			totalCost += lot.Quantity * lot.HomePrice
			localCost += lot.Quantity * lot.LocalPrice
			fxWeighted += lot.Quantity * lot.FXRate
			if lot.FXRate <= 0 {
				fxComplete = false
			}
		}
		if qty <= 0 {
			continue
		}

		item := models.PortfolioItem{
			Code:         code,
			Name:         h.Name,
			AcquiredDate: h.Lots[0].AcquiredDate.Format("2006-01-02"),
			Quantity:     qty,
			AvgPrice:     performance.RoundYen(totalCost / qty),
			TotalCost:    performance.RoundYen(totalCost),
			Currency:     h.Currency,
			IsForeign:    h.Currency != common.HomeCurrency,
			CurrentValue: values[code],
		}
		if item.IsForeign && fxComplete {
			item.LocalAvgPrice = performance.Round2(localCost / qty)
			item.AvgFXRate = performance.Round2(fxWeighted / qty)
		}
		if len(snapshot) > 0 {
			item.CAGR = calcCAGR(item.TotalCost, item.CurrentValue, h.Lots[0].AcquiredDate, asOf)
		}
		view.Items = append(view.Items, item)
	}

	s.logger.Debug().Int("holdings", len(view.Items)).Msg("Portfolio listed")
	return view, nil
}

// calcCAGR annualizes the growth from cost to value over the holding period,
// as a percentage. Positions held under a year, or with a non-positive cost
// or value, have no meaningful annualized rate and return nil.
func calcCAGR(cost, value float64, acquired, asOf time.Time) *float64 {
	if cost <= 0 || value <= 0 {
		return nil
	}
	days := asOf.Sub(acquired).Hours() / 24
	if days < 365 {
		return nil
	}
	years := days / 365.25
	cagr := performance.Round2((math.Pow(value/cost, 1/years) - 1) * 100)
	return &cagr
}

// AddTransaction validates one acquisition row, stamps it and appends it to
// the ledger. Unlike the bulk ledger build, a bad row here is rejected with
// an error rather than recorded as a warning.
func (s *Service) AddTransaction(ctx context.Context, row models.Transaction) (*models.Transaction, error) {
	row.Code = strings.TrimSpace(row.Code)
	if row.Code == "" {
		return nil, fmt.Errorf("code is required")
	}
	parsed, err := ledger.ParseAcquiredDate(row.AcquiredDate)
	if err != nil {
		return nil, fmt.Errorf("invalid acquired_date %q", row.AcquiredDate)
	}
	row.AcquiredDate = parsed.Format("2006-01-02")
	if row.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	if row.LocalPrice <= 0 {
		return nil, fmt.Errorf("local_price must be positive")
	}

	row.Currency = strings.ToUpper(strings.TrimSpace(row.Currency))
	if row.Currency == "" {
		row.Currency = common.HomeCurrency
	}
	if row.Currency == common.HomeCurrency {
		row.FXRate = 0
	} else if row.FXRate <= 0 {
		return nil, fmt.Errorf("fx_rate is required for %s rows", row.Currency)
	}

	row.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := s.storage.LedgerStore().AppendTransaction(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to append transaction: %w", err)
	}

	s.logger.Info().Str("code", row.Code).Str("date", row.AcquiredDate).Msg("Transaction recorded")
	return &row, nil
}
