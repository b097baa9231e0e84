package performance

import (
	"sort"

	"github.com/mhayashi/kabuto/internal/common"
	"github.com/mhayashi/kabuto/internal/models"
)

// MonthlySeries groups records by date and sums value, cost and profit into
// a portfolio-level monthly series, ordered by date ascending.
func MonthlySeries(records []models.PerformanceRecord) []models.MonthlySummary {
	byDate := make(map[string]*models.MonthlySummary)
	for _, r := range records {
		s, ok := byDate[r.Date]
		if !ok {
			s = &models.MonthlySummary{Date: r.Date}
			byDate[r.Date] = s
		}
		s.MarketValue += r.MarketValue
		s.TotalCost += r.TotalCost
		s.Profit += r.Profit
		s.HoldingCount++
	}

	series := make([]models.MonthlySummary, 0, len(byDate))
	for _, s := range byDate {
		if s.TotalCost > 0 {
			s.ProfitRate = Round2(s.Profit / s.TotalCost * 100)
		}
		series = append(series, *s)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series
}

// LatestSnapshot returns the records of the single most recent date.
func LatestSnapshot(records []models.PerformanceRecord) []models.PerformanceRecord {
	latest := ""
	for _, r := range records {
		if r.Date > latest {
			latest = r.Date
		}
	}
	if latest == "" {
		return nil
	}

	var snapshot []models.PerformanceRecord
	for _, r := range records {
		if r.Date == latest {
			snapshot = append(snapshot, r)
		}
	}
	return snapshot
}

// CurrencyExposure sums the latest snapshot's records per currency.
// Weights are percentages of the snapshot's total market value.
func CurrencyExposure(records []models.PerformanceRecord) []models.CurrencyExposure {
	snapshot := LatestSnapshot(records)
	if len(snapshot) == 0 {
		return nil
	}

	byCurrency := make(map[string]*models.CurrencyExposure)
	totalValue := 0.0
	for _, r := range snapshot {
		currency := r.Currency
		if currency == "" {
			currency = common.HomeCurrency
		}
		e, ok := byCurrency[currency]
		if !ok {
			e = &models.CurrencyExposure{Currency: currency}
			byCurrency[currency] = e
		}
		e.MarketValue += r.MarketValue
		e.TotalCost += r.TotalCost
		e.Profit += r.Profit
		e.StockProfit += r.StockProfit
		e.FXProfit += r.FXProfit
		totalValue += r.MarketValue
	}

	exposures := make([]models.CurrencyExposure, 0, len(byCurrency))
	for _, e := range byCurrency {
		if totalValue > 0 {
			e.Weight = Round2(e.MarketValue / totalValue * 100)
		}
		exposures = append(exposures, *e)
	}
	// Home currency first, then by descending value.
	sort.Slice(exposures, func(i, j int) bool {
		if (exposures[i].Currency == common.HomeCurrency) != (exposures[j].Currency == common.HomeCurrency) {
			return exposures[i].Currency == common.HomeCurrency
		}
		if exposures[i].MarketValue != exposures[j].MarketValue {
			return exposures[i].MarketValue > exposures[j].MarketValue
		}
		return exposures[i].Currency < exposures[j].Currency
	})
	return exposures
}

// StockSeries filters the records of a single instrument, preserving order.
func StockSeries(records []models.PerformanceRecord, code string) []models.PerformanceRecord {
	var series []models.PerformanceRecord
	for _, r := range records {
		if r.Code == code {
			series = append(series, r)
		}
	}
	return series
}
