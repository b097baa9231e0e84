// Package performance computes month-end valuations, profit/loss and
// currency attribution for a portfolio ledger against month-end market data.
package performance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mhayashi/kabuto/internal/common"
	"github.com/mhayashi/kabuto/internal/models"
)

// Calculate produces one PerformanceRecord per (month-end date, holding)
// pair for which the holding had at least one lot acquired on or before the
// date and a market data point exists. Records are ordered by date ascending
// then code ascending. The function is pure: identical inputs yield
// byte-for-byte identical output.
func Calculate(l models.Ledger, market []models.MarketDataPoint) ([]models.PerformanceRecord, []models.Warning) {
	var warnings []models.Warning

	if len(l) == 0 || len(market) == 0 {
		return nil, warnings
	}

	index, dates, indexWarnings := indexMarketData(market)
	warnings = append(warnings, indexWarnings...)

	codes := l.Codes()
	records := make([]models.PerformanceRecord, 0, len(dates)*len(codes))

	for _, d := range dates {
		for _, code := range codes {
			holding := l[code]

			lots := holding.LotsAsOf(d.parsed)
			if len(lots) == 0 {
				// Not owned yet at this month end.
				continue
			}

			point, ok := index[d.key+"|"+code]
			if !ok {
				// Price data is a hard prerequisite; no placeholder records.
				continue
			}

			records = append(records, buildRecord(d.key, holding, lots, point))
		}
	}

	return records, warnings
}

// monthEnd pairs a market data date string with its parsed calendar date.
type monthEnd struct {
	key    string // "2006-01-02" as stored
	parsed time.Time
}

// indexMarketData indexes points by (date, code) with last-write-wins on
// duplicates, and returns the distinct month-end dates chronologically.
// Rows with unparseable dates or non-positive closes are skipped with a warning.
func indexMarketData(market []models.MarketDataPoint) (map[string]models.MarketDataPoint, []monthEnd, []models.Warning) {
	index := make(map[string]models.MarketDataPoint, len(market))
	parsedDates := make(map[string]time.Time)
	var warnings []models.Warning

	for i, point := range market {
		row := i + 1
		code := strings.TrimSpace(point.Code)
		if code == "" {
			warnings = append(warnings, models.Warning{
				Source:  "market",
				Row:     row,
				Message: "market data row has no instrument code",
			})
			continue
		}
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(point.Date))
		if err != nil {
			warnings = append(warnings, models.Warning{
				Source:  "market",
				Code:    code,
				Row:     row,
				Message: fmt.Sprintf("invalid month-end date %q", point.Date),
			})
			continue
		}
		if point.LocalClose <= 0 {
			warnings = append(warnings, models.Warning{
				Source:  "market",
				Code:    code,
				Row:     row,
				Message: fmt.Sprintf("non-positive close %v", point.LocalClose),
			})
			continue
		}

		point.Code = code
		point.Date = parsed.Format("2006-01-02")
		key := point.Key()

		// Last write wins: RFC3339 timestamps compare chronologically
		// as strings.
		if existing, ok := index[key]; ok && existing.UpdatedAt >= point.UpdatedAt {
			continue
		}
		index[key] = point
		parsedDates[point.Date] = parsed
	}

	dates := make([]monthEnd, 0, len(parsedDates))
	for key, parsed := range parsedDates {
		dates = append(dates, monthEnd{key: key, parsed: parsed})
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].parsed.Before(dates[j].parsed) })

	return index, dates, warnings
}

// buildRecord aggregates the eligible lots into a weighted position, prices
// it at the month's market data, and splits the profit into stock and FX
// components when the holding is foreign and the FX data is complete.
func buildRecord(date string, holding *models.Holding, lots []models.Lot, point models.MarketDataPoint) models.PerformanceRecord {
	var totalQty, totalCost, localCost, fxWeighted float64
	fxComplete := true
	for _, lot := range lots {
		totalQty += lot.Quantity
		totalCost += lot.Quantity * lot.HomePrice
		localCost += lot.Quantity * lot.LocalPrice
		fxWeighted += lot.Quantity * lot.FXRate
		if lot.FXRate <= 0 {
			fxComplete = false
		}
	}

	avgAcquisition := 0.0
	if totalQty > 0 {
		avgAcquisition = totalCost / totalQty
	}

	monthEndPrice := point.HomeClose()
	marketValue := monthEndPrice * totalQty
	profit := marketValue - totalCost
	profitRate := 0.0
	if totalCost > 0 {
		profitRate = profit / totalCost * 100
	}

	record := models.PerformanceRecord{
		Date:                date,
		Code:                holding.Code,
		Name:                holding.Name,
		AvgAcquisitionPrice: RoundYen(avgAcquisition),
		MonthEndPrice:       RoundYen(monthEndPrice),
		Quantity:            totalQty,
		TotalCost:           RoundYen(totalCost),
		MarketValue:         RoundYen(marketValue),
		Profit:              RoundYen(profit),
		ProfitRate:          Round2(profitRate),
		Currency:            holding.Currency,
		LotCount:            len(lots),
	}

	foreign := holding.Currency != common.HomeCurrency
	if foreign && fxComplete && point.FXRate > 0 {
		// Quantity-weighted average acquisition FX rate across eligible
		// lots. The local-currency P/L valued at that rate is the stock
		// component; the remainder (including the price/rate interaction
		// term) goes to currency movement, so the two components always
		// sum to the total profit.
		avgFX := fxWeighted / totalQty
		localAvgPrice := localCost / totalQty
		localPL := (point.LocalClose - localAvgPrice) * totalQty
		stockProfit := localPL * avgFX

		record.StockProfit = RoundYen(stockProfit)
		record.FXProfit = record.Profit - record.StockProfit
		record.LocalAvgPrice = Round2(localAvgPrice)
		record.LocalClose = Round2(point.LocalClose)
		record.AvgFXRate = Round2(avgFX)
		record.MonthEndFX = Round2(point.FXRate)
	} else {
		// Home-currency holding, or incomplete FX data: attribute the
		// whole profit to the stock. Documented fallback, not an error.
		record.StockProfit = record.Profit
		record.FXProfit = 0
	}

	return record
}

// ParseRecordDate parses a record's month-end date.
func ParseRecordDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}
