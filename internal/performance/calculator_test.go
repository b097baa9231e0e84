package performance

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/mhayashi/kabuto/internal/models"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func holding(code, name, currency string, lots ...models.Lot) *models.Holding {
	return &models.Holding{Code: code, Name: name, Currency: currency, Lots: lots}
}

func TestCalculate_DomesticHolding(t *testing.T) {
	ledger := models.Ledger{
		"7974": holding("7974", "Nintendo", "JPY",
			models.Lot{AcquiredDate: date(2024, 1, 15), Quantity: 10, LocalPrice: 5500, HomePrice: 5500, Currency: "JPY"},
		),
	}
	market := []models.MarketDataPoint{
		{Date: "2024-12-31", Code: "7974", LocalClose: 6000, Currency: "JPY", UpdatedAt: "2024-12-31T18:00:00Z"},
	}

	records, warnings := Calculate(ledger, market)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	r := records[0]
	if r.TotalCost != 55000 {
		t.Errorf("total cost = %v, want 55000", r.TotalCost)
	}
	if r.MarketValue != 60000 {
		t.Errorf("market value = %v, want 60000", r.MarketValue)
	}
	if r.Profit != 5000 {
		t.Errorf("profit = %v, want 5000", r.Profit)
	}
	if r.StockProfit != 5000 {
		t.Errorf("stock profit = %v, want 5000 (all price movement)", r.StockProfit)
	}
	if r.FXProfit != 0 {
		t.Errorf("fx profit = %v, want 0 for domestic holding", r.FXProfit)
	}
	if !approxEqual(r.ProfitRate, 9.09, 0.01) {
		t.Errorf("profit rate = %v, want ~9.09", r.ProfitRate)
	}
}

func TestCalculate_ForeignHoldingDecomposition(t *testing.T) {
	ledger := models.Ledger{
		"NVDA": holding("NVDA", "NVIDIA", "USD",
			models.Lot{AcquiredDate: date(2024, 3, 5), Quantity: 2, LocalPrice: 850, HomePrice: 850 * 149.50, FXRate: 149.50, Currency: "USD"},
		),
	}
	market := []models.MarketDataPoint{
		{Date: "2024-12-31", Code: "NVDA", LocalClose: 900, Currency: "USD", FXRate: 155.00, UpdatedAt: "2024-12-31T18:00:00Z"},
	}

	records, warnings := Calculate(ledger, market)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	r := records[0]
	if r.Profit != 24850 {
		t.Errorf("profit = %v, want 24850", r.Profit)
	}
	if r.StockProfit != 14950 {
		t.Errorf("stock profit = %v, want 14950 = (900-850)*2*149.50", r.StockProfit)
	}
	if r.FXProfit != 9900 {
		t.Errorf("fx profit = %v, want 9900", r.FXProfit)
	}
	if r.StockProfit+r.FXProfit != r.Profit {
		t.Errorf("decomposition identity broken: %v + %v != %v", r.StockProfit, r.FXProfit, r.Profit)
	}
	if !approxEqual(r.AvgFXRate, 149.50, 0.001) {
		t.Errorf("avg fx rate = %v, want 149.50", r.AvgFXRate)
	}
	if !approxEqual(r.MonthEndFX, 155.00, 0.001) {
		t.Errorf("month-end fx = %v, want 155.00", r.MonthEndFX)
	}
}

func TestCalculate_MixedSignComponents(t *testing.T) {
	// Stock up in local terms, yen stronger: price gain offset by fx loss.
	ledger := models.Ledger{
		"NVDA": holding("NVDA", "NVIDIA", "USD",
			models.Lot{AcquiredDate: date(2024, 3, 5), Quantity: 2, LocalPrice: 850, HomePrice: 850 * 155.00, FXRate: 155.00, Currency: "USD"},
		),
	}
	market := []models.MarketDataPoint{
		{Date: "2024-12-31", Code: "NVDA", LocalClose: 900, Currency: "USD", FXRate: 145.00, UpdatedAt: "2024-12-31T18:00:00Z"},
	}

	records, _ := Calculate(ledger, market)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	r := records[0]
	if r.Profit != -2500 {
		t.Errorf("profit = %v, want -2500", r.Profit)
	}
	if r.StockProfit != 15500 {
		t.Errorf("stock profit = %v, want 15500", r.StockProfit)
	}
	if r.FXProfit != -18000 {
		t.Errorf("fx profit = %v, want -18000", r.FXProfit)
	}
	if r.StockProfit+r.FXProfit != r.Profit {
		t.Errorf("decomposition identity broken: %v + %v != %v", r.StockProfit, r.FXProfit, r.Profit)
	}
}

func TestCalculate_MultiLotWeightedAverages(t *testing.T) {
	ledger := models.Ledger{
		"NVDA": holding("NVDA", "NVIDIA", "USD",
			models.Lot{AcquiredDate: date(2024, 3, 5), Quantity: 2, LocalPrice: 850, HomePrice: 850 * 149.50, FXRate: 149.50, Currency: "USD"},
			models.Lot{AcquiredDate: date(2024, 6, 10), Quantity: 3, LocalPrice: 920, HomePrice: 920 * 155.20, FXRate: 155.20, Currency: "USD"},
		),
	}
	market := []models.MarketDataPoint{
		{Date: "2024-12-31", Code: "NVDA", LocalClose: 950, Currency: "USD", FXRate: 152.00, UpdatedAt: "2024-12-31T18:00:00Z"},
	}

	records, _ := Calculate(ledger, market)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	r := records[0]
	if r.Quantity != 5 {
		t.Errorf("quantity = %v, want 5", r.Quantity)
	}
	// avg fx = (2*149.50 + 3*155.20) / 5 = 152.92
	if !approxEqual(r.AvgFXRate, 152.92, 0.005) {
		t.Errorf("avg fx rate = %v, want ~152.92", r.AvgFXRate)
	}
	// local avg = (2*850 + 3*920) / 5 = 892
	if !approxEqual(r.LocalAvgPrice, 892, 0.005) {
		t.Errorf("local avg price = %v, want 892", r.LocalAvgPrice)
	}
	// weighted average consistency: avg * qty reproduces cost within rounding.
	if !approxEqual(r.AvgAcquisitionPrice*r.Quantity, r.TotalCost, r.Quantity) {
		t.Errorf("avg acquisition %v * qty %v drifts from cost %v",
			r.AvgAcquisitionPrice, r.Quantity, r.TotalCost)
	}
	if r.StockProfit+r.FXProfit != r.Profit {
		t.Errorf("decomposition identity broken: %v + %v != %v", r.StockProfit, r.FXProfit, r.Profit)
	}
	if r.LotCount != 2 {
		t.Errorf("lot count = %v, want 2", r.LotCount)
	}
}

func TestCalculate_MissingMarketDataSkipsPair(t *testing.T) {
	ledger := models.Ledger{
		"7974": holding("7974", "Nintendo", "JPY",
			models.Lot{AcquiredDate: date(2024, 1, 15), Quantity: 10, LocalPrice: 5500, HomePrice: 5500, Currency: "JPY"},
		),
		"NVDA": holding("NVDA", "NVIDIA", "USD",
			models.Lot{AcquiredDate: date(2024, 3, 5), Quantity: 2, LocalPrice: 850, HomePrice: 850 * 149.50, FXRate: 149.50, Currency: "USD"},
		),
	}
	market := []models.MarketDataPoint{
		{Date: "2024-12-31", Code: "7974", LocalClose: 6000, Currency: "JPY", UpdatedAt: "2024-12-31T18:00:00Z"},
	}

	records, _ := Calculate(ledger, market)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (NVDA has no month-end price)", len(records))
	}
	if records[0].Code != "7974" {
		t.Errorf("record code = %q, want 7974", records[0].Code)
	}
}

func TestCalculate_TemporalExclusion(t *testing.T) {
	ledger := models.Ledger{
		"NVDA": holding("NVDA", "NVIDIA", "USD",
			models.Lot{AcquiredDate: date(2024, 3, 5), Quantity: 2, LocalPrice: 850, HomePrice: 850 * 149.50, FXRate: 149.50, Currency: "USD"},
			models.Lot{AcquiredDate: date(2024, 6, 10), Quantity: 3, LocalPrice: 920, HomePrice: 920 * 155.20, FXRate: 155.20, Currency: "USD"},
		),
	}
	market := []models.MarketDataPoint{
		{Date: "2024-05-31", Code: "NVDA", LocalClose: 1100, Currency: "USD", FXRate: 157.00, UpdatedAt: "2024-05-31T18:00:00Z"},
		{Date: "2024-12-31", Code: "NVDA", LocalClose: 950, Currency: "USD", FXRate: 152.00, UpdatedAt: "2024-12-31T18:00:00Z"},
	}

	records, _ := Calculate(ledger, market)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Date != "2024-05-31" || records[0].Quantity != 2 {
		t.Errorf("may record = %q qty %v, want 2024-05-31 qty 2 (june lot excluded)",
			records[0].Date, records[0].Quantity)
	}
	if records[1].Date != "2024-12-31" || records[1].Quantity != 5 {
		t.Errorf("december record = %q qty %v, want 2024-12-31 qty 5",
			records[1].Date, records[1].Quantity)
	}
}

func TestCalculate_SameDayAcquisitionIncluded(t *testing.T) {
	ledger := models.Ledger{
		"7974": holding("7974", "Nintendo", "JPY",
			models.Lot{AcquiredDate: date(2024, 3, 5), Quantity: 10, LocalPrice: 5500, HomePrice: 5500, Currency: "JPY"},
			models.Lot{AcquiredDate: date(2024, 11, 29), Quantity: 5, LocalPrice: 5900, HomePrice: 5900, Currency: "JPY"},
		),
	}
	market := []models.MarketDataPoint{
		{Date: "2024-11-29", Code: "7974", LocalClose: 5800, Currency: "JPY", UpdatedAt: "2024-11-29T18:00:00Z"},
	}

	records, _ := Calculate(ledger, market)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	// A lot acquired on the month-end date itself is eligible.
	if records[0].Quantity != 15 || records[0].LotCount != 2 {
		t.Errorf("qty %v lots %d, want 15 and 2 (same-day lot included)",
			records[0].Quantity, records[0].LotCount)
	}
	if !approxEqual(records[0].Profit, 2500, 0.5) {
		t.Errorf("profit = %v, want 2500", records[0].Profit)
	}
}

func TestCalculate_HoldingBeforeFirstLotProducesNoRecord(t *testing.T) {
	ledger := models.Ledger{
		"NVDA": holding("NVDA", "NVIDIA", "USD",
			models.Lot{AcquiredDate: date(2024, 6, 10), Quantity: 3, LocalPrice: 920, HomePrice: 920 * 155.20, FXRate: 155.20, Currency: "USD"},
		),
	}
	market := []models.MarketDataPoint{
		{Date: "2024-05-31", Code: "NVDA", LocalClose: 1100, Currency: "USD", FXRate: 157.00, UpdatedAt: "2024-05-31T18:00:00Z"},
	}

	records, _ := Calculate(ledger, market)
	if len(records) != 0 {
		t.Errorf("got %d records, want 0 before first acquisition", len(records))
	}
}

func TestCalculate_DuplicateMarketRowsLastWriteWins(t *testing.T) {
	ledger := models.Ledger{
		"7974": holding("7974", "Nintendo", "JPY",
			models.Lot{AcquiredDate: date(2024, 1, 15), Quantity: 10, LocalPrice: 5500, HomePrice: 5500, Currency: "JPY"},
		),
	}
	market := []models.MarketDataPoint{
		{Date: "2024-12-31", Code: "7974", LocalClose: 5900, Currency: "JPY", UpdatedAt: "2024-12-31T18:00:00Z"},
		{Date: "2024-12-31", Code: "7974", LocalClose: 6000, Currency: "JPY", UpdatedAt: "2025-01-02T09:00:00Z"},
	}

	records, _ := Calculate(ledger, market)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].MonthEndPrice != 6000 {
		t.Errorf("month-end price = %v, want 6000 from the later row", records[0].MonthEndPrice)
	}
}

func TestCalculate_InvalidMarketRowsWarnAndContinue(t *testing.T) {
	ledger := models.Ledger{
		"7974": holding("7974", "Nintendo", "JPY",
			models.Lot{AcquiredDate: date(2024, 1, 15), Quantity: 10, LocalPrice: 5500, HomePrice: 5500, Currency: "JPY"},
		),
	}
	market := []models.MarketDataPoint{
		{Date: "2024-12-31", Code: "", LocalClose: 100, Currency: "JPY", UpdatedAt: "2024-12-31T18:00:00Z"},
		{Date: "bogus", Code: "7974", LocalClose: 100, Currency: "JPY", UpdatedAt: "2024-12-31T18:00:00Z"},
		{Date: "2024-12-31", Code: "7974", LocalClose: 0, Currency: "JPY", UpdatedAt: "2024-12-31T18:00:00Z"},
		{Date: "2024-11-29", Code: "7974", LocalClose: 5800, Currency: "JPY", UpdatedAt: "2024-11-29T18:00:00Z"},
	}

	records, warnings := Calculate(ledger, market)
	if len(warnings) != 3 {
		t.Fatalf("got %d warnings, want 3: %v", len(warnings), warnings)
	}
	if len(records) != 1 || records[0].Date != "2024-11-29" {
		t.Fatalf("valid november row should still produce its record, got %v", records)
	}
}

func TestCalculate_MissingFXFallsBackToLocalClose(t *testing.T) {
	ledger := models.Ledger{
		"NVDA": holding("NVDA", "NVIDIA", "USD",
			models.Lot{AcquiredDate: date(2024, 3, 5), Quantity: 2, LocalPrice: 850, HomePrice: 850 * 149.50, FXRate: 149.50, Currency: "USD"},
		),
	}
	market := []models.MarketDataPoint{
		{Date: "2024-12-31", Code: "NVDA", LocalClose: 900, Currency: "USD", UpdatedAt: "2024-12-31T18:00:00Z"},
	}

	records, _ := Calculate(ledger, market)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	r := records[0]
	if r.MonthEndPrice != 900 {
		t.Errorf("month-end price = %v, want 900 (no fx conversion available)", r.MonthEndPrice)
	}
	if r.StockProfit != r.Profit || r.FXProfit != 0 {
		t.Errorf("without fx the split must collapse: stock %v fx %v profit %v",
			r.StockProfit, r.FXProfit, r.Profit)
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	ledger := models.Ledger{
		"7974": holding("7974", "Nintendo", "JPY",
			models.Lot{AcquiredDate: date(2024, 1, 15), Quantity: 10, LocalPrice: 5500, HomePrice: 5500, Currency: "JPY"},
		),
		"NVDA": holding("NVDA", "NVIDIA", "USD",
			models.Lot{AcquiredDate: date(2024, 3, 5), Quantity: 2, LocalPrice: 850, HomePrice: 850 * 149.50, FXRate: 149.50, Currency: "USD"},
		),
	}
	market := []models.MarketDataPoint{
		{Date: "2024-11-29", Code: "7974", LocalClose: 5800, Currency: "JPY", UpdatedAt: "2024-11-29T18:00:00Z"},
		{Date: "2024-12-31", Code: "NVDA", LocalClose: 900, Currency: "USD", FXRate: 155.00, UpdatedAt: "2024-12-31T18:00:00Z"},
		{Date: "2024-12-31", Code: "7974", LocalClose: 6000, Currency: "JPY", UpdatedAt: "2024-12-31T18:00:00Z"},
	}

	first, _ := Calculate(ledger, market)
	second, _ := Calculate(ledger, market)
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated calculation produced different output")
	}

	// Records come back ordered by date, then code.
	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		if prev.Date > cur.Date || (prev.Date == cur.Date && prev.Code > cur.Code) {
			t.Errorf("records out of order: %s/%s before %s/%s", prev.Date, prev.Code, cur.Date, cur.Code)
		}
	}
}

func TestCalculate_EmptyInputs(t *testing.T) {
	records, warnings := Calculate(models.Ledger{}, nil)
	if len(records) != 0 || len(warnings) != 0 {
		t.Errorf("empty inputs should yield nothing, got %d records %d warnings", len(records), len(warnings))
	}
}
