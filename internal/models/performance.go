// Package models defines data structures for Kabuto
package models

// PerformanceRecord is one computed month-end valuation of one holding.
// All home-currency amounts are rounded to whole yen; rates, percentages
// and local-currency prices to 2 decimal places, so every consumer renders
// identical figures without re-deriving rounding rules.
type PerformanceRecord struct {
	Date                string  `json:"date"` // month-end, "2006-01-02"
	Code                string  `json:"code"`
	Name                string  `json:"name"`
	AvgAcquisitionPrice float64 `json:"avg_acquisition_price"` // JPY, quantity-weighted
	MonthEndPrice       float64 `json:"month_end_price"`       // JPY
	Quantity            float64 `json:"quantity"`
	TotalCost           float64 `json:"total_cost"`   // JPY
	MarketValue         float64 `json:"market_value"` // JPY
	Profit              float64 `json:"profit"`       // JPY
	ProfitRate          float64 `json:"profit_rate"`  // %
	Currency            string  `json:"currency"`

	// Currency attribution. StockProfit + FXProfit == Profit always:
	// when the decomposition preconditions are unmet the full profit is
	// attributed to the stock and FXProfit is zero.
	StockProfit float64 `json:"stock_profit"` // JPY, price-driven component
	FXProfit    float64 `json:"fx_profit"`    // JPY, rate-driven component

	// Foreign-currency detail, populated only when the decomposition ran.
	LocalAvgPrice float64 `json:"local_avg_price,omitempty"` // avg acquisition, in Currency
	LocalClose    float64 `json:"local_close,omitempty"`
	AvgFXRate     float64 `json:"avg_fx_rate,omitempty"` // quantity-weighted acquisition rate
	MonthEndFX    float64 `json:"month_end_fx,omitempty"`

	LotCount  int    `json:"acquisition_count"` // eligible lots behind this record
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Key returns the upsert key for the performance table.
func (r PerformanceRecord) Key() string {
	return r.Date + "|" + r.Code
}

// MonthlySummary is the portfolio-level reduction of one month's records.
type MonthlySummary struct {
	Date         string  `json:"date"`
	MarketValue  float64 `json:"market_value"`
	TotalCost    float64 `json:"total_cost"`
	Profit       float64 `json:"profit"`
	ProfitRate   float64 `json:"profit_rate"`
	HoldingCount int     `json:"holding_count"`
}

// CurrencyExposure sums the latest snapshot's records for one currency.
type CurrencyExposure struct {
	Currency    string  `json:"currency"`
	MarketValue float64 `json:"market_value"`
	TotalCost   float64 `json:"total_cost"`
	Profit      float64 `json:"profit"`
	StockProfit float64 `json:"stock_profit"`
	FXProfit    float64 `json:"fx_profit"`
	Weight      float64 `json:"weight"` // % of snapshot market value
}

// DashboardHolding is a snapshot record plus its portfolio weight.
type DashboardHolding struct {
	PerformanceRecord
	Weight float64 `json:"weight"`
}

// SegmentSummary describes the value of one market segment and its share
// of the portfolio.
type SegmentSummary struct {
	Value float64 `json:"value"`
	Ratio float64 `json:"ratio"`
}

// Dashboard is the latest-month portfolio view.
type Dashboard struct {
	Date            string             `json:"date"`
	TotalValue      float64            `json:"total_value"`
	TotalCost       float64            `json:"total_cost"`
	TotalProfit     float64            `json:"total_profit"`
	TotalProfitRate float64            `json:"total_profit_rate"`
	Holdings        []DashboardHolding `json:"holdings"`
	Currencies      []CurrencyExposure `json:"currencies"`
	JPStocks        SegmentSummary     `json:"jp_stocks"`
	ForeignStocks   SegmentSummary     `json:"foreign_stocks"`
}
