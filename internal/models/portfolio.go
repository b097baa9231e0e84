// Package models defines data structures for Kabuto
package models

// PortfolioItem is one holding in the holdings-list view: the aggregated
// acquisition position plus its current valuation.
type PortfolioItem struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	AcquiredDate  string   `json:"acquired_date"` // first lot, "2006-01-02"
	Quantity      float64  `json:"quantity"`
	AvgPrice      float64  `json:"avg_price"` // JPY per unit, quantity-weighted
	TotalCost     float64  `json:"total_cost"`
	Currency      string   `json:"currency"`
	IsForeign     bool     `json:"is_foreign"`
	LocalAvgPrice float64  `json:"local_avg_price,omitempty"` // in Currency
	AvgFXRate     float64  `json:"avg_fx_rate,omitempty"`
	CurrentValue  float64  `json:"current_value"` // latest snapshot, 0 without data
	CAGR          *float64 `json:"cagr,omitempty"`
}

// PortfolioView is the holdings list plus the warnings the ledger build
// produced.
type PortfolioView struct {
	Items    []PortfolioItem `json:"items"`
	Warnings []Warning       `json:"warnings,omitempty"`
}
