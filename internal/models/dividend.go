// Package models defines data structures for Kabuto
package models

// DividendRecord is one dividend or distribution payment.
type DividendRecord struct {
	Date          string  `json:"date"` // payment date, "2006-01-02"
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	LocalDividend float64 `json:"local_dividend,omitempty"` // per unit, in Currency
	Quantity      float64 `json:"quantity,omitempty"`
	TotalLocal    float64 `json:"total_local,omitempty"` // in Currency
	Currency      string  `json:"currency"`              // defaults to JPY when empty
	FXRate        float64 `json:"fx_rate,omitempty"`     // Currency→JPY at payment
	TotalJPY      float64 `json:"total_jpy"`
	UpdatedAt     string  `json:"updated_at,omitempty"` // RFC3339
}

// DividendSummary is the full dividend history with its yen total.
type DividendSummary struct {
	Records  []DividendRecord `json:"records"`
	TotalJPY float64          `json:"total_jpy"`
}
