// Package models defines data structures for Kabuto
package models

import "time"

// MarketDataPoint is one month-end market snapshot for an instrument,
// keyed by (Date, Code). Re-collections overwrite by UpdatedAt:
// the lexicographically largest RFC3339 timestamp wins.
type MarketDataPoint struct {
	Date       string  `json:"date"` // month-end, "2006-01-02"
	Code       string  `json:"code"`
	LocalClose float64 `json:"local_close"` // in Currency
	Currency   string  `json:"currency"`
	FXRate     float64 `json:"fx_rate,omitempty"` // Currency→JPY on Date; zero for JPY instruments
	High       float64 `json:"high,omitempty"`
	Low        float64 `json:"low,omitempty"`
	Average    float64 `json:"average,omitempty"`
	ChangeRate float64 `json:"change_rate,omitempty"` // intra-month % move
	Volume     int64   `json:"volume,omitempty"`
	UpdatedAt  string  `json:"updated_at"` // RFC3339 write timestamp
}

// Key returns the upsert key for the market data table.
func (p MarketDataPoint) Key() string {
	return p.Date + "|" + p.Code
}

// HomeClose returns the month-end price converted to JPY.
// Falls back to the local price when no FX rate was collected.
func (p MarketDataPoint) HomeClose() float64 {
	if p.Currency != "" && p.Currency != "JPY" && p.FXRate > 0 {
		return p.LocalClose * p.FXRate
	}
	return p.LocalClose
}

// EODBar represents a single day's price data from a quote provider.
type EODBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// MonthlyBar aggregates one calendar month of daily bars for an instrument.
type MonthlyBar struct {
	Code       string
	Currency   string
	Year       int
	Month      time.Month
	Close      float64 // last trading day's close
	High       float64
	Low        float64
	Average    float64 // mean of daily closes
	ChangeRate float64 // (last close / first close - 1) × 100
	Volume     int64   // mean daily volume
}
