// Package models defines data structures for Kabuto
package models

import (
	"sort"
	"time"
)

// Transaction is one row of the portfolio ledger: a single acquisition
// of an instrument. Multiple rows may share a code; each is a separate lot.
type Transaction struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	AcquiredDate string  `json:"acquired_date"` // "2006-01-02" or "2006/01/02"
	Quantity     float64 `json:"quantity"`
	LocalPrice   float64 `json:"local_price"`       // per unit, in Currency
	Currency     string  `json:"currency"`          // defaults to JPY when empty
	FXRate       float64 `json:"fx_rate,omitempty"` // Currency→JPY at acquisition; unused for JPY rows
	Note         string  `json:"note,omitempty"`
	UpdatedAt    string  `json:"updated_at,omitempty"` // RFC3339
}

// Lot is a validated acquisition event within a holding.
type Lot struct {
	AcquiredDate time.Time
	Quantity     float64
	LocalPrice   float64
	HomePrice    float64 // LocalPrice × FXRate (== LocalPrice for JPY)
	FXRate       float64
	Currency     string
}

// Holding groups the lots of one instrument, sorted by acquisition date.
type Holding struct {
	Code     string
	Name     string
	Currency string
	Lots     []Lot
}

// LotsAsOf returns the lots acquired on or before the cutoff date.
// Lots are date-sorted, so the eligible set is always a prefix.
func (h *Holding) LotsAsOf(cutoff time.Time) []Lot {
	n := 0
	for _, lot := range h.Lots {
		if lot.AcquiredDate.After(cutoff) {
			break
		}
		n++
	}
	return h.Lots[:n]
}

// Ledger maps instrument code to its holding.
type Ledger map[string]*Holding

// Codes returns the instrument codes in ascending order.
func (l Ledger) Codes() []string {
	codes := make([]string, 0, len(l))
	for code := range l {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Warning is a recoverable, per-row data-quality problem. Rows that
// produce warnings are skipped; the run continues.
type Warning struct {
	Source  string `json:"source"` // "ledger", "market" or "collector"
	Code    string `json:"code,omitempty"`
	Row     int    `json:"row,omitempty"` // 1-based position in the input
	Message string `json:"message"`
}
