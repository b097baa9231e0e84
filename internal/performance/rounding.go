package performance

import "github.com/shopspring/decimal"

// Output amounts follow a fixed rounding policy so every consumer renders
// the same figures: home-currency amounts to whole yen, rates/percentages
// and local prices to 2 decimal places. Half-away-from-zero, via decimal
// arithmetic rather than float math, keeps results byte-for-byte stable.

// RoundYen rounds a home-currency amount to whole yen.
func RoundYen(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(0).Float64()
	return f
}

// Round2 rounds a rate, percentage or local price to 2 decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
