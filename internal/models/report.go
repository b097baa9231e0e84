// Package models defines data structures for Kabuto
package models

import "time"

// ReportHolding is one holding's row in a monthly report.
type ReportHolding struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	CostPrice    float64 `json:"cost_price"`    // JPY per unit
	CurrentPrice float64 `json:"current_price"` // JPY per unit
	Cost         float64 `json:"cost"`
	Value        float64 `json:"value"`
	Profit       float64 `json:"profit"`
	ProfitRate   float64 `json:"profit_rate"`
	Currency     string  `json:"currency"`
	IsForeign    bool    `json:"is_foreign"`
	StockProfit  float64 `json:"stock_profit,omitempty"`
	FXProfit     float64 `json:"fx_profit,omitempty"`
	High         float64 `json:"high,omitempty"`
	Low          float64 `json:"low,omitempty"`
	ChangeRate   float64 `json:"change_rate,omitempty"`
}

// MonthlyReport is the blog-style month-end report for one period.
type MonthlyReport struct {
	Month           string             `json:"month"` // display label, e.g. "2024年12月"
	Year            int                `json:"year"`
	MonthNum        int                `json:"month_num"`
	Date            string             `json:"date"` // month-end date the report covers
	TotalCost       float64            `json:"total_cost"`
	TotalValue      float64            `json:"total_value"`
	TotalProfit     float64            `json:"total_profit"`
	TotalProfitRate float64            `json:"total_profit_rate"`
	Holdings        []ReportHolding    `json:"holdings"`
	JPStocks        SegmentSummary     `json:"jp_stocks"`
	ForeignStocks   SegmentSummary     `json:"foreign_stocks"`
	ExchangeRates   map[string]float64 `json:"exchange_rates,omitempty"`
	Commentary      string             `json:"commentary,omitempty"` // AI-generated, optional
	Markdown        string             `json:"markdown,omitempty"`
	GeneratedAt     time.Time          `json:"generated_at"`
}

// CollectionResult summarizes one month-end market data collection run.
type CollectionResult struct {
	RunID      string    `json:"run_id"`
	Year       int       `json:"year"`
	Month      int       `json:"month"`
	Date       string    `json:"date"` // month-end date collected
	Collected  []string  `json:"collected"`
	Skipped    []string  `json:"skipped,omitempty"`
	Warnings   []Warning `json:"warnings,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
