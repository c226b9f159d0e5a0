package model

import "time"

// PortfolioSummary is the headline view of the latest pipeline run.
type PortfolioSummary struct {
	Currency      string              `json:"currency"`
	TotalValue    float64             `json:"totalValue"`
	Invested      float64             `json:"invested"`
	PnL           float64             `json:"pnl"`
	PnLPercentage float64             `json:"pnlPercentage"`
	Today         DailySnapshot       `json:"today"`
	Holdings      []AggregatedHolding `json:"holdings"`
	ValueBySource map[string]float64  `json:"valueBySource"`
	Failures      []SourceFailure     `json:"failures"`
	Display       SummaryDisplay      `json:"display"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// SummaryDisplay holds pre-formatted amounts in the display currency.
type SummaryDisplay struct {
	TotalValue  string `json:"totalValue"`
	DailyChange string `json:"dailyChange"`
	DailyPct    string `json:"dailyPct"`
	PnL         string `json:"pnl"`
}
