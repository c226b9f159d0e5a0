package model

import "time"

// SourceKind classifies where a set of balances came from.
type SourceKind string

const (
	SourceKindManual   SourceKind = "manual"
	SourceKindExchange SourceKind = "exchange"
	SourceKindWallet   SourceKind = "wallet"
)

// HoldingSource is one asset balance as reported by a single source.
type HoldingSource struct {
	Symbol    string    `json:"symbol"`
	Quantity  float64   `json:"quantity"`
	UnitPrice float64   `json:"unitPrice"`
	Value     float64   `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SourceShare is the part of an aggregated holding contributed by one source.
type SourceShare struct {
	Source    string     `json:"source"`
	Kind      SourceKind `json:"kind"`
	Quantity  float64    `json:"quantity"`
	UnitPrice float64    `json:"unitPrice"`
	Value     float64    `json:"value"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// AggregatedHolding merges one symbol across every source that reported it.
// Value is the sum of each source's quantity times that source's price.
type AggregatedHolding struct {
	Symbol       string        `json:"symbol"`
	Quantity     float64       `json:"quantity"`
	Value        float64       `json:"value"`
	AveragePrice float64       `json:"averagePrice"`
	Sources      []SourceShare `json:"sources"`
}

// SourceFailure names a source that could not be read during a run.
type SourceFailure struct {
	Source string     `json:"source"`
	Kind   SourceKind `json:"kind"`
	Error  string     `json:"error"`
}

// Aggregation is the unified set of holdings across all sources.
type Aggregation struct {
	Holdings   map[string]AggregatedHolding `json:"holdings"`
	TotalValue float64                      `json:"totalValue"`
	Failures   []SourceFailure              `json:"failures"`
}
