package model

import "time"

// Side is the direction of a transaction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// SourceManual tags transactions entered by the user.
const SourceManual = "manual"

// Transaction represents an immutable buy or sell event for one asset.
// It is never mutated after being appended to the ledger; removal is the only correction.
type Transaction struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	Amount     float64   `json:"amount"`
	UnitPrice  float64   `json:"unitPrice"`
	Fee        float64   `json:"fee,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	Source     string    `json:"source"`
}
