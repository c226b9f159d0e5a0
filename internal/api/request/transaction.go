package request

// CreateTransactionRequest is the body of POST /api/transaction. OccurredAt
// accepts RFC3339 or YYYY-MM-DD; empty means now.
type CreateTransactionRequest struct {
	ID         string  `json:"id,omitempty"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Amount     float64 `json:"amount"`
	UnitPrice  float64 `json:"unitPrice"`
	Fee        float64 `json:"fee,omitempty"`
	OccurredAt string  `json:"occurredAt,omitempty"`
	Source     string  `json:"source,omitempty"`
}
