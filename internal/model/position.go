package model

// Position is derived from the ledger and current prices. It is recomputed on
// demand and never persisted on its own.
type Position struct {
	Symbol        string  `json:"symbol"`
	Amount        float64 `json:"amount"`        // Total held amount
	AverageCost   float64 `json:"averageCost"`   // Average cost basis per unit, changed only by buys
	Invested      float64 `json:"invested"`      // Cost basis of the held amount
	Fees          float64 `json:"fees"`          // Fees paid, informational only
	CurrentPrice  float64 `json:"currentPrice"`  // 0 when no price is known
	CurrentValue  float64 `json:"currentValue"`  // Amount * CurrentPrice
	PnL           float64 `json:"pnl"`           // CurrentValue - Invested
	PnLPercentage float64 `json:"pnlPercentage"` // PnL / Invested * 100, 0 when nothing invested
}
