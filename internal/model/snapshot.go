package model

// DailySnapshot is the recorded total portfolio value for one calendar day.
type DailySnapshot struct {
	Date                  string  `json:"date"` // Local date in YYYY-MM-DD format
	TotalValue            float64 `json:"totalValue"`
	PreviousValue         float64 `json:"previousValue"`
	DailyChange           float64 `json:"dailyChange"`
	DailyChangePercentage float64 `json:"dailyChangePercentage"`
}
