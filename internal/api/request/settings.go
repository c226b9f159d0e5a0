package request

// UpdateNotificationSettingsRequest is the body of PUT
// /api/settings/notifications. Nil fields keep their current value.
type UpdateNotificationSettingsRequest struct {
	DailyPnLEnabled          *bool    `json:"dailyPnLEnabled,omitempty"`
	PriceChangeEnabled       *bool    `json:"priceChangeEnabled,omitempty"`
	PriceChangeThreshold     *float64 `json:"priceChangeThreshold,omitempty"`
	SyncNotificationsEnabled *bool    `json:"syncNotificationsEnabled,omitempty"`
	SignificantChangeEnabled *bool    `json:"significantChangeEnabled,omitempty"`
	SignificantChangeAmount  *float64 `json:"significantChangeAmount,omitempty"`
}
