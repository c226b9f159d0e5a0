package model

import "time"

// NotificationSettings holds the user's notification toggles and thresholds.
type NotificationSettings struct {
	DailyPnLEnabled          bool    `json:"dailyPnLEnabled"`
	PriceChangeEnabled       bool    `json:"priceChangeEnabled"`
	PriceChangeThreshold     float64 `json:"priceChangeThreshold"` // Percent
	SyncNotificationsEnabled bool    `json:"syncNotificationsEnabled"`
	SignificantChangeEnabled bool    `json:"significantChangeEnabled"`
	SignificantChangeAmount  float64 `json:"significantChangeAmount"` // Display currency
}

// DefaultNotificationSettings is used when no settings have been saved yet.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		DailyPnLEnabled:          true,
		PriceChangeEnabled:       true,
		PriceChangeThreshold:     5,
		SyncNotificationsEnabled: true,
		SignificantChangeEnabled: false,
		SignificantChangeAmount:  1000,
	}
}

// EventKind identifies what triggered a notification.
type EventKind string

const (
	EventDailyPnL            EventKind = "daily-pnl"
	EventPercentageThreshold EventKind = "percentage-threshold"
	EventDollarThreshold     EventKind = "dollar-threshold"
	EventSyncComplete        EventKind = "sync-complete"
)

// NotificationEvent is handed to the delivery layer.
type NotificationEvent struct {
	Kind      EventKind `json:"kind"`
	Date      string    `json:"date"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Key       string    `json:"key"` // Dedupe key, one delivery per key
}
