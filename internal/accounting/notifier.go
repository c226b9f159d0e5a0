package accounting

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ndewijer/pnl-tracker/internal/model"
)

// Delta carries what changed in the run being evaluated.
type Delta struct {
	// Today is the local calendar day of the run.
	Today string
	// At is the evaluation time stamped on events.
	At time.Time
	// SyncedSources lists sources that just finished refreshing.
	SyncedSources []string
	// SyncedAt identifies the sync run that refreshed them.
	SyncedAt time.Time
}

// Notifier evaluates notification settings against the latest snapshot.
type Notifier struct {
	Currency string
}

// Evaluate returns the events the settings call for. It is pure: the same
// input always yields the same events, and each (date, kind) pair appears at
// most once in the result.
func (n Notifier) Evaluate(settings model.NotificationSettings, latest *model.DailySnapshot, delta Delta) []model.NotificationEvent {
	var events []model.NotificationEvent

	if latest != nil {
		if settings.DailyPnLEnabled && latest.Date == delta.Today {
			events = append(events, n.event(model.EventDailyPnL, latest.Date, delta.At, fmt.Sprintf(
				"Daily P&L for %s: %s (%s). Portfolio value %s.",
				latest.Date,
				FormatSignedMoney(latest.DailyChange, n.Currency),
				FormatPercent(latest.DailyChangePercentage),
				FormatMoney(latest.TotalValue, n.Currency),
			)))
		}

		if settings.PriceChangeEnabled && math.Abs(latest.DailyChangePercentage) >= settings.PriceChangeThreshold {
			events = append(events, n.event(model.EventPercentageThreshold, latest.Date, delta.At, fmt.Sprintf(
				"Portfolio moved %s on %s (threshold %.2f%%).",
				FormatPercent(latest.DailyChangePercentage),
				latest.Date,
				settings.PriceChangeThreshold,
			)))
		}

		if settings.SignificantChangeEnabled && math.Abs(latest.DailyChange) >= settings.SignificantChangeAmount {
			events = append(events, n.event(model.EventDollarThreshold, latest.Date, delta.At, fmt.Sprintf(
				"Portfolio moved %s on %s (threshold %s).",
				FormatSignedMoney(latest.DailyChange, n.Currency),
				latest.Date,
				FormatMoney(settings.SignificantChangeAmount, n.Currency),
			)))
		}
	}

	if settings.SyncNotificationsEnabled && len(delta.SyncedSources) > 0 {
		e := n.event(model.EventSyncComplete, delta.Today, delta.At, fmt.Sprintf(
			"Sync complete: %s.", strings.Join(delta.SyncedSources, ", "),
		))
		e.Key = fmt.Sprintf("%s|%s", e.Key, delta.SyncedAt.UTC().Format(time.RFC3339Nano))
		events = append(events, e)
	}

	return events
}

func (n Notifier) event(kind model.EventKind, date string, at time.Time, msg string) model.NotificationEvent {
	return model.NotificationEvent{
		Kind:      kind,
		Date:      date,
		Message:   msg,
		Timestamp: at,
		Key:       EventKey(date, kind),
	}
}

// EventKey is the dedupe key of a threshold event.
func EventKey(date string, kind model.EventKind) string {
	return date + "|" + string(kind)
}
