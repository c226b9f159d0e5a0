package repository

import (
	"context"
	"time"

	"github.com/ndewijer/pnl-tracker/internal/model"
)

const (
	recentNotificationsKey    = "notifications:recent"
	deliveredNotificationsKey = "notifications:delivered"
)

// NotificationRepository persists delivered notification events and the set
// of dedupe keys already delivered.
type NotificationRepository struct {
	store *Store
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(store *Store) *NotificationRepository {
	return &NotificationRepository{store: store}
}

// LoadRecent returns the most recent delivered events, newest last.
func (r *NotificationRepository) LoadRecent(ctx context.Context) ([]model.NotificationEvent, error) {
	events := []model.NotificationEvent{}
	if _, err := loadJSON(ctx, r.store, recentNotificationsKey, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// SaveRecent replaces the recent event list.
func (r *NotificationRepository) SaveRecent(ctx context.Context, events []model.NotificationEvent) error {
	return saveJSON(ctx, r.store, recentNotificationsKey, events)
}

// LoadDelivered returns the delivered dedupe keys with their delivery time.
func (r *NotificationRepository) LoadDelivered(ctx context.Context) (map[string]time.Time, error) {
	delivered := map[string]time.Time{}
	if _, err := loadJSON(ctx, r.store, deliveredNotificationsKey, &delivered); err != nil {
		return nil, err
	}
	return delivered, nil
}

// SaveDelivered replaces the delivered key set.
func (r *NotificationRepository) SaveDelivered(ctx context.Context, delivered map[string]time.Time) error {
	return saveJSON(ctx, r.store, deliveredNotificationsKey, delivered)
}
