package repository

import (
	"context"

	"github.com/ndewijer/pnl-tracker/internal/model"
)

const notificationSettingsKey = "settings:notifications"

// SettingsRepository persists the notification settings.
type SettingsRepository struct {
	store *Store
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(store *Store) *SettingsRepository {
	return &SettingsRepository{store: store}
}

// LoadNotificationSettings returns the saved settings, or the defaults when
// nothing has been saved yet.
func (r *SettingsRepository) LoadNotificationSettings(ctx context.Context) (model.NotificationSettings, error) {
	settings := model.DefaultNotificationSettings()
	if _, err := loadJSON(ctx, r.store, notificationSettingsKey, &settings); err != nil {
		return model.NotificationSettings{}, err
	}
	return settings, nil
}

// SaveNotificationSettings replaces the saved settings.
func (r *SettingsRepository) SaveNotificationSettings(ctx context.Context, settings model.NotificationSettings) error {
	return saveJSON(ctx, r.store, notificationSettingsKey, settings)
}
