package service

import (
	"context"
	"sync"

	"github.com/ndewijer/pnl-tracker/internal/api/request"
	"github.com/ndewijer/pnl-tracker/internal/model"
	"github.com/ndewijer/pnl-tracker/internal/repository"
)

// SettingsService handles notification settings.
type SettingsService struct {
	mu           sync.Mutex
	settingsRepo *repository.SettingsRepository
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(settingsRepo *repository.SettingsRepository) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo}
}

// GetNotificationSettings returns the saved settings, or the defaults.
func (s *SettingsService) GetNotificationSettings(ctx context.Context) (model.NotificationSettings, error) {
	return s.settingsRepo.LoadNotificationSettings(ctx)
}

// UpdateNotificationSettings applies the non-nil fields of req and returns
// the stored result.
func (s *SettingsService) UpdateNotificationSettings(ctx context.Context, req request.UpdateNotificationSettingsRequest) (model.NotificationSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.settingsRepo.LoadNotificationSettings(ctx)
	if err != nil {
		return model.NotificationSettings{}, err
	}

	if req.DailyPnLEnabled != nil {
		settings.DailyPnLEnabled = *req.DailyPnLEnabled
	}
	if req.PriceChangeEnabled != nil {
		settings.PriceChangeEnabled = *req.PriceChangeEnabled
	}
	if req.PriceChangeThreshold != nil {
		settings.PriceChangeThreshold = *req.PriceChangeThreshold
	}
	if req.SyncNotificationsEnabled != nil {
		settings.SyncNotificationsEnabled = *req.SyncNotificationsEnabled
	}
	if req.SignificantChangeEnabled != nil {
		settings.SignificantChangeEnabled = *req.SignificantChangeEnabled
	}
	if req.SignificantChangeAmount != nil {
		settings.SignificantChangeAmount = *req.SignificantChangeAmount
	}

	if err := s.settingsRepo.SaveNotificationSettings(ctx, settings); err != nil {
		return model.NotificationSettings{}, err
	}
	return settings, nil
}
