package handlers

import (
	"net/http"

	"github.com/ndewijer/pnl-tracker/internal/api/request"
	"github.com/ndewijer/pnl-tracker/internal/api/response"
	"github.com/ndewijer/pnl-tracker/internal/apperrors"
	"github.com/ndewijer/pnl-tracker/internal/service"
	"github.com/ndewijer/pnl-tracker/internal/validation"
)

// SettingsHandler handles HTTP requests for notification settings.
type SettingsHandler struct {
	settingsService *service.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// GetNotificationSettings handles GET requests for the notification settings.
// Defaults are returned until settings are first saved.
//
// Endpoint: GET /api/settings/notifications
// Response: 200 OK with NotificationSettings
func (h *SettingsHandler) GetNotificationSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.GetNotificationSettings(r.Context())
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveSettings)
		return
	}

	response.RespondJSON(w, http.StatusOK, settings)
}

// UpdateNotificationSettings handles PUT requests that patch the settings.
// Omitted fields keep their value.
//
// Endpoint: PUT /api/settings/notifications
// Request Body: UpdateNotificationSettingsRequest
// Response: 200 OK with the stored NotificationSettings
// Error: 400 Bad Request if a threshold is negative or the body is invalid
func (h *SettingsHandler) UpdateNotificationSettings(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.UpdateNotificationSettingsRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateNotificationSettings(req); err != nil {
		respondServiceError(w, err, err)
		return
	}

	settings, err := h.settingsService.UpdateNotificationSettings(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToUpdateSettings)
		return
	}

	response.RespondJSON(w, http.StatusOK, settings)
}
