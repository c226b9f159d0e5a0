package handlers

import (
	"net/http"

	"github.com/ndewijer/pnl-tracker/internal/api/request"
	"github.com/ndewijer/pnl-tracker/internal/api/response"
	"github.com/ndewijer/pnl-tracker/internal/notify"
)

// defaultRecentNotifications is the page size of Recent without a limit.
const defaultRecentNotifications = 20

// NotificationHandler serves delivered notifications.
type NotificationHandler struct {
	dispatcher *notify.Dispatcher
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(dispatcher *notify.Dispatcher) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher}
}

// Recent handles GET requests for the in-app notification list.
//
// Endpoint: GET /api/notifications?limit=20
// Response: 200 OK with array of NotificationEvent, newest first
// Error: 400 Bad Request if limit is not a positive integer
func (h *NotificationHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, err := request.ParseLimit(r.URL.Query().Get("limit"), defaultRecentNotifications, notify.MaxRecent)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid limit", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, h.dispatcher.Recent(limit))
}
