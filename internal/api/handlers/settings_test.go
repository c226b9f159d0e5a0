package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/pnl-tracker/internal/model"
	"github.com/ndewijer/pnl-tracker/internal/testutil"
)

func TestSettingsHandler(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewSettingsHandler(testutil.NewTestSettingsService(t, db))

	t.Run("returns defaults", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/settings/notifications", nil)
		w := httptest.NewRecorder()

		handler.GetNotificationSettings(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		var settings model.NotificationSettings
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&settings)
		if settings != model.DefaultNotificationSettings() {
			t.Errorf("Expected defaults, got %+v", settings)
		}
	})

	t.Run("patches settings", func(t *testing.T) {
		req := testutil.NewJSONRequest(http.MethodPut, "/api/settings/notifications", `{"dailyPnLEnabled":false,"priceChangeThreshold":2}`, nil)
		w := httptest.NewRecorder()

		handler.UpdateNotificationSettings(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var settings model.NotificationSettings
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&settings)
		if settings.DailyPnLEnabled || settings.PriceChangeThreshold != 2 || !settings.SyncNotificationsEnabled {
			t.Errorf("Unexpected settings: %+v", settings)
		}
	})

	t.Run("rejects negative threshold", func(t *testing.T) {
		req := testutil.NewJSONRequest(http.MethodPut, "/api/settings/notifications", `{"significantChangeAmount":-5}`, nil)
		w := httptest.NewRecorder()

		handler.UpdateNotificationSettings(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}
