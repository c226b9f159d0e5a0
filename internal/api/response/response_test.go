package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/pnl-tracker/internal/api/response"
	"github.com/ndewijer/pnl-tracker/internal/apperrors"
)

func TestRespondJSON(t *testing.T) {
	t.Run("marks body as uncacheable json", func(t *testing.T) {
		w := httptest.NewRecorder()

		response.RespondJSON(w, http.StatusOK, map[string]float64{"totalValue": 170})

		if w.Header().Get("Content-Type") != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %q", w.Header().Get("Content-Type"))
		}
		if w.Header().Get("Cache-Control") != "no-store" {
			t.Errorf("Expected Cache-Control no-store, got %q", w.Header().Get("Cache-Control"))
		}
		var body map[string]float64
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body["totalValue"] != 170 {
			t.Errorf("Expected totalValue 170, got %v", body["totalValue"])
		}
	})

	t.Run("no content writes no body", func(t *testing.T) {
		w := httptest.NewRecorder()

		response.RespondNoContent(w)

		if w.Code != http.StatusNoContent {
			t.Errorf("Expected status 204, got %d", w.Code)
		}
		if w.Body.Len() != 0 {
			t.Errorf("Expected empty body, got %q", w.Body.String())
		}
		if w.Header().Get("Content-Type") != "" {
			t.Errorf("Expected no Content-Type on 204, got %q", w.Header().Get("Content-Type"))
		}
	})
}

func TestRespondError(t *testing.T) {
	w := httptest.NewRecorder()

	response.RespondError(w, http.StatusNotFound, "source not found", "kraken")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	var body response.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Error != "source not found" || body.Details != "kraken" {
		t.Errorf("Unexpected body %+v", body)
	}
}

// TestRespondValidation tests the validation error body.
//
// WHY: Clients highlight form fields from details; every rejected field must
// be listed, not only the first.
func TestRespondValidation(t *testing.T) {
	w := httptest.NewRecorder()

	response.RespondValidation(w, &apperrors.ValidationError{Fields: map[string]string{
		"amount": "amount must be positive",
		"symbol": "symbol is required",
	}})

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Error != "validation failed" {
		t.Errorf("Expected validation failed, got %q", body.Error)
	}
	if len(body.Details) != 2 || body.Details["symbol"] != "symbol is required" {
		t.Errorf("Unexpected details %v", body.Details)
	}
}
