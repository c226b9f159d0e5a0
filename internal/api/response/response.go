// Package response writes the JSON bodies returned by every endpoint and
// middleware, so errors share one shape across the API.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ndewijer/pnl-tracker/internal/apperrors"
)

// ErrorResponse is the body of every non-2xx response. Details is a string,
// or for validation failures a map of field name to reason.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// RespondJSON writes data as JSON with the given status. Valuations change
// with every sample, so responses are marked no-store. A nil data or a 204
// writes headers only.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	h := w.Header()
	h.Set("Cache-Control", "no-store")
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	h.Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Int("status", status).Msg("failed to encode JSON response")
	}
}

// RespondNoContent acknowledges a deletion or other bodiless success.
func RespondNoContent(w http.ResponseWriter) {
	RespondJSON(w, http.StatusNoContent, nil)
}

// RespondError writes an ErrorResponse.
//
//	response.RespondError(w, http.StatusNotFound, "source not found", name)
func RespondError(w http.ResponseWriter, status int, message string, details any) {
	RespondJSON(w, status, ErrorResponse{Error: message, Details: details})
}

// RespondValidation writes a 400 listing every rejected field.
func RespondValidation(w http.ResponseWriter, err *apperrors.ValidationError) {
	RespondError(w, http.StatusBadRequest, "validation failed", err.Fields)
}
