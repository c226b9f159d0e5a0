package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ndewijer/pnl-tracker/internal/api/response"
	"github.com/ndewijer/pnl-tracker/internal/apperrors"
)

// maxBodyBytes caps request bodies read by parseJSON.
const maxBodyBytes = 1 << 20

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	response.RespondJSON(w, status, data)
}

// parseJSON decodes the request body into T. Unknown fields are rejected.
func parseJSON[T any](r *http.Request) (T, error) {
	var v T
	if r.Body == nil {
		return v, errors.New("request body is empty")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("decode body: %w", err)
	}
	return v, nil
}

// errorStatus maps a service error onto an HTTP status code.
func errorStatus(err error) int {
	switch {
	case apperrors.IsValidation(err), errors.Is(err, apperrors.ErrEmptyID), errors.Is(err, apperrors.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrTransactionNotFound), errors.Is(err, apperrors.ErrSourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrDuplicateSource), errors.Is(err, apperrors.ErrPipelineBusy):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnprocessableEntity
	case apperrors.IsConfig(err):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNoPipelineResult):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err with its mapped status. Server-side errors
// use fallback as the message; client errors use the error itself.
func respondServiceError(w http.ResponseWriter, err error, fallback error) {
	status := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = fallback.Error()
	}

	var v *apperrors.ValidationError
	if errors.As(err, &v) {
		response.RespondValidation(w, v)
		return
	}
	response.RespondError(w, status, message, err.Error())
}
