// Package middleware provides HTTP middleware for request validation and processing.
package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/pnl-tracker/internal/api/response"
	"github.com/ndewijer/pnl-tracker/internal/validation"
)

// ValidateSourceNameMiddleware validates that the name URL parameter is a
// well-formed source name. Returns 400 Bad Request if it is missing or
// malformed.
//
// Example usage in router:
//
//	r.Route("/{name}", func(r chi.Router) {
//	    r.Use(middleware.ValidateSourceNameMiddleware)
//	    r.Delete("/", handler.DisconnectSource)
//	})
func ValidateSourceNameMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		if name == "" {
			response.RespondError(w, http.StatusBadRequest, "source name is required", "")
			return
		}

		if !validation.ValidSourceName(name) {
			response.RespondError(w, http.StatusBadRequest, "invalid source name", name)
			return
		}

		next.ServeHTTP(w, r)
	})
}
