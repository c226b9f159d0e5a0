package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"github.com/ndewijer/pnl-tracker/internal/api/response"
)

// Header names checked by APIKeyMiddleware.
const (
	APIKeyHeader    = "X-API-Key"
	TimeTokenHeader = "X-Time-Token"
)

// GenerateTimeToken returns the time token for the current minute: the hex
// HMAC-SHA256 of the unix minute keyed with apiKey.
func GenerateTimeToken(apiKey string) string {
	return timeToken(apiKey, time.Now())
}

func timeToken(apiKey string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(apiKey))
	mac.Write([]byte(strconv.FormatInt(at.Unix()/60, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// APIKeyMiddleware protects mutating endpoints. A request must carry the
// configured key in X-API-Key and a time token for the current or previous
// minute in X-Time-Token. An empty apiKey rejects every request with 500.
func APIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				response.RespondError(w, http.StatusInternalServerError, "server misconfigured", "Authentication not loaded")
				return
			}

			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing API key")
				return
			}
			if !hmac.Equal([]byte(key), []byte(apiKey)) {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
				return
			}

			token := r.Header.Get(TimeTokenHeader)
			if token == "" {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing Time token")
				return
			}
			now := time.Now()
			if !hmac.Equal([]byte(token), []byte(timeToken(apiKey, now))) &&
				!hmac.Equal([]byte(token), []byte(timeToken(apiKey, now.Add(-time.Minute)))) {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Time token is invalid or expired")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
