package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// EnsureToken returns the configured API token, generating a random one when
// none is set. The generated token is logged once so operators can pick it up
// from startup output.
func EnsureToken(configured string) string {
	if configured != "" {
		return configured
	}
	token := uuid.NewString()
	log.Printf("API_TOKEN not set, generated bearer token: %s", token)
	return token
}

// RequireToken is middleware that requires a matching bearer token in the
// Authorization header. The comparison is constant-time.
func RequireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
