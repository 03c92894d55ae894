package middleware

import (
	"net/http"
	"strings"

	"github.com/aora/backend/internal/backend"
)

const bearerPrefix = "bearer "

// Session copies the bearer secret from the Authorization header onto the
// request context so backend calls act for the caller. Requests without a
// bearer token pass through unchanged.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := bearerToken(r.Header.Get("Authorization"))
		if secret == "" {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(backend.WithSession(r.Context(), secret)))
	})
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}
