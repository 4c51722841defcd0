package middleware

import (
	"context"
	"net/http"
	"strings"
)

// TokenValidator checks a presented API token.
type TokenValidator interface {
	Validate(ctx context.Context, token string) error
}

// Auth returns middleware that requires a valid bearer token.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeUnauthorized(w)
				return
			}
			if err := validator.Validate(r.Context(), token); err != nil {
				writeUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}` + "\n"))
}

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// Query parameter fallback for clients that cannot set headers.
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	return ""
}
