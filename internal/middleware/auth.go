package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/teomarche/study-garden/internal/garden"
	"github.com/teomarche/study-garden/internal/services/token"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionFromContext extracts the garden session from the request context.
func SessionFromContext(r *http.Request) *garden.Session {
	session, ok := r.Context().Value(sessionContextKey).(*garden.Session)
	if !ok {
		return nil
	}
	return session
}

// ContextWithSession returns a context carrying the garden session.
func ContextWithSession(ctx context.Context, session *garden.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// Auth creates authentication middleware that validates session tokens and
// resolves the logged-in garden. A valid token whose garden has since been
// logged out is unauthorized; the client must log in again.
func Auth(issuer *token.Issuer, gardens *garden.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			gardenKey, err := issuer.Verify(parts[1])
			if err != nil {
				respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			session, ok := gardens.Get(gardenKey)
			if !ok {
				respondError(w, http.StatusUnauthorized, "Garden is not logged in")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), session)))
		})
	}
}

// respondError sends a minimal JSON error body.
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
