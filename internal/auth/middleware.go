package auth

import (
	"context"
	"net/http"
	"strings"

	pkghttp "github.com/BradenHooton/skilltrack/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserIDContextKey is the key for storing the authenticated user id in context
	UserIDContextKey contextKey = "userID"
)

// TokenVerifier resolves a session token to the user id it was issued for
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// AuthMiddleware requires a valid Bearer token and injects the user id into context
func AuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")

			// An empty credential after the scheme is an invalid token, not a missing one
			if !strings.HasPrefix(authHeader, "Bearer ") {
				pkghttp.WriteUnauthorized(w, "No token")
				return
			}

			userID, err := verifier.Verify(strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")))
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Invalid token")
				return
			}

			ctx := WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUserID returns a copy of ctx carrying the user id
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}

// GetUserIDFromContext extracts the authenticated user id from request context
func GetUserIDFromContext(r *http.Request) string {
	userID, _ := r.Context().Value(UserIDContextKey).(string)
	return userID
}
