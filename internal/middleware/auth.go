package middleware

import (
	"context"
	"net/http"

	"github.com/bryanwahyu/greenscan/internal/logging"
)

type contextKey string

const UserKey contextKey = "user_id"

// IdentityResolver yields the user id of a request; empty means anonymous
type IdentityResolver interface {
	CurrentUserID(ctx context.Context, r *http.Request) (string, error)
}

// Identify resolves the caller once per request and stores the user id in
// the context. Resolver errors and malformed ids are logged and the request
// continues as anonymous.
func Identify(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isHealthPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := resolver.CurrentUserID(r.Context(), r)
			if err != nil {
				logging.From(r.Context()).Warn("identity lookup failed", "error", err)
				userID = ""
			}
			if userID != "" {
				if err := ValidateUserID(userID); err != nil {
					logging.From(r.Context()).Warn("rejected user id", "error", err)
					userID = ""
				}
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
		})
	}
}

// WithUser returns a context carrying userID
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserKey, userID)
}

// GetUserFromContext extracts the user id from context
func GetUserFromContext(ctx context.Context) string {
	if user, ok := ctx.Value(UserKey).(string); ok {
		return user
	}
	return ""
}

// RequireUser answers 401 to anonymous requests
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserFromContext(r.Context()) == "" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isHealthPath(path string) bool {
	switch path {
	case "/health", "/healthz/live", "/healthz/ready", "/metrics":
		return true
	}
	return false
}
