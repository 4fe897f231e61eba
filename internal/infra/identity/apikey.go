package identity

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyResolver maps a bearer key to the user it was issued to
type APIKeyResolver struct {
	// Keys is user id -> api key
	Keys map[string]string
}

func (a APIKeyResolver) CurrentUserID(_ context.Context, r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", nil
	}

	// Support both "Bearer <key>" and "<key>" formats
	apiKey := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if apiKey == "" {
		return "", nil
	}

	// constant-time comparison to prevent timing attacks
	var user string
	for u, key := range a.Keys {
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
			user = u
		}
	}
	return user, nil
}
