package identity

import (
	"context"
	"net/http"
	"strings"
)

const DefaultHeader = "X-User-ID"

// HeaderResolver trusts a header set by the authenticating reverse proxy
type HeaderResolver struct {
	Header string
}

func (h HeaderResolver) CurrentUserID(_ context.Context, r *http.Request) (string, error) {
	name := h.Header
	if name == "" {
		name = DefaultHeader
	}
	return strings.TrimSpace(r.Header.Get(name)), nil
}
