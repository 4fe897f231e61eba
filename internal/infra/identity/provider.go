package identity

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/m-mizutani/goerr/v2"
	"github.com/tidwall/gjson"
)

// ProviderResolver asks an external session endpoint who the caller is.
// The session cookie and Authorization header are forwarded as is. The
// endpoint answers {"user_id": "..."}; 401 and 403 mean anonymous.
type ProviderResolver struct {
	URL    string
	Cookie string
	client *http.Client
}

func NewProviderResolver(url, cookie string, timeout time.Duration) *ProviderResolver {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.Logger = nil
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if timeout > 0 {
		rc.HTTPClient.Timeout = timeout
	}
	return &ProviderResolver{URL: url, Cookie: cookie, client: rc.StandardClient()}
}

func (p *ProviderResolver) CurrentUserID(ctx context.Context, r *http.Request) (string, error) {
	var session *http.Cookie
	if p.Cookie != "" {
		c, err := r.Cookie(p.Cookie)
		if err != nil && !errors.Is(err, http.ErrNoCookie) {
			return "", goerr.Wrap(err, "failed to read session cookie")
		}
		session = c
	}
	auth := r.Header.Get("Authorization")
	if session == nil && auth == "" {
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create session lookup", goerr.V("url", p.URL))
	}
	if session != nil {
		req.AddCookie(session)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", goerr.Wrap(err, "session lookup failed", goerr.V("url", p.URL))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", nil
	case resp.StatusCode != http.StatusOK:
		return "", goerr.New("unexpected session lookup status", goerr.V("status", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", goerr.Wrap(err, "failed to read session lookup")
	}
	if !gjson.ValidBytes(body) {
		return "", goerr.New("session lookup returned invalid JSON")
	}

	res := gjson.ParseBytes(body)
	if id := res.Get("user_id"); id.Exists() {
		return id.String(), nil
	}
	return res.Get("userId").String(), nil
}
