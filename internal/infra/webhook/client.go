package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/m-mizutani/goerr/v2"

	"github.com/bryanwahyu/greenscan/internal/domain/analysis"
)

const maxResponseSize = 4 << 20

// Client posts analysis requests to the external webhook
type Client struct {
	url  string
	http *retryablehttp.Client
}

type payload struct {
	ChatInput analysis.Request `json:"chatInput"`
}

// NewClient builds a webhook client. retryMax 0 means a single attempt.
func NewClient(url string, timeout time.Duration, retryMax int, logger *slog.Logger) *Client {
	hc := retryablehttp.NewClient()
	hc.RetryMax = retryMax
	hc.RetryWaitMin = 500 * time.Millisecond
	hc.RetryWaitMax = 5 * time.Second
	if timeout > 0 {
		hc.HTTPClient.Timeout = timeout
	}
	hc.Logger = nil
	if logger != nil {
		hc.Logger = logger
	}
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{url: url, http: hc}
}

// Analyze sends {"chatInput": {...}} and decodes the report from the answer
func (c *Client) Analyze(ctx context.Context, req analysis.Request) (analysis.Report, error) {
	body, err := json.Marshal(payload{ChatInput: req})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode webhook payload")
	}

	hreq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create webhook request", goerr.V("url", c.url))
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(hreq)
	if err != nil {
		return nil, goerr.Wrap(errors.Join(analysis.ErrTransport, err), "webhook request failed",
			goerr.V("url", c.url))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, goerr.Wrap(errors.Join(analysis.ErrTransport, err), "failed to read webhook response",
			goerr.V("url", c.url))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, goerr.Wrap(analysis.ErrUpstreamStatus, "webhook returned non-2xx status",
			goerr.V("status", resp.StatusCode), goerr.V("body", string(truncate(data, 256))))
	}

	return analysis.ParseReport(data)
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
