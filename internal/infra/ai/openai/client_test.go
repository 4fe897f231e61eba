package openai_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/greenscan/internal/domain/analysis"
	"github.com/bryanwahyu/greenscan/internal/infra/ai/openai"
)

func TestParseContent(t *testing.T) {
	report, err := openai.ParseContent(`{"output":{"sustainability_score":"High"}}`)
	gt.NoError(t, err)
	gt.A(t, report).Length(1)
	gt.Equal(t, report[0].Output.SustainabilityScore, "High")

	report, err = openai.ParseContent(` {"sustainability_score":"Low","major_concerns":["x"]} `)
	gt.NoError(t, err)
	gt.Equal(t, report[0].Output.SustainabilityScore, "Low")
	gt.A(t, report[0].Output.MajorConcerns).Length(1)

	_, err = openai.ParseContent("```json\n{}\n```")
	gt.True(t, errors.Is(err, analysis.ErrMalformedResponse))
}

func newClient(t *testing.T, h http.HandlerFunc) *openai.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := goopenai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return &openai.Client{Client: goopenai.NewClientWithConfig(cfg)}
}

func TestAnalyze(t *testing.T) {
	var body string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"output\":{\"sustainability_score\":\"Medium\"}}"}}]}`))
	})

	report, err := c.Analyze(context.Background(), analysis.DefaultRequest())
	gt.NoError(t, err)
	gt.Equal(t, report[0].Output.SustainabilityScore, "Medium")
	gt.S(t, body).Contains("Plastic-lined cardboard box")
	gt.S(t, body).Contains("gpt-4o-mini")
}

func TestAnalyzeRejected(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})

	_, err := c.Analyze(context.Background(), analysis.DefaultRequest())
	gt.True(t, errors.Is(err, analysis.ErrUpstreamStatus))
}

func TestAnalyzeNoChoices(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","choices":[]}`))
	})

	_, err := c.Analyze(context.Background(), analysis.DefaultRequest())
	gt.True(t, errors.Is(err, analysis.ErrMalformedResponse))
}
