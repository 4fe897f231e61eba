package openai

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	"github.com/bryanwahyu/greenscan/internal/domain/analysis"
	"github.com/bryanwahyu/greenscan/internal/infra/ai/prompt"
)

const (
	maxTokens    = 2048
	defaultModel = "gpt-4o-mini"
)

// Client analyses products with a chat completion instead of the webhook
type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

func (c *Client) Analyze(ctx context.Context, req analysis.Request) (analysis.Report, error) {
	model := c.Model
	if model == "" {
		model = defaultModel
	}
	creq := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(req)},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		creq.MaxCompletionTokens = maxTokens
	} else {
		creq.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, creq)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, goerr.Wrap(analysis.ErrUpstreamStatus, "chat completion rejected",
				goerr.V("status", apiErr.HTTPStatusCode), goerr.V("message", apiErr.Message))
		}
		return nil, goerr.Wrap(errors.Join(analysis.ErrTransport, err), "failed to create chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, goerr.Wrap(analysis.ErrMalformedResponse, "chat completion has no choices")
	}

	return ParseContent(resp.Choices[0].Message.Content)
}

// ParseContent accepts {"output": {...}} or a bare result object
func ParseContent(content string) (analysis.Report, error) {
	content = strings.TrimSpace(content)
	if gjson.Valid(content) {
		res := gjson.Parse(content)
		if res.IsObject() && !res.Get("output").Exists() {
			content = `{"output":` + content + `}`
		}
	}
	return analysis.ParseReport([]byte(content))
}
