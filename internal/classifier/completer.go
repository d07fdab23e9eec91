package classifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v5"
	openai "github.com/sashabaranov/go-openai"

	"github.com/teemow/applytrack/internal/jobs"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "gpt-4o-mini"

// Completer sends a single-turn prompt to a language model and returns its
// text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAIConfig configures OpenAICompleter.
type OpenAIConfig struct {
	APIKey string
	// BaseURL overrides the API endpoint (for Azure or compatible gateways).
	BaseURL string
	Model   string
}

// OpenAICompleter implements Completer with the OpenAI chat completions API.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter returns a completer for cfg.
func NewOpenAICompleter(cfg OpenAIConfig) (*OpenAICompleter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is not set", jobs.ErrAuth)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAICompleter{client: openai.NewClientWithConfig(clientCfg), model: model}, nil
}

// Model returns the configured model name.
func (c *OpenAICompleter) Model() string {
	return c.model
}

// Complete implements Completer. Client errors that retrying cannot fix
// (bad request, bad credentials) are marked permanent for backoff.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func classifyOpenAIError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return backoff.Permanent(fmt.Errorf("%w: %w", jobs.ErrAuth, err))
	case status == http.StatusBadRequest || status == http.StatusNotFound:
		return backoff.Permanent(err)
	default:
		return err
	}
}
