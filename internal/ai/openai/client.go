package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/toolbelt/plumbing-estimator/internal/logger"
)

const (
	// Provider is the name used for this backend in config and logs.
	Provider = "openai"

	defaultModel = "gpt-4"

	temperature = 0.1
	maxTokens   = 500
)

type completions interface {
	New(ctx context.Context, body sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error)
}

// Client sends chat completion requests that must be answered with a JSON object.
type Client struct {
	completions completions
	model       string
	logger      *zap.Logger
}

// NewClient creates a chat completions client. maxRetries is handed to the SDK,
// which retries connection errors, 408, 409, 429 and 5xx responses.
func NewClient(apiKey, model string, maxRetries int, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	client := sdk.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(maxRetries),
	)

	return &Client{
		completions: &client.Chat.Completions,
		model:       model,
		logger:      logger.WithProvider(log, Provider, model),
	}, nil
}

// GenerateContent returns the content of the first choice.
func (c *Client) GenerateContent(ctx context.Context, system, message string) (string, error) {
	if c == nil || c.completions == nil {
		return "", errors.New("openai client is not initialized")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	resp, err := c.completions.New(ctx, sdk.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.SystemMessage(system),
			sdk.UserMessage(message),
		},
		Temperature: sdk.Float(temperature),
		MaxTokens:   sdk.Int(maxTokens),
		ResponseFormat: sdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			c.logger.Debug("chat completion rejected", zap.Int("status", apiErr.StatusCode))
		}
		return "", fmt.Errorf("create chat completion: %w", err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("openai api returned no choices")
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "length" {
		c.logger.Warn("chat completion truncated by token limit", zap.Int("max_tokens", maxTokens))
	}

	output := strings.TrimSpace(choice.Message.Content)
	if output == "" {
		return "", errors.New("openai api returned empty response")
	}
	return output, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}
