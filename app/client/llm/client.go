package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"videoadguard/app/config"

	"github.com/avast/retry-go"
	"github.com/samber/do"
	"github.com/sashabaranov/go-openai"
)

// ErrNoAPIKey is returned when no chat completion key is configured. Callers
// surface it as a configuration problem rather than a detection failure.
var ErrNoAPIKey = errors.New("llm: api key is not configured")

type Client struct {
	cfg    *config.Config
	openai *openai.Client
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	clientConfig := openai.DefaultConfig(cfg.LLM.APIKey)
	clientConfig.BaseURL = cfg.LLM.BaseURL

	return &Client{
		cfg:    cfg,
		openai: openai.NewClientWithConfig(clientConfig),
	}, nil
}

// buildRequest assembles the chat completion request. JSON object output is
// enforced so downstream parsing never sees prose.
func buildRequest(cfg *config.Config, systemPrompt, userPrompt string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{ //nolint:exhaustruct
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{ //nolint:exhaustruct
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt}, //nolint:exhaustruct
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},     //nolint:exhaustruct
		},
	}
}

// Complete runs a single chat completion and returns the raw model output.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.cfg.LLM.APIKey == "" {
		return "", ErrNoAPIKey
	}

	request := buildRequest(c.cfg, systemPrompt, userPrompt)

	var content string

	err := retry.Do(func() error {
		response, err := c.openai.CreateChatCompletion(ctx, request)
		if err != nil {
			return fmt.Errorf("CreateChatCompletion: %w", err)
		}

		if len(response.Choices) == 0 {
			return fmt.Errorf("completion returned no choices")
		}

		content = response.Choices[0].Message.Content

		return nil
	},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.OnRetry(func(n uint, err error) {
			slog.WarnContext(ctx, "Chat completion failed, retrying",
				slog.Int("attempt", int(n)),
				slog.Any("error", err),
			)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("llm: %w", err)
	}

	return content, nil
}
