// Package openai implements llm.Provider for the OpenAI chat API.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"staticnews/pkg/config"
)

const systemPrompt = "You are a broadcast script writer. Reply with the on-air script only."

// Client implements llm.Provider for OpenAI.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a new OpenAI client.
func NewClient(cfg config.ProviderConfig) (*Client, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("openai api key not configured")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	client := openai.NewClient(option.WithAPIKey(cfg.Key))
	return &Client{client: &client, model: model}, nil
}

// Name implements llm.Provider.
func (c *Client) Name() string {
	return "openai"
}

// GenerateText implements llm.Provider.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(systemPrompt),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(prompt),
					},
				},
			},
		},
		Temperature: openai.Float(0.8),
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return response.Choices[0].Message.Content, nil
}

// HealthCheck verifies credentials with a minimal models call.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.client.Models.Get(ctx, c.model); err != nil {
		return fmt.Errorf("openai model %q unavailable: %w", c.model, err)
	}
	return nil
}
