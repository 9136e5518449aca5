// Package gemini implements llm.Provider for Google Gemini.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"staticnews/pkg/config"
)

// Client implements llm.Provider for Google Gemini.
type Client struct {
	genaiClient *genai.Client
	modelName   string
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, cfg config.ProviderConfig) (*Client, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("gemini api key not configured")
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.Key})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{genaiClient: client, modelName: modelName}, nil
}

// Name implements llm.Provider.
func (c *Client) Name() string {
	return "gemini"
}

// GenerateText implements llm.Provider.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate text error: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return "", err
	}
	return text, nil
}

// HealthCheck verifies the configured model exists.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.genaiClient.Models.Get(ctx, c.modelName, nil); err != nil {
		return fmt.Errorf("gemini model %q unavailable: %w", c.modelName, err)
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response")
	}
	return sb.String(), nil
}
