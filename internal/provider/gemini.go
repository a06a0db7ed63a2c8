// ABOUTME: Gemini backend using the google.golang.org/genai client
// ABOUTME: Typically configured as the fallback behind an OpenAI-compatible primary

package provider

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiConfig holds configuration for the Gemini backend.
type GeminiConfig struct {
	APIKey      string
	Model       string
	SystemText  string
	Temperature float64
}

// GeminiClient implements Provider using the Gemini API.
type GeminiClient struct {
	client *genai.Client
	cfg    GeminiConfig
}

// NewGeminiClient creates a Gemini provider.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiClient{client: client, cfg: cfg}, nil
}

// Generate sends the prompt and returns the text of the first candidate.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		return "", fmt.Errorf("maxTokens must be positive, got %d", maxTokens)
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		Temperature:     genai.Ptr(float32(c.cfg.Temperature)),
	}
	if c.cfg.SystemText != "" {
		config.SystemInstruction = genai.NewContentFromText(c.cfg.SystemText, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx,
		c.cfg.Model,
		genai.Text(prompt),
		config,
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("empty candidate returned")
	}
	return text, nil
}

// Name implements Provider.
func (c *GeminiClient) Name() string {
	return "gemini:" + c.cfg.Model
}
