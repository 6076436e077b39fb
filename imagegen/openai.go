package imagegen

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the DALL-E generator.
type OpenAIConfig struct {
	APIKey string
	// BaseURL overrides the API endpoint (default https://api.openai.com/v1).
	BaseURL string
	// Model is the image model (default dall-e-2, which accepts 1024x1024 b64 output).
	Model string
	// HTTPClient is used for API calls when set.
	HTTPClient *http.Client
}

// OpenAI generates images with the OpenAI images API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI generator.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("imagegen: OpenAI API key is required")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	}
	model := cfg.Model
	if model == "" {
		model = openai.CreateImageModelDallE2
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

// Generate requests exactly one 1024x1024 image encoded as base64.
func (g *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          g.model,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", fmt.Errorf("imagegen: openai: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", &Error{Provider: "openai", Message: "no image data returned"}
	}
	return resp.Data[0].B64JSON, nil
}

// Model returns the configured image model name.
func (g *OpenAI) Model() string {
	return g.model
}

var _ Generator = (*OpenAI)(nil)
