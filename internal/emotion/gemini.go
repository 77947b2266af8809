package emotion

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/common"
	"google.golang.org/genai"
)

// NewGeminiExtractor creates an extractor backed by the Gemini API
func NewGeminiExtractor(ctx context.Context, config *common.GeminiConfig, logger arbor.ILogger) (*LLMExtractor, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required for the gemini emotion provider (set via MARKETMOOD_GEMINI_API_KEY or gemini.api_key in config)")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	model := config.Model
	generateConfig := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(0.0)),
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}

	complete := func(ctx context.Context, text string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, []*genai.Content{
			genai.NewContentFromText(text, genai.RoleUser),
		}, generateConfig)
		if err != nil {
			return "", fmt.Errorf("Gemini API call failed (model: %s): %w", model, err)
		}
		response := resp.Text()
		if response == "" {
			return "", fmt.Errorf("no response from Gemini API")
		}
		return response, nil
	}

	logger.Debug().
		Str("model", model).
		Dur("rate_limit", config.RateLimit).
		Msg("Gemini emotion extractor initialized")

	return newLLMExtractor("gemini", complete, config.RateLimit, config.Timeout, logger), nil
}
