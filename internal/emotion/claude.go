package emotion

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/common"
)

// NewClaudeExtractor creates an extractor backed by the Anthropic Messages API
func NewClaudeExtractor(config *common.ClaudeConfig, logger arbor.ILogger) (*LLMExtractor, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required for the claude emotion provider (set via ANTHROPIC_API_KEY, MARKETMOOD_CLAUDE_API_KEY, or claude.api_key in config)")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 256
	}
	model := config.Model

	complete := func(ctx context.Context, text string) (string, error) {
		resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: int64(maxTokens),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
			},
			System: []anthropic.TextBlockParam{
				{Text: systemInstruction},
			},
			Temperature: anthropic.Float(0),
		})
		if err != nil {
			return "", fmt.Errorf("Claude API call failed (model: %s): %w", model, err)
		}

		var response strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				response.WriteString(block.Text)
			}
		}
		if response.Len() == 0 {
			return "", fmt.Errorf("no response generated from Claude API")
		}
		return response.String(), nil
	}

	logger.Debug().
		Str("model", model).
		Int("max_tokens", maxTokens).
		Dur("rate_limit", config.RateLimit).
		Msg("Claude emotion extractor initialized")

	return newLLMExtractor("claude", complete, config.RateLimit, config.Timeout, logger), nil
}
