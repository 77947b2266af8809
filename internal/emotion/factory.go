package emotion

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/common"
)

// New creates the extractor selected by config.Emotion.Provider
func New(ctx context.Context, config *common.Config, logger arbor.ILogger) (Extractor, error) {
	switch config.Emotion.Provider {
	case "", "lexicon":
		lex := DefaultLexicon()
		if config.Emotion.LexiconFile != "" {
			loaded, err := LoadLexiconFile(config.Emotion.LexiconFile)
			if err != nil {
				return nil, err
			}
			lex = loaded
		}
		logger.Debug().
			Int("terms", lex.Size()).
			Str("lexicon_file", config.Emotion.LexiconFile).
			Msg("Lexicon emotion extractor initialized")
		return NewLexiconExtractor(lex), nil
	case "gemini":
		return NewGeminiExtractor(ctx, &config.Gemini, logger)
	case "claude":
		return NewClaudeExtractor(&config.Claude, logger)
	default:
		return nil, fmt.Errorf("unknown emotion provider: %s", config.Emotion.Provider)
	}
}
