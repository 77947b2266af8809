// Package emotion scores free text on the five emotion axes used as classifier
// features: Angry, Fear, Happy, Sad and Surprise.
package emotion

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/models"
)

// Extractor scores a single text. Implementations may fail; callers that must not
// fail go through Safe.
type Extractor interface {
	Extract(ctx context.Context, text string) (models.EmotionVector, error)
	Name() string
}

// Safe returns the emotion vector for body. Nil or blank text is never passed to the
// extractor. Any error or panic raised by the extractor yields NullEmotion.
func Safe(ctx context.Context, ex Extractor, body *string, logger arbor.ILogger) (vector models.EmotionVector) {
	if ex == nil || body == nil || strings.TrimSpace(*body) == "" {
		return models.NullEmotion()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Warn().
				Str("extractor", ex.Name()).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", string(debug.Stack())).
				Msg("Emotion extractor panicked, using null emotion")
			vector = models.NullEmotion()
		}
	}()

	v, err := ex.Extract(ctx, *body)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("extractor", ex.Name()).
			Int("text_length", len(*body)).
			Msg("Emotion extraction failed, using null emotion")
		return models.NullEmotion()
	}
	return v
}
