package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/models"
	"golang.org/x/time/rate"
)

const systemInstruction = `You are an emotion scoring specialist for short financial social-media posts.

Task: Score the post on five emotions: Angry, Fear, Happy, Sad, Surprise.

Rules:
- Each score is a number between 0 and 1
- Scores describe the share of emotional signal, so they should sum to 1, or all be 0 when the post carries no emotion
- Use two decimal places
- Ignore ticker symbols and URLs

Output Format (JSON only, no markdown fences):
{"Angry": 0.0, "Fear": 0.0, "Happy": 0.0, "Sad": 0.0, "Surprise": 0.0}`

var fencePattern = regexp.MustCompile(`(?s)^\s*` + "```" + `(?:json|JSON)?\s*\n?(.*?)\n?\s*` + "```" + `\s*$`)

// completeFunc sends one post to a hosted model and returns its raw text reply
type completeFunc func(ctx context.Context, text string) (string, error)

// LLMExtractor scores text with a hosted model. Calls are paced by a limiter and
// each call is bounded by timeout.
type LLMExtractor struct {
	name     string
	complete completeFunc
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   arbor.ILogger
}

func newLLMExtractor(name string, complete completeFunc, spacing, timeout time.Duration, logger arbor.ILogger) *LLMExtractor {
	limit := rate.Inf
	if spacing > 0 {
		limit = rate.Every(spacing)
	}
	return &LLMExtractor{
		name:     name,
		complete: complete,
		limiter:  rate.NewLimiter(limit, 1),
		timeout:  timeout,
		logger:   logger,
	}
}

func (e *LLMExtractor) Name() string {
	return e.name
}

func (e *LLMExtractor) Extract(ctx context.Context, text string) (models.EmotionVector, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return models.NullEmotion(), fmt.Errorf("rate limiter wait failed: %w", err)
	}

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	response, err := e.complete(callCtx, text)
	if err != nil {
		return models.NullEmotion(), fmt.Errorf("%s completion failed: %w", e.name, err)
	}

	vector, err := parseScores(response)
	if err != nil {
		return models.NullEmotion(), fmt.Errorf("%s response unusable: %w (response: %s)", e.name, err, response)
	}

	e.logger.Debug().
		Str("extractor", e.name).
		Int("text_length", len(text)).
		Dur("duration", time.Since(start)).
		Msg("Emotion scored")

	return vector, nil
}

// parseScores decodes the five-score JSON object. Every emotion must be present
// and scores must lie in [0, 1].
func parseScores(response string) (models.EmotionVector, error) {
	response = strings.TrimSpace(response)
	if matches := fencePattern.FindStringSubmatch(response); len(matches) > 1 {
		response = strings.TrimSpace(matches[1])
	}

	var raw map[string]float64
	if err := json.Unmarshal([]byte(response), &raw); err != nil {
		return models.NullEmotion(), fmt.Errorf("failed to parse JSON: %w", err)
	}

	scores := make(map[string]float64, len(models.EmotionNames))
	for key, value := range raw {
		for _, name := range models.EmotionNames {
			if strings.EqualFold(key, name) {
				scores[name] = value
			}
		}
	}

	for _, name := range models.EmotionNames {
		score, ok := scores[name]
		if !ok {
			return models.NullEmotion(), fmt.Errorf("missing score for %s", name)
		}
		if score < 0 || score > 1 {
			return models.NullEmotion(), fmt.Errorf("score for %s out of range: %v", name, score)
		}
	}

	return models.EmotionVectorFromMap(scores), nil
}
