package emotion

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/common"
	"github.com/ternarybob/marketmood/internal/models"
)

type countingExtractor struct {
	calls  int
	vector models.EmotionVector
	err    error
	panics bool
}

func (c *countingExtractor) Name() string { return "counting" }

func (c *countingExtractor) Extract(ctx context.Context, text string) (models.EmotionVector, error) {
	c.calls++
	if c.panics {
		panic("boom")
	}
	return c.vector, c.err
}

func TestSafe(t *testing.T) {
	logger := arbor.NewLogger()
	ctx := context.Background()
	scored := models.NewEmotionVector(0.1, 0.2, 0.3, 0.2, 0.2)
	body := "ETH to the moon"
	blank := "   "

	t.Run("nil body skips extractor", func(t *testing.T) {
		ex := &countingExtractor{vector: scored}
		got := Safe(ctx, ex, nil, logger)
		assert.True(t, got.IsNull())
		assert.Equal(t, 0, ex.calls)
	})

	t.Run("blank body skips extractor", func(t *testing.T) {
		ex := &countingExtractor{vector: scored}
		got := Safe(ctx, ex, &blank, logger)
		assert.True(t, got.IsNull())
		assert.Equal(t, 0, ex.calls)
	})

	t.Run("scored body", func(t *testing.T) {
		ex := &countingExtractor{vector: scored}
		got := Safe(ctx, ex, &body, logger)
		assert.Equal(t, scored, got)
		assert.Equal(t, 1, ex.calls)
	})

	t.Run("error becomes null emotion", func(t *testing.T) {
		ex := &countingExtractor{vector: scored, err: errors.New("quota exceeded")}
		got := Safe(ctx, ex, &body, logger)
		assert.True(t, got.IsNull())
	})

	t.Run("panic becomes null emotion", func(t *testing.T) {
		ex := &countingExtractor{panics: true}
		got := Safe(ctx, ex, &body, logger)
		assert.True(t, got.IsNull())
	})
}

func TestLexiconExtractor(t *testing.T) {
	ex := NewLexiconExtractor(nil)
	ctx := context.Background()

	t.Run("no hits gives zero vector not null", func(t *testing.T) {
		got, err := ex.Extract(ctx, "the quarterly filing was published")
		require.NoError(t, err)
		assert.True(t, got.Complete())
		features, ok := got.Features()
		require.True(t, ok)
		assert.Equal(t, []float64{0, 0, 0, 0, 0}, features)
	})

	t.Run("single emotion", func(t *testing.T) {
		got, err := ex.Extract(ctx, "So HAPPY with this rally 🚀")
		require.NoError(t, err)
		require.True(t, got.Complete())
		assert.Equal(t, 1.0, *got.Happy)
		assert.Equal(t, 0.0, *got.Fear)
	})

	t.Run("mixed emotions are proportions", func(t *testing.T) {
		got, err := ex.Extract(ctx, "scared of the crash but happy")
		require.NoError(t, err)
		require.True(t, got.Complete())
		assert.Equal(t, 0.67, *got.Fear)
		assert.Equal(t, 0.33, *got.Happy)
	})

	t.Run("suffix stripped", func(t *testing.T) {
		got, err := ex.Extract(ctx, "pumping")
		require.NoError(t, err)
		assert.Equal(t, 1.0, *got.Happy)
	})
}

func TestLoadLexicon(t *testing.T) {
	t.Run("custom lexicon", func(t *testing.T) {
		lex, err := LoadLexicon(strings.NewReader("Angry: [grr]\nsad: [meh]\n"))
		require.NoError(t, err)
		assert.Equal(t, 2, lex.Size())

		got, err := NewLexiconExtractor(lex).Extract(context.Background(), "grr grr meh")
		require.NoError(t, err)
		assert.Equal(t, 0.67, *got.Angry)
		assert.Equal(t, 0.33, *got.Sad)
	})

	t.Run("unknown emotion", func(t *testing.T) {
		_, err := LoadLexicon(strings.NewReader("disgust: [ew]\n"))
		assert.Error(t, err)
	})

	t.Run("empty lexicon", func(t *testing.T) {
		_, err := LoadLexicon(strings.NewReader("angry: []\n"))
		assert.Error(t, err)
	})

	t.Run("embedded lexicon loads", func(t *testing.T) {
		assert.Greater(t, DefaultLexicon().Size(), 50)
	})
}

func TestParseScores(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantErr  bool
	}{
		{"plain json", `{"Angry": 0.1, "Fear": 0.2, "Happy": 0.5, "Sad": 0.1, "Surprise": 0.1}`, false},
		{"lowercase keys", `{"angry": 0, "fear": 0, "happy": 0, "sad": 0, "surprise": 0}`, false},
		{"fenced", "```json\n{\"Angry\": 0.1, \"Fear\": 0.2, \"Happy\": 0.5, \"Sad\": 0.1, \"Surprise\": 0.1}\n```", false},
		{"missing emotion", `{"Angry": 0.1, "Fear": 0.2, "Happy": 0.5, "Sad": 0.2}`, true},
		{"negative score", `{"Angry": -0.1, "Fear": 0.2, "Happy": 0.5, "Sad": 0.2, "Surprise": 0.2}`, true},
		{"not json", `Happy mostly`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseScores(tt.response)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, got.IsNull())
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Complete())
		})
	}
}

func TestLLMExtractor(t *testing.T) {
	logger := arbor.NewLogger()

	t.Run("parses completion", func(t *testing.T) {
		var seen string
		complete := func(ctx context.Context, text string) (string, error) {
			seen = text
			return `{"Angry": 0, "Fear": 0, "Happy": 1, "Sad": 0, "Surprise": 0}`, nil
		}
		ex := newLLMExtractor("fake", complete, 0, time.Second, logger)

		got, err := ex.Extract(context.Background(), "ETH 🚀")
		require.NoError(t, err)
		assert.Equal(t, "ETH 🚀", seen)
		assert.Equal(t, 1.0, *got.Happy)
		assert.Equal(t, "fake", ex.Name())
	})

	t.Run("completion error", func(t *testing.T) {
		complete := func(ctx context.Context, text string) (string, error) {
			return "", errors.New("unavailable")
		}
		ex := newLLMExtractor("fake", complete, 0, 0, logger)

		got, err := ex.Extract(context.Background(), "text")
		assert.Error(t, err)
		assert.True(t, got.IsNull())
	})

	t.Run("cancelled context stops at limiter", func(t *testing.T) {
		calls := 0
		complete := func(ctx context.Context, text string) (string, error) {
			calls++
			return `{"Angry": 0, "Fear": 0, "Happy": 0, "Sad": 0, "Surprise": 0}`, nil
		}
		ex := newLLMExtractor("fake", complete, time.Hour, 0, logger)

		_, err := ex.Extract(context.Background(), "first")
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = ex.Extract(ctx, "second")
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestNew(t *testing.T) {
	logger := arbor.NewLogger()
	ctx := context.Background()

	config := common.NewDefaultConfig()
	ex, err := New(ctx, config, logger)
	require.NoError(t, err)
	assert.Equal(t, "lexicon", ex.Name())

	config.Emotion.Provider = "claude"
	config.Claude.APIKey = ""
	_, err = New(ctx, config, logger)
	assert.Error(t, err)

	config.Emotion.Provider = "gemini"
	config.Gemini.APIKey = ""
	_, err = New(ctx, config, logger)
	assert.Error(t, err)

	config.Emotion.Provider = "vader"
	_, err = New(ctx, config, logger)
	assert.Error(t, err)
}
