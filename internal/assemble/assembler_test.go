package assemble

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/models"
	"github.com/ternarybob/marketmood/internal/timestamp"
)

type countingPredictor struct {
	calls  int
	answer models.Sentiment
	err    error
}

func (p *countingPredictor) Predict(v models.EmotionVector) (models.Sentiment, error) {
	if !v.Complete() {
		panic("predictor called with incomplete vector")
	}
	p.calls++
	return p.answer, p.err
}

// fixedExtractor scores every text as pure joy unless it mentions "fail"
type fixedExtractor struct{}

func (fixedExtractor) Name() string { return "fixed" }

func (fixedExtractor) Extract(ctx context.Context, text string) (models.EmotionVector, error) {
	if strings.Contains(text, "fail") {
		return models.NullEmotion(), errors.New("cannot score")
	}
	return models.NewEmotionVector(0, 0, 1, 0, 0), nil
}

var reference = time.Date(2022, time.July, 2, 15, 0, 0, 0, time.UTC)

func newAssembler(t *testing.T, predictor Predictor, impute bool) *Assembler {
	t.Helper()
	a, err := New(predictor, impute, timestamp.NewNormalizer(reference, ""), fixedExtractor{}, arbor.NewLogger())
	require.NoError(t, err)
	return a
}

// scenarioA has a stated post, an untagged post with a body and a post without a body
func scenarioA() []models.PostFields {
	return []models.PostFields{
		{
			Author:          models.StringPtr("alice"),
			RawTimestamp:    models.StringPtr("now"),
			Body:            models.StringPtr("ETH to the moon"),
			StatedSentiment: models.SentimentBullish,
			Engagement:      map[string]int{"Num_Reply": 2, "Num_Like": 5},
		},
		{
			Author:       models.StringPtr("bob"),
			RawTimestamp: models.StringPtr("12m"),
			Body:         models.StringPtr("great rally"),
			Engagement:   map[string]int{"Num_Reply": 0, "Num_Like": 0},
		},
		{
			Author:       models.StringPtr("carol"),
			RawTimestamp: models.StringPtr("3:45 PM"),
			Engagement:   map[string]int{"Num_Reply": 0, "Num_Like": 1},
		},
	}
}

func TestAssemblePosts_ScenarioA(t *testing.T) {
	predictor := &countingPredictor{answer: models.SentimentBearish}
	a := newAssembler(t, predictor, true)

	records, stats, err := a.AssemblePosts(context.Background(), scenarioA())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, models.SentimentBullish, records[0].Sentiment)
	assert.Equal(t, models.SourceStated, records[0].SentimentSource)
	assert.Equal(t, "07/02/2022, 15:00:00", models.StringValue(records[0].Timestamp))

	assert.Equal(t, models.SentimentBearish, records[1].Sentiment, "prediction is emitted as is")
	assert.Equal(t, models.SourceImputed, records[1].SentimentSource)
	assert.Equal(t, "07/02/2022, 14:48:00", models.StringValue(records[1].Timestamp))

	assert.Equal(t, models.SentimentNone, records[2].Sentiment)
	assert.True(t, records[2].Emotion.IsNull())
	assert.Equal(t, "07/02/2022, 15:45:00", models.StringValue(records[2].Timestamp))

	assert.Equal(t, 1, predictor.calls, "only the untagged post with a body is predicted")
	assert.Equal(t, Stats{Records: 3, Stated: 1, Imputed: 1, Unlabeled: 1, MissingBodies: 1}, stats)

	for i, r := range records {
		assert.Equal(t, scenarioA()[i].Author, r.Author, "input order preserved")
	}
}

func TestAssemblePosts_MissingAuthorAndTimestamp(t *testing.T) {
	a := newAssembler(t, &countingPredictor{answer: models.SentimentBullish}, true)

	fields := []models.PostFields{
		{RawTimestamp: models.StringPtr("now"), Body: models.StringPtr("anonymous"), Engagement: map[string]int{"Num_Reply": 1}},
		{Author: models.StringPtr("frank"), Body: models.StringPtr("undated"), StatedSentiment: models.SentimentBearish},
		{Author: models.StringPtr("gina"), RawTimestamp: models.StringPtr("sometime"), Body: models.StringPtr("vague")},
	}

	records, stats, err := a.AssemblePosts(context.Background(), fields)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Nil(t, records[0].Author)
	assert.Equal(t, "07/02/2022, 15:00:00", models.StringValue(records[0].Timestamp))
	assert.Equal(t, map[string]int{"Num_Reply": 1}, records[0].Engagement)

	assert.Equal(t, "frank", models.StringValue(records[1].Author))
	assert.Nil(t, records[1].Timestamp, "absent raw timestamp stays empty")
	assert.Equal(t, models.SentimentBearish, records[1].Sentiment)

	assert.Nil(t, records[2].Timestamp)
	assert.Equal(t, 2, stats.UnresolvedTimestamps, "absent and unparsable timestamps both count")
}

func TestAssemblePosts_ImputationDisabled(t *testing.T) {
	a := newAssembler(t, nil, false)

	records, stats, err := a.AssemblePosts(context.Background(), scenarioA())
	require.NoError(t, err)

	assert.Equal(t, models.SentimentBullish, records[0].Sentiment)
	assert.Equal(t, models.SentimentNone, records[1].Sentiment)
	assert.True(t, records[1].Emotion.Complete(), "emotion is still scored")
	assert.Equal(t, models.SentimentNone, records[2].Sentiment)
	assert.Equal(t, 0, stats.Imputed)
	assert.Equal(t, 2, stats.Unlabeled)
}

func TestAssemblePosts_ExtractorFailureLeavesSentimentEmpty(t *testing.T) {
	predictor := &countingPredictor{answer: models.SentimentBullish}
	a := newAssembler(t, predictor, true)

	records, _, err := a.AssemblePosts(context.Background(), []models.PostFields{
		{Body: models.StringPtr("this will fail"), RawTimestamp: models.StringPtr("yesterday")},
	})
	require.NoError(t, err)

	assert.True(t, records[0].Emotion.IsNull())
	assert.Equal(t, models.SentimentNone, records[0].Sentiment)
	assert.Nil(t, records[0].Timestamp)
	assert.Equal(t, 0, predictor.calls)
}

func TestAssemblePosts_PredictorFailureIsFatal(t *testing.T) {
	a := newAssembler(t, &countingPredictor{err: errors.New("model misuse")}, true)

	_, _, err := a.AssemblePosts(context.Background(), scenarioA())
	assert.Error(t, err)
}

func TestNew_RequiresPredictorWhenImputing(t *testing.T) {
	_, err := New(nil, true, timestamp.NewNormalizer(reference, ""), fixedExtractor{}, arbor.NewLogger())
	assert.True(t, errors.Is(err, ErrNoPredictor))
}

func TestResolve(t *testing.T) {
	complete := models.NewEmotionVector(0.2, 0.2, 0.2, 0.2, 0.2)
	partial := complete
	partial.Sad = nil

	tests := []struct {
		name       string
		impute     bool
		stated     models.Sentiment
		vector     models.EmotionVector
		want       models.Sentiment
		wantSource models.SentimentSource
		wantCalls  int
	}{
		{"stated bullish", true, models.SentimentBullish, complete, models.SentimentBullish, models.SourceStated, 0},
		{"stated bearish without emotion", true, models.SentimentBearish, models.NullEmotion(), models.SentimentBearish, models.SourceStated, 0},
		{"imputed", true, models.SentimentNone, complete, models.SentimentBullish, models.SourceImputed, 1},
		{"null emotion", true, models.SentimentNone, models.NullEmotion(), models.SentimentNone, models.SourceNone, 0},
		{"partial emotion", true, models.SentimentNone, partial, models.SentimentNone, models.SourceNone, 0},
		{"imputation disabled", false, models.SentimentNone, complete, models.SentimentNone, models.SourceNone, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			predictor := &countingPredictor{answer: models.SentimentBullish}
			a := newAssembler(t, predictor, tt.impute)

			got, source, err := a.Resolve(tt.stated, tt.vector)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantSource, source)
			assert.Equal(t, tt.wantCalls, predictor.calls)
		})
	}
}

func TestAssembleArticle(t *testing.T) {
	a := newAssembler(t, nil, false)
	var stats Stats

	record := a.AssembleArticle(0, models.ArticleFields{
		Title:        models.StringPtr("Bitcoin Slides Again"),
		Link:         models.StringPtr("https://www.wsj.com/articles/bitcoin"),
		RawTimestamp: models.StringPtr("July 1, 2022 6:30 PM ET"),
	}, nil, &stats)

	assert.Equal(t, "07/01/2022, 18:30:00", models.StringValue(record.Timestamp))
	assert.Nil(t, record.Content)
	assert.Nil(t, record.Authors)
	assert.Equal(t, Stats{Records: 1, MissingBodies: 1}, stats)
}
