package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSentiment(t *testing.T) {
	tests := []struct {
		in   string
		want Sentiment
	}{
		{"Bullish", SentimentBullish},
		{" bearish\n", SentimentBearish},
		{"BULLISH", SentimentBullish},
		{"", SentimentNone},
		{"Neutral", SentimentNone},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseSentiment(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want != SentimentNone, got.IsSet())
		})
	}
}

func TestEmotionVector_NullIsNotZero(t *testing.T) {
	null := NullEmotion()
	zero := NewEmotionVector(0, 0, 0, 0, 0)

	assert.True(t, null.IsNull())
	assert.False(t, null.Complete())
	assert.False(t, zero.IsNull())
	assert.True(t, zero.Complete())

	_, ok := null.Features()
	assert.False(t, ok)

	features, ok := zero.Features()
	assert.True(t, ok)
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, features)
}

func TestEmotionVectorFromMap_Partial(t *testing.T) {
	v := EmotionVectorFromMap(map[string]float64{EmotionHappy: 0.5, EmotionFear: 0.25})

	assert.False(t, v.Complete())
	assert.False(t, v.IsNull())
	assert.Nil(t, v.Angry)
	if assert.NotNil(t, v.Happy) {
		assert.Equal(t, 0.5, *v.Happy)
	}
}

func TestEmotionVector_FeatureOrder(t *testing.T) {
	v := NewEmotionVector(0.1, 0.2, 0.3, 0.4, 0.5)

	features, ok := v.Features()
	assert.True(t, ok)
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4, 0.5}, features)
}
