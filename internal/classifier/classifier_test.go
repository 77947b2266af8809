package classifier

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/models"
	"github.com/ternarybob/marketmood/internal/textenc"
)

// separableRows returns n bullish rows dominated by Happy and n bearish rows that
// mirror them with Fear, so Happy > Fear is an exact decision rule.
func separableRows(n int) []TrainingRow {
	rows := make([]TrainingRow, 0, 2*n)
	for i := 0; i < n; i++ {
		high := 0.6 + 0.03*float64(i%5)
		low := 0.05 + 0.01*float64(i%3)
		rest := (1 - high - low) / 3
		rows = append(rows,
			TrainingRow{Emotion: models.NewEmotionVector(rest, low, high, rest, rest), Label: models.SentimentBullish},
			TrainingRow{Emotion: models.NewEmotionVector(rest, high, low, rest, rest), Label: models.SentimentBearish},
		)
	}
	return rows
}

func TestTrain_EmptyTrainingSet(t *testing.T) {
	_, err := Train(nil, DefaultOptions(), arbor.NewLogger())
	assert.True(t, errors.Is(err, ErrEmptyTrainingSet))
}

func TestTrain_SingleClass(t *testing.T) {
	rows := []TrainingRow{
		{Emotion: models.NewEmotionVector(0, 0, 1, 0, 0), Label: models.SentimentBullish},
		{Emotion: models.NewEmotionVector(0, 0.5, 0.5, 0, 0), Label: models.SentimentBullish},
	}
	_, err := Train(rows, DefaultOptions(), arbor.NewLogger())
	assert.True(t, errors.Is(err, ErrSingleClass))
}

func TestTrain_RejectsIncompleteRow(t *testing.T) {
	rows := separableRows(5)
	rows[3].Emotion.Sad = nil
	_, err := Train(rows, DefaultOptions(), arbor.NewLogger())
	assert.True(t, errors.Is(err, ErrIncompleteVector))
}

func TestTrain_SeparableCorpus(t *testing.T) {
	rows := separableRows(10)

	model, err := Train(rows, DefaultOptions(), arbor.NewLogger())
	require.NoError(t, err)

	assert.Equal(t, 1.0, model.Score())
	assert.Equal(t, 4, model.ScoredRows(), "floor(0.25*10) per class")
	assert.Equal(t, 16, model.TrainedRows())
	assert.Equal(t, 20, model.FittedRows(), "prediction parameters come from every row")

	for i, row := range rows {
		got, err := model.Predict(row.Emotion)
		require.NoError(t, err)
		assert.Equal(t, row.Label, got, "row %d", i)
	}

	// Unseen vectors follow the same rule
	got, err := model.Predict(models.NewEmotionVector(0.1, 0.1, 0.7, 0.05, 0.05))
	require.NoError(t, err)
	assert.Equal(t, models.SentimentBullish, got)

	got, err = model.Predict(models.NewEmotionVector(0.1, 0.7, 0.1, 0.05, 0.05))
	require.NoError(t, err)
	assert.Equal(t, models.SentimentBearish, got)

	coefficients := model.Coefficients()
	assert.Greater(t, coefficients[models.EmotionHappy], 0.0)
	assert.Less(t, coefficients[models.EmotionFear], 0.0)
}

func TestTrain_IsDeterministicForSeed(t *testing.T) {
	rows := separableRows(12)

	first, err := Train(rows, DefaultOptions(), arbor.NewLogger())
	require.NoError(t, err)
	second, err := Train(rows, DefaultOptions(), arbor.NewLogger())
	require.NoError(t, err)

	assert.Equal(t, first.Score(), second.Score())
	assert.Equal(t, first.Coefficients(), second.Coefficients())
}

func TestTrain_TinyCorpusScoresOnEverything(t *testing.T) {
	rows := separableRows(1)

	model, err := Train(rows, DefaultOptions(), arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, model.ScoredRows())
	assert.Equal(t, 2, model.TrainedRows())
	assert.Equal(t, 2, model.FittedRows())
}

func TestModel_IncompleteVectorIsMisuse(t *testing.T) {
	model, err := Train(separableRows(4), DefaultOptions(), arbor.NewLogger())
	require.NoError(t, err)

	_, err = model.Predict(models.NullEmotion())
	assert.True(t, errors.Is(err, ErrIncompleteVector))

	partial := models.NewEmotionVector(0.2, 0.2, 0.2, 0.2, 0.2)
	partial.Surprise = nil
	_, err = model.Probability(partial)
	assert.True(t, errors.Is(err, ErrIncompleteVector))
}

func TestStratifiedSplit(t *testing.T) {
	labels := []float64{1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0}

	train, test := stratifiedSplit(labels, 0.25, 7)
	assert.Len(t, test, 3) // floor(2) + floor(1)
	assert.Len(t, train, 9)

	heldBullish := 0
	for _, i := range test {
		if labels[i] == 1 {
			heldBullish++
		}
	}
	assert.Equal(t, 2, heldBullish)

	again, againTest := stratifiedSplit(labels, 0.25, 7)
	assert.Equal(t, train, again)
	assert.Equal(t, test, againTest)
}

const corpusTSV = "User_Name\tTime_Stamp\tContent\tSentiment\tAngry\tFear\tHappy\tSad\tSurprise\tNum_Reply\tNum_Like\r\n" +
	"alice\t07/02/2022, 15:00:00\tmoon\tBullish\t0\t0\t1\t0\t0\t1\t3\r\n" +
	"bob\t07/02/2022, 14:48:00\tdump\tbearish\t0\t1\t0\t0\t0\t0\t0\r\n" +
	"carol\t07/02/2022, 14:40:00\tno tag\t\t0.2\t0.2\t0.2\t0.2\t0.2\t0\t0\r\n" +
	"dave\t07/02/2022, 14:30:00\tno body\tBullish\t\t\t\t\t\t0\t0\r\n" +
	"erin\t07/02/2022, 14:20:00\tbad cell\tBearish\t0.1\tlots\t0.1\t0.1\t0.1\t0\t0\r\n"

func TestLoadCorpus_FiltersRows(t *testing.T) {
	rows, stats, err := LoadCorpus(strings.NewReader(corpusTSV))
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Rows)
	assert.Equal(t, 2, stats.Kept)
	assert.Equal(t, 1, stats.Unlabeled)
	assert.Equal(t, 2, stats.Incomplete)

	require.Len(t, rows, 2)
	assert.Equal(t, models.SentimentBullish, rows[0].Label)
	assert.Equal(t, models.SentimentBearish, rows[1].Label)
	assert.Equal(t, 1.0, *rows[0].Emotion.Happy)
	assert.Equal(t, 1.0, *rows[1].Emotion.Fear)
}

func TestLoadCorpus_DropsOutOfRangeScores(t *testing.T) {
	corpus := "Angry\tFear\tHappy\tSad\tSurprise\tSentiment\n" +
		"-5\t0\t1\t0\t0\tBullish\n" +
		"0\t0\t1\t-0.01\t0\tBullish\n" +
		"0\tNaN\t0\t0\t0\tBearish\n" +
		"0\t0\tInf\t0\t0\tBullish\n" +
		"0\t1\t0\t0\t0\tBearish\n"

	rows, stats, err := LoadCorpus(strings.NewReader(corpus))
	require.NoError(t, err)

	assert.Equal(t, CorpusStats{Rows: 5, Kept: 1, Incomplete: 4}, stats)
	require.Len(t, rows, 1)
	assert.Equal(t, models.SentimentBearish, rows[0].Label)
}

func TestLoadCorpus_UTF16(t *testing.T) {
	var buf bytes.Buffer
	w, err := textenc.NewWriter(&buf, textenc.UTF16)
	require.NoError(t, err)
	_, err = io.WriteString(w, corpusTSV)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	rows, stats, err := LoadCorpus(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Kept)
	assert.Len(t, rows, 2)
}

func TestLoadCorpus_MissingColumn(t *testing.T) {
	_, _, err := LoadCorpus(strings.NewReader("Angry\tFear\tHappy\tSad\tSentiment\r\n0\t0\t1\t0\tBullish\r\n"))
	assert.True(t, errors.Is(err, ErrCorpusHeader))

	_, _, err = LoadCorpus(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrCorpusHeader))
}
