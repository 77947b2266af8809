// Package classifier learns the mapping from emotion vectors to stated market
// sentiment and predicts sentiment for posts that carry no tag.
package classifier

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/models"
)

// TrainingRow is one labeled example. Emotion must be complete and Label set.
type TrainingRow struct {
	Emotion models.EmotionVector
	Label   models.Sentiment
}

// Options controls fitting
type Options struct {
	TestFraction   float64 // Share of each class held out for scoring
	Regularization float64 // Inverse L2 strength (C)
	MaxIterations  int
	Tolerance      float64 // Gradient norm at which fitting stops
	Seed           uint64  // Seed for the held-out split
}

// DefaultOptions returns a 25% held-out share, C = 1, 300 iterations and tolerance 1e-4
func DefaultOptions() Options {
	return Options{
		TestFraction:   0.25,
		Regularization: 1.0,
		MaxIterations:  300,
		Tolerance:      1e-4,
		Seed:           42,
	}
}

// Model is an immutable fitted classifier. The reported Score is the accuracy of a
// fit on the training share measured on the held-out share, while the parameters
// used for prediction come from a second fit on every row.
type Model struct {
	weights     []float64
	intercept   float64
	score       float64
	trainedRows int
	scoredRows  int
	fittedRows  int
}

// Train fits a model on rows. It fails with ErrEmptyTrainingSet when rows is empty and
// ErrSingleClass when only one label is present.
func Train(rows []TrainingRow, opts Options, logger arbor.ILogger) (*Model, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyTrainingSet
	}

	features := make([][]float64, len(rows))
	labels := make([]float64, len(rows))
	bullish := 0
	for i, row := range rows {
		f, ok := row.Emotion.Features()
		if !ok {
			return nil, fmt.Errorf("training row %d: %w", i, ErrIncompleteVector)
		}
		switch row.Label {
		case models.SentimentBullish:
			labels[i] = 1
			bullish++
		case models.SentimentBearish:
			labels[i] = 0
		default:
			return nil, fmt.Errorf("training row %d: label %q is not a sentiment", i, row.Label)
		}
		features[i] = f
	}
	if bullish == 0 || bullish == len(rows) {
		return nil, fmt.Errorf("%w: %d rows, %d bullish", ErrSingleClass, len(rows), bullish)
	}

	start := time.Now()
	trainIdx, testIdx := stratifiedSplit(labels, opts.TestFraction, opts.Seed)

	scoreIdx := testIdx
	if len(testIdx) == 0 {
		logger.Warn().
			Int("rows", len(rows)).
			Float64("test_fraction", opts.TestFraction).
			Msg("Corpus too small to hold out rows, scoring on the full corpus")
		trainIdx = allIndices(len(rows))
		scoreIdx = trainIdx
	}

	partial, err := fitLogistic(pick(features, trainIdx), pickLabels(labels, trainIdx), opts.Regularization, opts.MaxIterations, opts.Tolerance)
	if err != nil {
		return nil, fmt.Errorf("fit on training share failed: %w", err)
	}
	logFitWarning(logger, "training share", partial)

	scoring := &Model{weights: partial.weights, intercept: partial.intercept}
	correct := 0
	for _, i := range scoreIdx {
		if (scoring.probability(features[i]) >= 0.5) == (labels[i] == 1) {
			correct++
		}
	}

	full, err := fitLogistic(features, labels, opts.Regularization, opts.MaxIterations, opts.Tolerance)
	if err != nil {
		return nil, fmt.Errorf("fit on full corpus failed: %w", err)
	}
	logFitWarning(logger, "full corpus", full)

	model := &Model{
		weights:     full.weights,
		intercept:   full.intercept,
		score:       float64(correct) / float64(len(scoreIdx)),
		trainedRows: len(trainIdx),
		scoredRows:  len(scoreIdx),
		fittedRows:  len(rows),
	}

	logger.Info().
		Int("rows", len(rows)).
		Int("bullish", bullish).
		Int("trained_rows", model.trainedRows).
		Int("scored_rows", model.scoredRows).
		Int("fitted_rows", model.fittedRows).
		Float64("score", model.score).
		Dur("duration", time.Since(start)).
		Msg("Sentiment classifier trained")

	return model, nil
}

func logFitWarning(logger arbor.ILogger, stage string, fit *fitResult) {
	if fit.warning == nil {
		return
	}
	logger.Warn().
		Err(fit.warning).
		Str("stage", stage).
		Str("status", fit.status.String()).
		Msg("Optimizer stopped early, using best parameters found")
}

// Predict returns Bullish when the probability of Bullish is at least 0.5
func (m *Model) Predict(v models.EmotionVector) (models.Sentiment, error) {
	p, err := m.Probability(v)
	if err != nil {
		return models.SentimentNone, err
	}
	if p >= 0.5 {
		return models.SentimentBullish, nil
	}
	return models.SentimentBearish, nil
}

// Probability returns the probability that v belongs to a Bullish post
func (m *Model) Probability(v models.EmotionVector) (float64, error) {
	features, ok := v.Features()
	if !ok {
		return 0, ErrIncompleteVector
	}
	return m.probability(features), nil
}

func (m *Model) probability(features []float64) float64 {
	return sigmoid(dot(m.weights, features) + m.intercept)
}

// Score returns the held-out accuracy in [0, 1]
func (m *Model) Score() float64 {
	return m.score
}

// TrainedRows returns the number of rows in the scored fit's training share
func (m *Model) TrainedRows() int {
	return m.trainedRows
}

// FittedRows returns the number of rows behind the parameters used for prediction
func (m *Model) FittedRows() int {
	return m.fittedRows
}

// ScoredRows returns the number of rows the score was measured on
func (m *Model) ScoredRows() int {
	return m.scoredRows
}

// Coefficients returns the weight of each emotion plus the intercept under "Intercept"
func (m *Model) Coefficients() map[string]float64 {
	out := make(map[string]float64, len(m.weights)+1)
	for i, name := range models.EmotionNames {
		out[name] = m.weights[i]
	}
	out["Intercept"] = m.intercept
	return out
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func pick(features [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for k, i := range idx {
		out[k] = features[i]
	}
	return out
}

func pickLabels(labels []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = labels[i]
	}
	return out
}
