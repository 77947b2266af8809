// Package assemble merges extracted fields, normalized timestamps, emotion scores
// and sentiment into output records.
package assemble

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/emotion"
	"github.com/ternarybob/marketmood/internal/models"
	"github.com/ternarybob/marketmood/internal/timestamp"
)

// ErrNoPredictor is returned by New when imputation is enabled without a predictor
var ErrNoPredictor = errors.New("imputation enabled but no predictor configured")

// Predictor maps a complete emotion vector to a sentiment
type Predictor interface {
	Predict(v models.EmotionVector) (models.Sentiment, error)
}

// Stats counts how each record was resolved
type Stats struct {
	Records              int
	Stated               int
	Imputed              int
	Unlabeled            int
	UnresolvedTimestamps int
	MissingBodies        int
}

// Assembler applies the sentiment policy and shapes records in input order
type Assembler struct {
	predictor  Predictor
	impute     bool
	normalizer *timestamp.Normalizer
	extractor  emotion.Extractor
	logger     arbor.ILogger
}

// New creates an assembler. predictor may be nil only when impute is false.
func New(predictor Predictor, impute bool, normalizer *timestamp.Normalizer, extractor emotion.Extractor, logger arbor.ILogger) (*Assembler, error) {
	if impute && predictor == nil {
		return nil, ErrNoPredictor
	}
	if normalizer == nil {
		return nil, fmt.Errorf("assembler requires a timestamp normalizer")
	}
	return &Assembler{
		predictor:  predictor,
		impute:     impute,
		normalizer: normalizer,
		extractor:  extractor,
		logger:     logger,
	}, nil
}

// Resolve decides the sentiment of one record. A stated sentiment is returned
// verbatim without consulting the predictor. A missing one is predicted only when
// imputation is enabled and the emotion vector is complete; otherwise it stays
// absent. A predictor error is returned unchanged.
func (a *Assembler) Resolve(stated models.Sentiment, vector models.EmotionVector) (models.Sentiment, models.SentimentSource, error) {
	if stated.IsSet() {
		return stated, models.SourceStated, nil
	}
	if !a.impute || !vector.Complete() {
		return models.SentimentNone, models.SourceNone, nil
	}

	predicted, err := a.predictor.Predict(vector)
	if err != nil {
		return models.SentimentNone, models.SourceNone, err
	}
	return predicted, models.SourceImputed, nil
}

// AssemblePosts builds one record per fields entry, in order. Only a predictor
// failure aborts; every other problem degrades a single field.
func (a *Assembler) AssemblePosts(ctx context.Context, fields []models.PostFields) ([]models.PostRecord, Stats, error) {
	stats := Stats{Records: len(fields)}
	records := make([]models.PostRecord, 0, len(fields))

	for i, f := range fields {
		record := models.PostRecord{
			Author:     f.Author,
			Body:       f.Body,
			Engagement: f.Engagement,
		}

		record.Timestamp = a.normalize(i, f.RawTimestamp, &stats)

		if f.Body == nil {
			stats.MissingBodies++
		}
		record.Emotion = emotion.Safe(ctx, a.extractor, f.Body, a.logger)

		sentiment, source, err := a.Resolve(f.StatedSentiment, record.Emotion)
		if err != nil {
			return nil, stats, fmt.Errorf("sentiment imputation failed for record %d: %w", i, err)
		}
		record.Sentiment = sentiment
		record.SentimentSource = source

		switch source {
		case models.SourceStated:
			stats.Stated++
		case models.SourceImputed:
			stats.Imputed++
		default:
			stats.Unlabeled++
		}

		records = append(records, record)
	}

	a.logger.Debug().
		Int("records", stats.Records).
		Int("stated", stats.Stated).
		Int("imputed", stats.Imputed).
		Int("unlabeled", stats.Unlabeled).
		Int("unresolved_timestamps", stats.UnresolvedTimestamps).
		Msg("Post records assembled")

	return records, stats, nil
}

// AssembleArticle builds an article record from listing fields and a body
func (a *Assembler) AssembleArticle(index int, fields models.ArticleFields, body *string, stats *Stats) models.ArticleRecord {
	stats.Records++
	if body == nil {
		stats.MissingBodies++
	}
	return models.ArticleRecord{
		Title:     fields.Title,
		Link:      fields.Link,
		Authors:   fields.Authors,
		Timestamp: a.normalize(index, fields.RawTimestamp, stats),
		Content:   body,
	}
}

func (a *Assembler) normalize(index int, raw *string, stats *Stats) *string {
	if raw == nil {
		stats.UnresolvedTimestamps++
		return nil
	}
	canonical, err := a.normalizer.Normalize(*raw)
	if err != nil {
		stats.UnresolvedTimestamps++
		a.logger.Debug().Err(err).Int("record", index).Msg("Timestamp left empty")
		return nil
	}
	return &canonical
}
