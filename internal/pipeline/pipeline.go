// Package pipeline runs the batch passes: parse a document, assemble records,
// impute missing sentiment and write the tables and run report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/classifier"
	"github.com/ternarybob/marketmood/internal/common"
	"github.com/ternarybob/marketmood/internal/emotion"
	"github.com/ternarybob/marketmood/internal/extract"
	"github.com/ternarybob/marketmood/internal/interfaces"
	"github.com/ternarybob/marketmood/internal/models"
	"github.com/ternarybob/marketmood/internal/sink"
)

var unsafeLabel = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Pipeline holds the collaborators shared by every run
type Pipeline struct {
	config    *common.Config
	runs      interfaces.RunStorage // Optional; runs are not recorded when nil
	extractor emotion.Extractor
	profiles  extract.Profiles
	logger    arbor.ILogger
	now       func() time.Time
}

// New creates a pipeline. runs may be nil.
func New(config *common.Config, runs interfaces.RunStorage, extractor emotion.Extractor, profiles extract.Profiles, logger arbor.ILogger) *Pipeline {
	return &Pipeline{
		config:    config,
		runs:      runs,
		extractor: extractor,
		profiles:  profiles,
		logger:    logger,
		now:       time.Now,
	}
}

// TrainModel loads the configured corpus and fits the sentiment classifier
func (p *Pipeline) TrainModel(ctx context.Context) (*classifier.Model, classifier.CorpusStats, error) {
	cfg := p.config.Imputation

	rows, stats, err := classifier.LoadCorpusFile(cfg.CorpusPath)
	if err != nil {
		return nil, stats, err
	}

	p.logger.Info().
		Str("corpus", cfg.CorpusPath).
		Int("rows", stats.Rows).
		Int("kept", stats.Kept).
		Int("unlabeled", stats.Unlabeled).
		Int("incomplete", stats.Incomplete).
		Msg("Training corpus loaded")

	model, err := classifier.Train(rows, classifier.Options{
		TestFraction:   cfg.TestFraction,
		Regularization: cfg.Regularization,
		MaxIterations:  cfg.MaxIterations,
		Tolerance:      cfg.Tolerance,
		Seed:           cfg.Seed,
	}, p.logger)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to train classifier on %s: %w", cfg.CorpusPath, err)
	}
	return model, stats, nil
}

func (p *Pipeline) sinkOptions(counters []string) sink.Options {
	return sink.Options{
		Encoding:          p.config.Output.Encoding,
		Counters:          counters,
		IncludeProvenance: p.config.Output.IncludeProvenance,
	}
}

func (p *Pipeline) outputPath(prefix, label, suffix string) string {
	name := prefix
	if label = sanitizeLabel(label); label != "" {
		name += "_" + label
	}
	return filepath.Join(p.config.Output.Dir, name+suffix+".csv")
}

// finish records the run and writes its report. Neither failure fails the run.
func (p *Pipeline) finish(ctx context.Context, summary *models.RunSummary, model *classifier.Model, logger arbor.ILogger) {
	if p.config.Report.Enabled {
		paths, err := WriteReport(p.config.Output.Dir, summary, model, ReportFormats{
			HTML: p.config.Report.HTML,
			PDF:  p.config.Report.PDF,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to write run report")
		}
		summary.OutputPaths = append(summary.OutputPaths, paths...)
	}

	if p.runs != nil {
		if err := p.runs.SaveRun(ctx, summary); err != nil {
			logger.Warn().Err(err).Msg("Failed to record run summary")
		}
	}
}

func sanitizeLabel(label string) string {
	return strings.Trim(unsafeLabel.ReplaceAllString(strings.TrimSpace(label), "_"), "_.")
}

// IsConfigurationError reports whether err stems from an unusable training setup
// rather than from input data
func IsConfigurationError(err error) bool {
	return errors.Is(err, classifier.ErrEmptyTrainingSet) ||
		errors.Is(err, classifier.ErrSingleClass) ||
		errors.Is(err, classifier.ErrCorpusHeader)
}
