package pipeline

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/marketmood/internal/assemble"
	"github.com/ternarybob/marketmood/internal/classifier"
	"github.com/ternarybob/marketmood/internal/common"
	"github.com/ternarybob/marketmood/internal/extract"
	"github.com/ternarybob/marketmood/internal/models"
	"github.com/ternarybob/marketmood/internal/sink"
	"github.com/ternarybob/marketmood/internal/timestamp"
)

// PostsOptions selects what a posts run writes
type PostsOptions struct {
	Source    string // Snapshot key or file the document came from
	Label     string // Symbol or name used in output file names
	Impute    bool   // Fill missing sentiment from emotion signal
	WriteBoth bool   // Also write the table without imputed sentiment
}

// RunPosts extracts post records from doc and writes them. With imputation the
// classifier is trained first; a training failure aborts before anything is written.
func (p *Pipeline) RunPosts(ctx context.Context, doc *goquery.Document, opts PostsOptions) (*models.RunSummary, error) {
	runID := common.NewRunID()
	logger := p.logger.WithCorrelationId(runID)
	started := p.now()

	summary := &models.RunSummary{
		ID:                runID,
		Kind:              models.RunKindPosts,
		Source:            opts.Source,
		StartedAt:         started,
		ImputationEnabled: opts.Impute,
	}

	logger.Info().
		Str("source", opts.Source).
		Bool("impute", opts.Impute).
		Bool("write_both", opts.WriteBoth).
		Int("max_records", p.config.Extraction.MaxRecords).
		Msg("Posts run started")

	var model *classifier.Model
	var predictor assemble.Predictor
	if opts.Impute {
		var err error
		model, _, err = p.TrainModel(ctx)
		if err != nil {
			return nil, err
		}
		predictor = model
		score := model.Score()
		summary.ModelScore = &score
		summary.TrainedRows = model.TrainedRows()
		summary.ScoredRows = model.ScoredRows()
		summary.FittedRows = model.FittedRows()
	}

	parser := extract.NewPostParser(p.profiles.Posts, logger)
	fields := parser.Parse(doc, p.config.Extraction.MaxRecords)

	assembler, err := assemble.New(predictor, opts.Impute, timestamp.NewNormalizer(started, p.config.Timestamp.Format), p.extractor, logger)
	if err != nil {
		return nil, err
	}

	records, stats, err := assembler.AssemblePosts(ctx, fields)
	if err != nil {
		return nil, err
	}
	applyStats(summary, stats)

	sinkOpts := p.sinkOptions(p.profiles.Posts.CounterNames())
	if opts.WriteBoth && opts.Impute {
		plain := p.outputPath("posts", opts.Label, "")
		if err := sink.WritePostsFile(plain, withoutImputed(records), sinkOpts); err != nil {
			return nil, err
		}
		summary.OutputPaths = append(summary.OutputPaths, plain)
	}

	suffix := ""
	if opts.Impute {
		suffix = "_filled_na"
	}
	path := p.outputPath("posts", opts.Label, suffix)
	if err := sink.WritePostsFile(path, records, sinkOpts); err != nil {
		return nil, err
	}
	summary.OutputPaths = append(summary.OutputPaths, path)
	summary.Duration = p.now().Sub(started)

	p.finish(ctx, summary, model, logger)

	logger.Info().
		Int("records", summary.Records).
		Int("stated", summary.Stated).
		Int("imputed", summary.Imputed).
		Int("unlabeled", summary.Unlabeled).
		Int("unresolved_timestamps", summary.UnresolvedTimestamps).
		Strs("outputs", summary.OutputPaths).
		Dur("duration", summary.Duration).
		Msg("Posts run complete")

	return summary, nil
}

// withoutImputed returns a copy of records with imputed sentiment cleared
func withoutImputed(records []models.PostRecord) []models.PostRecord {
	out := make([]models.PostRecord, len(records))
	for i, r := range records {
		if r.SentimentSource == models.SourceImputed {
			r.Sentiment = models.SentimentNone
			r.SentimentSource = models.SourceNone
		}
		out[i] = r
	}
	return out
}

func applyStats(summary *models.RunSummary, stats assemble.Stats) {
	summary.Records = stats.Records
	summary.Stated = stats.Stated
	summary.Imputed = stats.Imputed
	summary.Unlabeled = stats.Unlabeled
	summary.UnresolvedTimestamps = stats.UnresolvedTimestamps
	summary.MissingBodies = stats.MissingBodies
}

// PostsFromSnapshot is a convenience for runs over a stored snapshot
func PostsFromSnapshot(snapshot *models.Snapshot) (*goquery.Document, PostsOptions, error) {
	doc, err := extract.ParseDocumentString(snapshot.HTML)
	if err != nil {
		return nil, PostsOptions{}, fmt.Errorf("snapshot %s: %w", snapshot.Key, err)
	}
	return doc, PostsOptions{Source: snapshot.Key, Label: snapshot.Label}, nil
}
