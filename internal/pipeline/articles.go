package pipeline

import (
	"context"
	"errors"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/assemble"
	"github.com/ternarybob/marketmood/internal/common"
	"github.com/ternarybob/marketmood/internal/extract"
	"github.com/ternarybob/marketmood/internal/interfaces"
	"github.com/ternarybob/marketmood/internal/models"
	"github.com/ternarybob/marketmood/internal/sink"
	"github.com/ternarybob/marketmood/internal/timestamp"
)

// BodySource returns the rendered article page for link, or interfaces.ErrNotFound
type BodySource interface {
	Document(ctx context.Context, link string) (*goquery.Document, error)
}

// SnapshotBodies serves article pages from stored snapshots
type SnapshotBodies struct {
	snapshots interfaces.SnapshotStorage
}

// NewSnapshotBodies creates a body source over snapshots
func NewSnapshotBodies(snapshots interfaces.SnapshotStorage) *SnapshotBodies {
	return &SnapshotBodies{snapshots: snapshots}
}

// Document looks up the newest snapshot fetched from link
func (s *SnapshotBodies) Document(ctx context.Context, link string) (*goquery.Document, error) {
	snapshot, err := s.snapshots.GetSnapshotByURL(ctx, link)
	if err != nil {
		return nil, err
	}
	return extract.ParseDocumentString(snapshot.HTML)
}

// ArticlesOptions selects how an articles run reads and writes
type ArticlesOptions struct {
	Source string
	Format extract.BodyFormat
}

// RunArticles extracts search results from each listing document in order, attaches
// the body of every linked article available from bodies and writes articles.csv.
// A missing or unreadable article page leaves Content empty.
func (p *Pipeline) RunArticles(ctx context.Context, listings []*goquery.Document, bodies BodySource, opts ArticlesOptions) (*models.RunSummary, error) {
	runID := common.NewRunID()
	logger := p.logger.WithCorrelationId(runID)
	started := p.now()

	summary := &models.RunSummary{
		ID:        runID,
		Kind:      models.RunKindArticles,
		Source:    opts.Source,
		StartedAt: started,
	}

	logger.Info().
		Str("source", opts.Source).
		Int("listings", len(listings)).
		Str("format", string(opts.Format)).
		Msg("Articles run started")

	parser := extract.NewArticleParser(p.profiles.Articles, opts.Format, logger)
	assembler, err := assemble.New(nil, false, timestamp.NewNormalizer(started, p.config.Timestamp.Format), p.extractor, logger)
	if err != nil {
		return nil, err
	}

	var (
		records []models.ArticleRecord
		stats   assemble.Stats
	)
	limit := p.config.Extraction.MaxRecords
	for _, listing := range listings {
		remaining := 0
		if limit > 0 {
			remaining = limit - len(records)
			if remaining <= 0 {
				break
			}
		}

		for _, fields := range parser.ParseListing(listing, remaining) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			body := p.articleBody(ctx, parser, bodies, fields.Link, logger)
			records = append(records, assembler.AssembleArticle(len(records), fields, body, &stats))
		}
	}
	applyStats(summary, stats)

	path := p.outputPath("articles", "", "")
	if err := sink.WriteArticlesFile(path, records, p.sinkOptions(nil)); err != nil {
		return nil, err
	}
	summary.OutputPaths = append(summary.OutputPaths, path)
	summary.Duration = p.now().Sub(started)

	p.finish(ctx, summary, nil, logger)

	logger.Info().
		Int("records", summary.Records).
		Int("missing_bodies", summary.MissingBodies).
		Int("unresolved_timestamps", summary.UnresolvedTimestamps).
		Str("output", path).
		Dur("duration", summary.Duration).
		Msg("Articles run complete")

	return summary, nil
}

func (p *Pipeline) articleBody(ctx context.Context, parser *extract.ArticleParser, bodies BodySource, link *string, logger arbor.ILogger) *string {
	if link == nil || bodies == nil {
		return nil
	}

	doc, err := bodies.Document(ctx, *link)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			logger.Debug().Str("link", *link).Msg("No stored page for article")
		} else {
			logger.Warn().Err(err).Str("link", *link).Msg("Article page unreadable")
		}
		return nil
	}
	return parser.ParseBody(doc)
}
