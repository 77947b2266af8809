package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/common"
	"github.com/ternarybob/marketmood/internal/extract"
	"github.com/ternarybob/marketmood/internal/interfaces"
	"github.com/ternarybob/marketmood/internal/models"
	"golang.org/x/time/rate"
)

// Fetcher renders upstream pages and stores them as snapshots
type Fetcher struct {
	renderer  Renderer
	snapshots interfaces.SnapshotStorage
	config    *common.FetchConfig
	limiter   *rate.Limiter
	logger    arbor.ILogger
}

// ArticleFetchResult lists what one article fetch stored
type ArticleFetchResult struct {
	Batch    string // Shared by every snapshot below
	Listings []*models.Snapshot
	Articles []*models.Snapshot
	Failed   int // Article pages that could not be rendered
}

// NewFetcher creates a fetcher. Page loads are spaced by config.PageWait.
func NewFetcher(renderer Renderer, snapshots interfaces.SnapshotStorage, config *common.FetchConfig, logger arbor.ILogger) *Fetcher {
	limit := rate.Inf
	if config.PageWait > 0 {
		limit = rate.Every(config.PageWait)
	}
	return &Fetcher{
		renderer:  renderer,
		snapshots: snapshots,
		config:    config,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
	}
}

// FetchPosts renders and scrolls the stream for symbol and stores it
func (f *Fetcher) FetchPosts(ctx context.Context, symbol string) (*models.Snapshot, error) {
	url := fmt.Sprintf(f.config.PostsURL, symbol)

	snapshot, err := f.fetch(ctx, url, true, models.SnapshotPosts, symbol, "", common.NewBatchID())
	if err != nil {
		return nil, err
	}

	f.logger.Info().
		Str("symbol", symbol).
		Str("key", snapshot.Key).
		Int("html_length", len(snapshot.HTML)).
		Msg("Post stream fetched")
	return snapshot, nil
}

// FetchArticles renders up to config.ArticlePages search result pages and up to
// limit linked articles (0 = every listed article). A failed article page is logged
// and skipped; a failed listing page aborts.
func (f *Fetcher) FetchArticles(ctx context.Context, parser *extract.ArticleParser, limit int) (*ArticleFetchResult, error) {
	result := &ArticleFetchResult{Batch: common.NewBatchID()}

	for page := 1; page <= f.config.ArticlePages; page++ {
		if limit > 0 && len(result.Articles) >= limit {
			break
		}

		url := fmt.Sprintf(f.config.ArticlesURL, page)
		listing, err := f.fetch(ctx, url, false, models.SnapshotArticleListing, fmt.Sprintf("page %d", page), "", result.Batch)
		if err != nil {
			return result, err
		}
		result.Listings = append(result.Listings, listing)

		doc, err := extract.ParseDocumentString(listing.HTML)
		if err != nil {
			return result, fmt.Errorf("failed to parse listing page %d: %w", page, err)
		}

		remaining := 0
		if limit > 0 {
			remaining = limit - len(result.Articles)
		}
		entries := parser.ParseListing(doc, remaining)
		if len(entries) == 0 {
			f.logger.Warn().Int("page", page).Str("url", url).Msg("Listing page has no results, stopping")
			break
		}

		for _, entry := range entries {
			if entry.Link == nil {
				result.Failed++
				continue
			}
			article, err := f.fetch(ctx, *entry.Link, false, models.SnapshotArticle, models.StringValue(entry.Title), listing.Key, result.Batch)
			if err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				f.logger.Warn().Err(err).Str("url", *entry.Link).Msg("Article page skipped")
				result.Failed++
				continue
			}
			result.Articles = append(result.Articles, article)
		}
	}

	f.logger.Info().
		Str("batch", result.Batch).
		Int("listings", len(result.Listings)).
		Int("articles", len(result.Articles)).
		Int("failed", result.Failed).
		Msg("Articles fetched")
	return result, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string, scroll bool, kind models.SnapshotKind, label, parent, batch string) (*models.Snapshot, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("page wait interrupted: %w", err)
	}

	html, err := f.renderer.Render(ctx, url, scroll)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", url, err)
	}

	snapshot := &models.Snapshot{
		Key:       common.NewSnapshotKey(string(kind)),
		Kind:      kind,
		URL:       url,
		Parent:    parent,
		Label:     label,
		Batch:     batch,
		HTML:      html,
		FetchedAt: time.Now(),
	}
	if err := f.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}
