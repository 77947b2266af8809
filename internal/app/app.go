package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/classifier"
	"github.com/ternarybob/marketmood/internal/common"
	"github.com/ternarybob/marketmood/internal/emotion"
	"github.com/ternarybob/marketmood/internal/extract"
	"github.com/ternarybob/marketmood/internal/fetch"
	"github.com/ternarybob/marketmood/internal/interfaces"
	"github.com/ternarybob/marketmood/internal/models"
	"github.com/ternarybob/marketmood/internal/pipeline"
	"github.com/ternarybob/marketmood/internal/services/scheduler"
	"github.com/ternarybob/marketmood/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	ctx            context.Context
	cancelCtx      context.CancelFunc
	StorageManager interfaces.StorageManager

	Profiles  extract.Profiles
	Extractor emotion.Extractor
	Pipeline  *pipeline.Pipeline

	// Created on first fetch so offline commands never start a browser
	rendererMu sync.Mutex
	renderer   fetch.Renderer

	SchedulerService *scheduler.Service
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:    cfg,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	if err := app.initDatabase(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Info().
		Str("emotion_provider", app.Extractor.Name()).
		Bool("imputation_enabled", cfg.Imputation.Enabled).
		Str("output_dir", cfg.Output.Dir).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")
	return nil
}

// initServices loads markup profiles, the emotion extractor and the pipeline
func (a *App) initServices() error {
	profiles, err := extract.LoadProfiles(a.Config.Extraction.ProfileFile)
	if err != nil {
		return err
	}
	a.Profiles = profiles

	extractor, err := emotion.New(a.ctx, a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize emotion extractor: %w", err)
	}
	a.Extractor = extractor

	a.Pipeline = pipeline.New(a.Config, a.StorageManager.RunStorage(), a.Extractor, a.Profiles, a.Logger)
	a.SchedulerService = scheduler.NewService(a.Logger)

	a.Logger.Debug().
		Str("profile_file", a.Config.Extraction.ProfileFile).
		Int("counters", len(a.Profiles.Posts.Counters)).
		Msg("Services initialized")
	return nil
}

// Fetcher returns a fetcher backed by a shared headless browser
func (a *App) Fetcher() (*fetch.Fetcher, error) {
	a.rendererMu.Lock()
	defer a.rendererMu.Unlock()

	if a.renderer == nil {
		renderer, err := fetch.NewChromeRenderer(&a.Config.Fetch, a.Logger)
		if err != nil {
			return nil, err
		}
		a.renderer = renderer
	}
	return fetch.NewFetcher(a.renderer, a.StorageManager.SnapshotStorage(), &a.Config.Fetch, a.Logger), nil
}

// ArticleParser returns a parser for the article profile
func (a *App) ArticleParser(format extract.BodyFormat) *extract.ArticleParser {
	return extract.NewArticleParser(a.Profiles.Articles, format, a.Logger)
}

// RunPostsFile processes a saved stream page. The label defaults to the file name.
func (a *App) RunPostsFile(ctx context.Context, path string, opts pipeline.PostsOptions) (*models.RunSummary, error) {
	doc, err := extract.ParseDocumentFile(path)
	if err != nil {
		return nil, err
	}
	opts.Source = path
	if opts.Label == "" {
		opts.Label = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return a.Pipeline.RunPosts(ctx, doc, opts)
}

// RunPostsSnapshot processes a stored stream snapshot; an empty key selects the newest
func (a *App) RunPostsSnapshot(ctx context.Context, key string, opts pipeline.PostsOptions) (*models.RunSummary, error) {
	snapshots := a.StorageManager.SnapshotStorage()

	var snapshot *models.Snapshot
	var err error
	if key == "" {
		snapshot, err = snapshots.LatestSnapshot(ctx, models.SnapshotPosts)
	} else {
		snapshot, err = snapshots.GetSnapshot(ctx, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post snapshot: %w", err)
	}

	doc, snapOpts, err := pipeline.PostsFromSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	opts.Source = snapOpts.Source
	if opts.Label == "" {
		opts.Label = snapOpts.Label
	}
	return a.Pipeline.RunPosts(ctx, doc, opts)
}

// RunArticlesFiles processes saved listing pages in order. Bodies come from stored
// article snapshots.
func (a *App) RunArticlesFiles(ctx context.Context, paths []string, format extract.BodyFormat) (*models.RunSummary, error) {
	docs := make([]*goquery.Document, 0, len(paths))
	for _, path := range paths {
		doc, err := extract.ParseDocumentFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return a.Pipeline.RunArticles(ctx, docs, pipeline.NewSnapshotBodies(a.StorageManager.SnapshotStorage()), pipeline.ArticlesOptions{
		Source: strings.Join(paths, ","),
		Format: format,
	})
}

// RunArticlesSnapshots processes the listing pages of the most recent article fetch
// in page order
func (a *App) RunArticlesSnapshots(ctx context.Context, format extract.BodyFormat) (*models.RunSummary, error) {
	snapshots := a.StorageManager.SnapshotStorage()

	latest, err := snapshots.LatestSnapshot(ctx, models.SnapshotArticleListing)
	if err != nil {
		return nil, fmt.Errorf("no article listing snapshots stored: %w", err)
	}

	listings := []*models.Snapshot{latest}
	if latest.Batch != "" {
		listings, err = snapshots.ListBatch(ctx, latest.Batch, models.SnapshotArticleListing)
		if err != nil {
			return nil, err
		}
	} else {
		a.Logger.Warn().Str("key", latest.Key).Msg("Listing snapshot has no fetch batch, using it alone")
	}

	docs := make([]*goquery.Document, 0, len(listings))
	keys := make([]string, 0, len(listings))
	for _, listing := range listings {
		doc, err := extract.ParseDocumentString(listing.HTML)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", listing.Key, err)
		}
		docs = append(docs, doc)
		keys = append(keys, listing.Key)
	}

	return a.Pipeline.RunArticles(ctx, docs, pipeline.NewSnapshotBodies(snapshots), pipeline.ArticlesOptions{
		Source: strings.Join(keys, ","),
		Format: format,
	})
}

// FetchAndRunPosts fetches the stream for symbol and processes it with the
// configured imputation settings
func (a *App) FetchAndRunPosts(ctx context.Context, symbol string) (*models.RunSummary, error) {
	fetcher, err := a.Fetcher()
	if err != nil {
		return nil, err
	}

	snapshot, err := fetcher.FetchPosts(ctx, symbol)
	if err != nil {
		return nil, err
	}

	return a.RunPostsSnapshot(ctx, snapshot.Key, pipeline.PostsOptions{
		Label:     symbol,
		Impute:    a.Config.Imputation.Enabled,
		WriteBoth: a.Config.Output.WriteBoth,
	})
}

// TrainModel fits the classifier on the configured corpus
func (a *App) TrainModel(ctx context.Context) (*classifier.Model, classifier.CorpusStats, error) {
	return a.Pipeline.TrainModel(ctx)
}

// StartSchedule runs FetchAndRunPosts for the configured symbol on the configured cron
func (a *App) StartSchedule() error {
	symbol := a.Config.Schedule.Symbol
	return a.SchedulerService.Start("posts:"+symbol, a.Config.Schedule.Cron, func() error {
		_, err := a.FetchAndRunPosts(a.ctx, symbol)
		return err
	})
}

// Close shuts down all components
func (a *App) Close() error {
	if a.cancelCtx != nil {
		a.cancelCtx()
	}

	var errs []error

	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	a.rendererMu.Lock()
	if a.renderer != nil {
		if err := a.renderer.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close browser")
			errs = append(errs, err)
		}
		a.renderer = nil
	}
	a.rendererMu.Unlock()

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
			errs = append(errs, err)
		}
		a.StorageManager = nil
	}

	a.Logger.Info().Msg("Application shutdown complete")
	return errors.Join(errs...)
}
