// Package fetch renders upstream pages in a headless browser and stores the
// resulting markup as snapshots for offline runs.
package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/common"
	"golang.org/x/time/rate"
)

const (
	scrollScript = "window.scrollTo(0, document.documentElement.scrollHeight)"
	heightScript = "document.documentElement.scrollHeight"
)

// Renderer returns the markup of a page after client-side rendering
type Renderer interface {
	// Render loads url and returns the document markup. When scroll is set the page
	// is scrolled until its height stops growing or the scroll budget is spent.
	Render(ctx context.Context, url string, scroll bool) (string, error)
	Close() error
}

// ChromeRenderer drives a single headless Chrome instance
type ChromeRenderer struct {
	config        *common.FetchConfig
	logger        arbor.ILogger
	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewChromeRenderer starts a browser configured from config
func NewChromeRenderer(config *common.FetchConfig, logger arbor.ILogger) (*ChromeRenderer, error) {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-timer-throttling", false),
		chromedp.Flag("disable-renderer-backgrounding", false),
		chromedp.UserAgent(config.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser now so a missing Chrome fails fast
	if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.Debug().
		Bool("headless", config.Headless).
		Str("user_agent", config.UserAgent).
		Msg("Browser started")

	return &ChromeRenderer{
		config:        config,
		logger:        logger,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

func (r *ChromeRenderer) Render(ctx context.Context, url string, scroll bool) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tabCtx, tabCancel := chromedp.NewContext(r.browserCtx)
	defer tabCancel()

	timeout := r.config.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	tabCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	// Propagate caller cancellation into the tab
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	start := time.Now()
	if err := chromedp.Run(tabCtx, chromedp.Navigate(url)); err != nil {
		return "", fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if r.config.PageWait > 0 {
		if err := chromedp.Run(tabCtx, chromedp.Sleep(r.config.PageWait)); err != nil {
			return "", fmt.Errorf("page wait interrupted: %w", err)
		}
	}

	scrolls := 0
	if scroll {
		var err error
		scrolls, err = r.scrollToEnd(tabCtx)
		if err != nil {
			return "", err
		}
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page source of %s: %w", url, err)
	}

	r.logger.Debug().
		Str("url", url).
		Int("scrolls", scrolls).
		Int("html_length", len(html)).
		Dur("duration", time.Since(start)).
		Msg("Page rendered")

	return html, nil
}

// scrollToEnd scrolls until the page height stops changing or ScrollCount scrolls
// have been made, pausing ScrollWait between scrolls
func (r *ChromeRenderer) scrollToEnd(ctx context.Context) (int, error) {
	limit := rate.Inf
	if r.config.ScrollWait > 0 {
		limit = rate.Every(r.config.ScrollWait)
	}
	limiter := rate.NewLimiter(limit, 1)
	limiter.Allow()

	var height int64
	if err := chromedp.Run(ctx, chromedp.Evaluate(heightScript, &height)); err != nil {
		return 0, fmt.Errorf("failed to read page height: %w", err)
	}

	scrolls := 0
	for scrolls < r.config.ScrollCount {
		if err := chromedp.Run(ctx, chromedp.Evaluate(scrollScript, nil)); err != nil {
			return scrolls, fmt.Errorf("scroll %d failed: %w", scrolls+1, err)
		}
		scrolls++

		if err := limiter.Wait(ctx); err != nil {
			return scrolls, fmt.Errorf("scroll wait interrupted: %w", err)
		}

		var next int64
		if err := chromedp.Run(ctx, chromedp.Evaluate(heightScript, &next)); err != nil {
			return scrolls, fmt.Errorf("failed to read page height: %w", err)
		}
		if next == height {
			break
		}
		height = next
	}
	return scrolls, nil
}

// Close shuts the browser down
func (r *ChromeRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCancel != nil {
		r.browserCancel()
		r.browserCancel = nil
	}
	if r.allocCancel != nil {
		r.allocCancel()
		r.allocCancel = nil
	}
	return nil
}
