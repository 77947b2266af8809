package fetch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/common"
	"github.com/ternarybob/marketmood/internal/extract"
	"github.com/ternarybob/marketmood/internal/interfaces"
	"github.com/ternarybob/marketmood/internal/models"
	"github.com/ternarybob/marketmood/internal/storage/badger"
)

// fakeRenderer serves canned pages by URL
type fakeRenderer struct {
	pages   map[string]string
	visited []string
	scrolls map[string]bool
}

func (r *fakeRenderer) Render(ctx context.Context, url string, scroll bool) (string, error) {
	r.visited = append(r.visited, url)
	if r.scrolls == nil {
		r.scrolls = map[string]bool{}
	}
	r.scrolls[url] = scroll
	html, ok := r.pages[url]
	if !ok {
		return "", errors.New("net::ERR_NAME_NOT_RESOLVED")
	}
	return html, nil
}

func (r *fakeRenderer) Close() error { return nil }

func newStorage(t *testing.T) interfaces.StorageManager {
	t.Helper()
	manager, err := badger.NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "db")})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return manager
}

func testFetchConfig() *common.FetchConfig {
	config := common.NewDefaultConfig().Fetch
	config.PageWait = 0
	config.ScrollWait = 0
	config.PostsURL = "https://stream.test/symbol/%s"
	config.ArticlesURL = "https://news.test/search?page=%d"
	config.ArticlePages = 2
	return &config
}

func listingPage(links ...string) string {
	profile := extract.DefaultArticleProfile()
	record := strings.TrimPrefix(profile.Record, "div.")
	title := strings.TrimPrefix(profile.Title[0], "span.")

	var b strings.Builder
	b.WriteString("<html><body>")
	for i, link := range links {
		fmt.Fprintf(&b, `<div class="%s"><a href="%s"><span class="%s">Story %d</span></a></div>`,
			strings.ReplaceAll(record, ".", " "), link, strings.ReplaceAll(title, ".", " "), i)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func TestFetcher_FetchPosts(t *testing.T) {
	storage := newStorage(t)
	renderer := &fakeRenderer{pages: map[string]string{
		"https://stream.test/symbol/ETH.X": "<html><body>stream</body></html>",
	}}
	fetcher := NewFetcher(renderer, storage.SnapshotStorage(), testFetchConfig(), arbor.NewLogger())

	snapshot, err := fetcher.FetchPosts(context.Background(), "ETH.X")
	require.NoError(t, err)
	assert.Equal(t, models.SnapshotPosts, snapshot.Kind)
	assert.Equal(t, "ETH.X", snapshot.Label)
	assert.True(t, renderer.scrolls["https://stream.test/symbol/ETH.X"], "stream pages are scrolled")

	stored, err := storage.SnapshotStorage().LatestSnapshot(context.Background(), models.SnapshotPosts)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Key, stored.Key)
	assert.Equal(t, "<html><body>stream</body></html>", stored.HTML)
}

func TestFetcher_FetchPosts_RenderError(t *testing.T) {
	storage := newStorage(t)
	fetcher := NewFetcher(&fakeRenderer{}, storage.SnapshotStorage(), testFetchConfig(), arbor.NewLogger())

	_, err := fetcher.FetchPosts(context.Background(), "BTC.X")
	assert.Error(t, err)
}

func TestFetcher_FetchArticles(t *testing.T) {
	storage := newStorage(t)
	renderer := &fakeRenderer{pages: map[string]string{
		"https://news.test/search?page=1": listingPage("/articles/one", "/articles/two", "/articles/gone"),
		"https://news.test/search?page=2": listingPage("/articles/three"),
		"https://www.wsj.com/articles/one":   "<html>one</html>",
		"https://www.wsj.com/articles/two":   "<html>two</html>",
		"https://www.wsj.com/articles/three": "<html>three</html>",
	}}
	fetcher := NewFetcher(renderer, storage.SnapshotStorage(), testFetchConfig(), arbor.NewLogger())
	parser := extract.NewArticleParser(extract.DefaultArticleProfile(), extract.BodyText, arbor.NewLogger())

	result, err := fetcher.FetchArticles(context.Background(), parser, 0)
	require.NoError(t, err)
	assert.Len(t, result.Listings, 2)
	assert.Len(t, result.Articles, 3)
	assert.Equal(t, 1, result.Failed)

	require.NotEmpty(t, result.Batch)
	for _, s := range append(append([]*models.Snapshot{}, result.Listings...), result.Articles...) {
		assert.Equal(t, result.Batch, s.Batch, "one fetch shares one batch")
	}

	first := result.Articles[0]
	assert.Equal(t, models.SnapshotArticle, first.Kind)
	assert.Equal(t, result.Listings[0].Key, first.Parent)
	assert.Equal(t, "Story 0", first.Label)

	byURL, err := storage.SnapshotStorage().GetSnapshotByURL(context.Background(), "https://www.wsj.com/articles/three")
	require.NoError(t, err)
	assert.Equal(t, "<html>three</html>", byURL.HTML)
}

func TestFetcher_FetchArticles_Limit(t *testing.T) {
	storage := newStorage(t)
	renderer := &fakeRenderer{pages: map[string]string{
		"https://news.test/search?page=1": listingPage("/articles/one", "/articles/two"),
		"https://www.wsj.com/articles/one": "<html>one</html>",
		"https://www.wsj.com/articles/two": "<html>two</html>",
	}}
	fetcher := NewFetcher(renderer, storage.SnapshotStorage(), testFetchConfig(), arbor.NewLogger())
	parser := extract.NewArticleParser(extract.DefaultArticleProfile(), extract.BodyText, arbor.NewLogger())

	result, err := fetcher.FetchArticles(context.Background(), parser, 1)
	require.NoError(t, err)
	assert.Len(t, result.Articles, 1)
	assert.Len(t, result.Listings, 1, "second page not needed")
}

func TestFetcher_FetchArticles_SeparateBatches(t *testing.T) {
	storage := newStorage(t)
	renderer := &fakeRenderer{pages: map[string]string{
		"https://news.test/search?page=1":  listingPage("/articles/one"),
		"https://news.test/search?page=2":  listingPage(),
		"https://www.wsj.com/articles/one": "<html>one</html>",
	}}
	fetcher := NewFetcher(renderer, storage.SnapshotStorage(), testFetchConfig(), arbor.NewLogger())
	parser := extract.NewArticleParser(extract.DefaultArticleProfile(), extract.BodyText, arbor.NewLogger())

	first, err := fetcher.FetchArticles(context.Background(), parser, 0)
	require.NoError(t, err)
	second, err := fetcher.FetchArticles(context.Background(), parser, 0)
	require.NoError(t, err)
	assert.NotEqual(t, first.Batch, second.Batch)

	listings, err := storage.SnapshotStorage().ListBatch(context.Background(), second.Batch, models.SnapshotArticleListing)
	require.NoError(t, err)
	require.Len(t, listings, 2, "empty second page is stored and stops the fetch")
	assert.Equal(t, second.Listings[0].Key, listings[0].Key)
}
