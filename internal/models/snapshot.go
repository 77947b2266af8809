package models

import "time"

// SnapshotKind identifies what a stored page is
type SnapshotKind string

const (
	SnapshotPosts          SnapshotKind = "posts"           // Scrolled symbol stream
	SnapshotArticleListing SnapshotKind = "article_listing" // One search results page
	SnapshotArticle        SnapshotKind = "article"         // One article page
)

// Snapshot is fetched markup stored so runs can be repeated offline
type Snapshot struct {
	Key       string       `json:"key"`
	Kind      SnapshotKind `json:"kind" badgerhold:"index"`
	URL       string       `json:"url" badgerhold:"index"`
	Parent    string       `json:"parent" badgerhold:"index"` // Listing key an article page was reached from
	Label     string       `json:"label"`                     // Symbol or query the fetch was for
	Batch     string       `json:"batch" badgerhold:"index"`  // Fetch invocation that stored it
	HTML      string       `json:"html"`
	FetchedAt time.Time    `json:"fetched_at"`
}
