package models

// PostFields is what the structural extractor recovers from one post block.
// Nil pointers mean the sub-element was absent or empty.
type PostFields struct {
	Author          *string        `json:"author"`
	RawTimestamp    *string        `json:"raw_timestamp"`
	Body            *string        `json:"body"`
	StatedSentiment Sentiment      `json:"stated_sentiment"` // SentimentNone when untagged
	Engagement      map[string]int `json:"engagement"`       // Every profile counter present, absent ones at 0
}

// PostRecord is one output row of the social-post variant
type PostRecord struct {
	Author          *string         `json:"author"`
	Timestamp       *string         `json:"timestamp"` // Canonical form, nil when unresolved
	Body            *string         `json:"body"`
	Sentiment       Sentiment       `json:"sentiment"`
	SentimentSource SentimentSource `json:"sentiment_source"`
	Emotion         EmotionVector   `json:"emotion"`
	Engagement      map[string]int  `json:"engagement"`
}

// ArticleFields is what the structural extractor recovers from one search-result block
type ArticleFields struct {
	Title        *string `json:"title"`
	Link         *string `json:"link"`
	Authors      *string `json:"authors"`
	RawTimestamp *string `json:"raw_timestamp"`
}

// ArticleRecord is one output row of the news-article variant
type ArticleRecord struct {
	Title     *string `json:"title"`
	Link      *string `json:"link"`
	Authors   *string `json:"authors"`
	Timestamp *string `json:"timestamp"`
	Content   *string `json:"content"`
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, returning "" for nil
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
