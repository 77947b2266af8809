// Package sink writes assembled records as tab-separated tables.
package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ternarybob/marketmood/internal/models"
	"github.com/ternarybob/marketmood/internal/textenc"
)

// Column headers
const (
	ColumnUserName        = "User_Name"
	ColumnTimeStamp       = "Time_Stamp"
	ColumnContent         = "Content"
	ColumnSentiment       = "Sentiment"
	ColumnSentimentSource = "Sentiment_Source"
	ColumnTitle           = "Title"
	ColumnLink            = "Link"
	ColumnAuthors         = "Author(s)"
)

// Options controls the table layout and encoding
type Options struct {
	Encoding          string   // textenc.UTF16 (default) or textenc.UTF8
	Counters          []string // Engagement columns in order
	IncludeProvenance bool     // Append Sentiment_Source to post tables
}

// PostHeader returns the post table header for opts
func PostHeader(opts Options) []string {
	header := []string{ColumnUserName, ColumnTimeStamp, ColumnContent, ColumnSentiment}
	header = append(header, models.EmotionNames...)
	header = append(header, opts.Counters...)
	if opts.IncludeProvenance {
		header = append(header, ColumnSentimentSource)
	}
	return header
}

// ArticleHeader returns the article table header
func ArticleHeader() []string {
	return []string{ColumnTitle, ColumnLink, ColumnAuthors, ColumnTimeStamp, ColumnContent}
}

// WritePosts writes a header and one row per record, in order
func WritePosts(w io.Writer, records []models.PostRecord, opts Options) error {
	return write(w, opts.Encoding, PostHeader(opts), len(records), func(i int) []string {
		return postRow(records[i], opts)
	})
}

// WriteArticles writes a header and one row per record, in order
func WriteArticles(w io.Writer, records []models.ArticleRecord, opts Options) error {
	return write(w, opts.Encoding, ArticleHeader(), len(records), func(i int) []string {
		r := records[i]
		return []string{
			models.StringValue(r.Title),
			models.StringValue(r.Link),
			models.StringValue(r.Authors),
			models.StringValue(r.Timestamp),
			models.StringValue(r.Content),
		}
	})
}

// WritePostsFile writes records to path, creating parent directories
func WritePostsFile(path string, records []models.PostRecord, opts Options) error {
	return writeFile(path, func(w io.Writer) error {
		return WritePosts(w, records, opts)
	})
}

// WriteArticlesFile writes records to path, creating parent directories
func WriteArticlesFile(path string, records []models.ArticleRecord, opts Options) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteArticles(w, records, opts)
	})
}

func postRow(r models.PostRecord, opts Options) []string {
	row := []string{
		models.StringValue(r.Author),
		models.StringValue(r.Timestamp),
		models.StringValue(r.Body),
		string(r.Sentiment),
	}
	for _, score := range r.Emotion.Fields() {
		row = append(row, formatScore(score))
	}
	for _, name := range opts.Counters {
		row = append(row, strconv.Itoa(r.Engagement[name]))
	}
	if opts.IncludeProvenance {
		row = append(row, string(r.SentimentSource))
	}
	return row
}

func formatScore(score *float64) string {
	if score == nil {
		return ""
	}
	return strconv.FormatFloat(*score, 'f', -1, 64)
}

func write(w io.Writer, encoding string, header []string, n int, row func(i int) []string) error {
	if encoding == "" {
		encoding = textenc.UTF16
	}
	encoded, err := textenc.NewWriter(w, encoding)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(encoded)
	writer.Comma = '\t'
	writer.UseCRLF = true

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := writer.Write(row(i)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}
	if err := encoded.Close(); err != nil {
		return fmt.Errorf("failed to flush encoder: %w", err)
	}
	return nil
}

func writeFile(path string, fn func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
