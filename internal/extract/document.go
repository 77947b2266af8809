// Package extract recovers post and article fields from fetched markup using
// prioritized selector profiles. Extraction never fails a record: a missing
// element yields an absent field.
package extract

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/marketmood/internal/textenc"
)

// ParseDocument parses markup from r. UTF-16 input with a byte order mark is decoded.
func ParseDocument(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(textenc.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// ParseDocumentString parses markup held in memory
func ParseDocumentString(html string) (*goquery.Document, error) {
	return ParseDocument(strings.NewReader(html))
}

// ParseDocumentFile parses the markup file at path
func ParseDocumentFile(path string) (*goquery.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document %s: %w", path, err)
	}
	defer f.Close()
	return ParseDocument(f)
}
