package extract

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

// firstText tries selectors in priority order within scope and returns the trimmed
// text of the first match that is not empty
func firstText(scope *goquery.Selection, selectors []string, field string, logger arbor.ILogger) (string, bool) {
	for _, selector := range selectors {
		text := strings.TrimSpace(scope.Find(selector).First().Text())
		if text != "" {
			return text, true
		}
	}
	logger.Debug().Str("field", field).Strs("selectors", selectors).Msg("No matching selector found")
	return "", false
}

// parseCounter reads an engagement count. Thousands separators are accepted; empty,
// non-numeric or negative text counts as zero.
func parseCounter(text string) int {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if text == "" {
		return 0
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// resolveLink resolves href against base. An unparsable href is returned unchanged.
func resolveLink(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == "" {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

// limitReached reports whether count blocks satisfy limit; 0 means unlimited
func limitReached(count, limit int) bool {
	return limit > 0 && count >= limit
}
