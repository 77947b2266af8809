package extract

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/models"
)

// BodyFormat selects how article bodies are rendered
type BodyFormat string

const (
	BodyText     BodyFormat = "text"     // Paragraph texts, each followed by a newline
	BodyMarkdown BodyFormat = "markdown" // Container HTML converted to markdown
)

// ArticleParser extracts search-result fields and article bodies
type ArticleParser struct {
	profile   ArticleProfile
	format    BodyFormat
	converter *md.Converter
	logger    arbor.ILogger
}

// NewArticleParser creates a parser for profile. An empty format selects BodyText.
func NewArticleParser(profile ArticleProfile, format BodyFormat, logger arbor.ILogger) *ArticleParser {
	if format == "" {
		format = BodyText
	}
	return &ArticleParser{
		profile:   profile,
		format:    format,
		converter: md.NewConverter(profile.BaseURL, true, nil),
		logger:    logger,
	}
}

// ParseListing returns the fields of up to limit search results in document order;
// limit 0 means every result.
func (p *ArticleParser) ParseListing(doc *goquery.Document, limit int) []models.ArticleFields {
	var articles []models.ArticleFields

	doc.Find(p.profile.Record).EachWithBreak(func(i int, block *goquery.Selection) bool {
		if limitReached(len(articles), limit) {
			return false
		}

		var fields models.ArticleFields
		if title, ok := firstText(block, p.profile.Title, "title", p.logger); ok {
			fields.Title = &title
		}
		if href, ok := block.Find(p.profile.Link).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
			fields.Link = models.StringPtr(resolveLink(p.profile.BaseURL, href))
		} else {
			p.logger.Debug().Int("block", i).Str("selector", p.profile.Link).Msg("Article link missing")
		}
		if authors, ok := firstText(block, p.profile.Authors, "authors", p.logger); ok {
			fields.Authors = models.StringPtr(strings.TrimSpace(strings.ReplaceAll(authors, " and", ",")))
		}
		if raw, ok := firstText(block, p.profile.Timestamp, "timestamp", p.logger); ok {
			fields.RawTimestamp = &raw
		}

		articles = append(articles, fields)
		return true
	})

	p.logger.Debug().
		Int("articles", len(articles)).
		Int("limit", limit).
		Msg("Parsed article listing")

	return articles
}

// ParseBody returns the article text from the first body layout that yields any,
// or nil when no layout matches
func (p *ArticleParser) ParseBody(doc *goquery.Document) *string {
	for i, layout := range p.profile.Bodies {
		container := doc.Find(layout.Container).First()
		if container.Length() == 0 {
			continue
		}

		var body string
		if p.format == BodyMarkdown {
			body = p.markdownBody(container)
		} else {
			body = paragraphBody(container, layout.Paragraph)
		}

		if strings.TrimSpace(body) == "" {
			p.logger.Debug().Int("layout", i).Str("container", layout.Container).Msg("Body container empty, trying next layout")
			continue
		}
		return &body
	}

	p.logger.Debug().Int("layouts", len(p.profile.Bodies)).Msg("No body layout matched")
	return nil
}

func paragraphBody(container *goquery.Selection, paragraph string) string {
	if paragraph == "" {
		paragraph = "p"
	}
	var b strings.Builder
	container.Find(paragraph).Each(func(_ int, s *goquery.Selection) {
		b.WriteString(s.Text())
		b.WriteString("\n")
	})
	return b.String()
}

func (p *ArticleParser) markdownBody(container *goquery.Selection) string {
	html, err := container.Html()
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to read body container HTML")
		return ""
	}
	converted, err := p.converter.ConvertString(html)
	if err != nil {
		p.logger.Warn().Err(err).Str("fallback", "text").Msg("HTML to markdown conversion failed, using fallback")
		return paragraphBody(container, "p")
	}
	return strings.TrimSpace(converted) + "\n"
}
