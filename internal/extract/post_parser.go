package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/models"
)

// PostParser extracts post fields from a social stream document
type PostParser struct {
	profile PostProfile
	logger  arbor.ILogger
}

// NewPostParser creates a parser for profile
func NewPostParser(profile PostProfile, logger arbor.ILogger) *PostParser {
	return &PostParser{
		profile: profile,
		logger:  logger,
	}
}

// Profile returns the parser's profile
func (p *PostParser) Profile() PostProfile {
	return p.profile
}

// Parse returns the fields of up to limit record blocks in document order; limit 0
// means every block. The document is not modified.
func (p *PostParser) Parse(doc *goquery.Document, limit int) []models.PostFields {
	var posts []models.PostFields

	doc.Find(p.profile.Record).EachWithBreak(func(i int, block *goquery.Selection) bool {
		if limitReached(len(posts), limit) {
			return false
		}
		posts = append(posts, p.parseBlock(i, block))
		return true
	})

	p.logger.Debug().
		Int("posts", len(posts)).
		Int("limit", limit).
		Msg("Parsed post blocks")

	return posts
}

func (p *PostParser) parseBlock(index int, block *goquery.Selection) models.PostFields {
	header := block
	if p.profile.Header != "" {
		if h := block.Find(p.profile.Header).First(); h.Length() > 0 {
			header = h
		} else {
			p.logger.Debug().Int("block", index).Msg("Post header missing, searching whole block")
		}
	}

	fields := models.PostFields{
		Engagement: make(map[string]int, len(p.profile.Counters)),
	}

	if author, ok := firstText(header, p.profile.Author, "author", p.logger); ok {
		fields.Author = &author
	}
	if raw, ok := firstText(header, p.profile.Timestamp, "timestamp", p.logger); ok {
		fields.RawTimestamp = &raw
	}
	if tag, ok := firstText(header, p.profile.Sentiment, "sentiment", p.logger); ok {
		fields.StatedSentiment = models.ParseSentiment(tag)
		if !fields.StatedSentiment.IsSet() {
			p.logger.Debug().Int("block", index).Str("tag", tag).Msg("Unrecognized sentiment tag treated as absent")
		}
	}
	if body, ok := firstText(block, p.profile.Body, "body", p.logger); ok {
		fields.Body = &body
	}

	for _, counter := range p.profile.Counters {
		value := ""
		if container := block.Find(counter.Container).First(); container.Length() > 0 {
			target := container
			if counter.Value != "" {
				target = container.Find(counter.Value).First()
			}
			value = strings.TrimSpace(target.Text())
		}
		fields.Engagement[counter.Name] = parseCounter(value)
	}

	return fields
}
