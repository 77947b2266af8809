package models

import "strings"

// Sentiment is a market sentiment label. The zero value means no label.
type Sentiment string

const (
	SentimentBullish Sentiment = "Bullish"
	SentimentBearish Sentiment = "Bearish"
	SentimentNone    Sentiment = ""
)

// ParseSentiment maps a tag text to a label, ignoring case and surrounding space.
// Anything other than bullish/bearish yields SentimentNone.
func ParseSentiment(text string) Sentiment {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "bullish":
		return SentimentBullish
	case "bearish":
		return SentimentBearish
	default:
		return SentimentNone
	}
}

// IsSet reports whether s carries a label
func (s Sentiment) IsSet() bool {
	return s == SentimentBullish || s == SentimentBearish
}

// SentimentSource records where an output sentiment came from
type SentimentSource string

const (
	SourceStated  SentimentSource = "stated"  // Author attached the tag
	SourceImputed SentimentSource = "imputed" // Predicted from emotion signal
	SourceNone    SentimentSource = ""
)
