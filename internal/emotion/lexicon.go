package emotion

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode"

	"github.com/ternarybob/marketmood/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexicon []byte

// suffixes stripped, longest first, when a token has no direct lexicon hit
var suffixes = []string{"ing", "ed", "es", "ly", "s"}

// Lexicon maps a lowercase stem or emoji to the emotions it signals
type Lexicon struct {
	terms map[string][]string
}

// LoadLexicon reads a YAML document keyed by emotion name
func LoadLexicon(r io.Reader) (*Lexicon, error) {
	var raw map[string][]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode lexicon: %w", err)
	}

	known := make(map[string]string, len(models.EmotionNames))
	for _, name := range models.EmotionNames {
		known[strings.ToLower(name)] = name
	}

	lex := &Lexicon{terms: make(map[string][]string)}
	for key, words := range raw {
		name, ok := known[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			return nil, fmt.Errorf("lexicon: unknown emotion %q", key)
		}
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w == "" {
				continue
			}
			lex.terms[w] = append(lex.terms[w], name)
		}
	}
	if len(lex.terms) == 0 {
		return nil, fmt.Errorf("lexicon: no terms defined")
	}
	return lex, nil
}

// LoadLexiconFile reads a lexicon from path
func LoadLexiconFile(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lexicon file %s: %w", path, err)
	}
	defer f.Close()
	return LoadLexicon(f)
}

// DefaultLexicon returns the embedded lexicon
func DefaultLexicon() *Lexicon {
	lex, err := LoadLexicon(strings.NewReader(string(defaultLexicon)))
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon is invalid: %v", err))
	}
	return lex
}

// Size returns the number of distinct terms
func (l *Lexicon) Size() int {
	return len(l.terms)
}

func (l *Lexicon) lookup(token string) []string {
	if hits, ok := l.terms[token]; ok {
		return hits
	}
	for _, suffix := range suffixes {
		if len(token) > len(suffix)+2 && strings.HasSuffix(token, suffix) {
			if hits, ok := l.terms[strings.TrimSuffix(token, suffix)]; ok {
				return hits
			}
		}
	}
	return nil
}

// LexiconExtractor counts lexicon hits per emotion and reports each emotion's share
// of all hits, rounded to two decimals. Text with no hits scores zero on every axis.
type LexiconExtractor struct {
	lexicon *Lexicon
}

// NewLexiconExtractor creates an extractor backed by lex, or the embedded lexicon when nil
func NewLexiconExtractor(lex *Lexicon) *LexiconExtractor {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &LexiconExtractor{lexicon: lex}
}

func (e *LexiconExtractor) Name() string {
	return "lexicon"
}

func (e *LexiconExtractor) Extract(ctx context.Context, text string) (models.EmotionVector, error) {
	counts := make(map[string]float64, len(models.EmotionNames))
	total := 0.0
	for _, token := range tokenize(text) {
		for _, name := range e.lexicon.lookup(token) {
			counts[name]++
			total++
		}
	}

	scores := make(map[string]float64, len(models.EmotionNames))
	for _, name := range models.EmotionNames {
		if total == 0 {
			scores[name] = 0
			continue
		}
		scores[name] = math.Round(counts[name]/total*100) / 100
	}
	return models.EmotionVectorFromMap(scores), nil
}

// tokenize splits text into lowercase letter runs and standalone emoji
func tokenize(text string) []string {
	var tokens []string
	var word strings.Builder

	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || r == '\'':
			if r != '\'' {
				word.WriteRune(unicode.ToLower(r))
			}
		case unicode.Is(unicode.So, r):
			flush()
			tokens = append(tokens, string(r))
		default:
			flush()
		}
	}
	flush()
	return tokens
}
