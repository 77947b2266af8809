package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Class signatures of the Stocktwits stream markup
const (
	postClass      = "st_24ON8Bp st_1x3QBA7 st_1SZeGna st_3-tdfjd"
	headerClass    = "st_2q3fdlM st_jGV698i st_2-AYUR9 st_2HqScKh st_3QTv-Ni"
	userNameClass  = "st_x9n-9YN st_2LcBLI2 st_1vC-yaI st_1VMMH6S"
	sentimentClass = "lib_XwnOHoV lib_3UzYkI9 lib_lPsmyQd lib_2TK8fEo"
	timeStampClass = "st_28bQfzV st_1E79qOs st_3TuKxmZ st_1VMMH6S"
	contentClass   = "st_3SL2gug"
	rateClass      = "st_2zcZsOz st_VNaOUo1"
)

// Class signatures of the WSJ search and article markup
const (
	infoClass      = "WSJTheme--search-text-combined--29JN8aap"
	titleClass     = "WSJTheme--headlineText--He1ANr9C"
	timeClass      = "WSJTheme--timestamp--2zjbypGD"
	authorClass    = "WSJTheme--byline--1oIUvtQ3"
	paragraphClass = "Paragraph-sc-u5wzz1-0 cStoSw"
	bodyClass0     = "ArticleBody__Container-sc-1h79tj2-0 eijvTq"
	bodyClass1     = "article-content"
	bodyClass2     = "WSJTheme--player--1m1cgHQM"
	bodyClass3     = "article_content"
)

// Counter locates one engagement count inside a post
type Counter struct {
	Name      string `toml:"name"`      // Output column, e.g. Num_Reply
	Container string `toml:"container"` // Element holding the count
	Value     string `toml:"value"`     // Element inside Container whose text is the count
}

// PostProfile holds the selectors for social-post markup. Field selectors are tried
// in order and the first non-empty match wins.
type PostProfile struct {
	Record    string    `toml:"record"`
	Header    string    `toml:"header"` // Scope for author, sentiment and timestamp
	Author    []string  `toml:"author"`
	Sentiment []string  `toml:"sentiment"`
	Timestamp []string  `toml:"timestamp"`
	Body      []string  `toml:"body"`
	Counters  []Counter `toml:"counters"`
}

// BodyContainer is one article body layout
type BodyContainer struct {
	Container string `toml:"container"`
	Paragraph string `toml:"paragraph"`
}

// ArticleProfile holds the selectors for news search results and article pages
type ArticleProfile struct {
	BaseURL   string          `toml:"base_url"` // Relative links resolve against this
	Record    string          `toml:"record"`
	Title     []string        `toml:"title"`
	Link      string          `toml:"link"`
	Authors   []string        `toml:"authors"`
	Timestamp []string        `toml:"timestamp"`
	Bodies    []BodyContainer `toml:"bodies"` // Tried in order
}

// Profiles groups both markup profiles as they appear in a profile file
type Profiles struct {
	Posts    PostProfile    `toml:"posts"`
	Articles ArticleProfile `toml:"articles"`
}

// DefaultPostProfile returns the selectors for the Stocktwits symbol stream
func DefaultPostProfile() PostProfile {
	return PostProfile{
		Record:    classSelector("div", postClass),
		Header:    classSelector("div", headerClass),
		Author:    []string{classSelector("a", userNameClass) + " span", classSelector("a", userNameClass)},
		Sentiment: []string{classSelector("div", sentimentClass)},
		Timestamp: []string{classSelector("a", timeStampClass)},
		Body:      []string{classSelector("div", contentClass)},
		Counters: []Counter{
			{Name: "Num_Reply", Container: `div[title="Reply"]`, Value: classSelector("span", rateClass)},
			{Name: "Num_Like", Container: `div[title="Like"]`, Value: classSelector("span", rateClass)},
		},
	}
}

// DefaultArticleProfile returns the selectors for WSJ search results and articles
func DefaultArticleProfile() ArticleProfile {
	return ArticleProfile{
		BaseURL:   "https://www.wsj.com",
		Record:    classSelector("div", infoClass),
		Title:     []string{classSelector("span", titleClass)},
		Link:      "a[href]",
		Authors:   []string{classSelector("p", authorClass)},
		Timestamp: []string{classSelector("div", timeClass) + " p", classSelector("div", timeClass)},
		Bodies: []BodyContainer{
			{Container: classSelector("section", bodyClass0), Paragraph: classSelector("p", paragraphClass)},
			{Container: classSelector("div", bodyClass1), Paragraph: "p"},
			{Container: classSelector("div", bodyClass2), Paragraph: "p"},
			{Container: classSelector("div", bodyClass3), Paragraph: "p"},
		},
	}
}

// DefaultProfiles returns both default profiles
func DefaultProfiles() Profiles {
	return Profiles{
		Posts:    DefaultPostProfile(),
		Articles: DefaultArticleProfile(),
	}
}

// LoadProfiles overlays the TOML profile file at path on the defaults. Keys absent
// from the file keep their default selectors. An empty path returns the defaults.
func LoadProfiles(path string) (Profiles, error) {
	profiles := DefaultProfiles()
	if path == "" {
		return profiles, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return profiles, fmt.Errorf("failed to read profile file %s: %w", path, err)
	}

	var overlay Profiles
	if err := toml.Unmarshal(data, &overlay); err != nil {
		return profiles, fmt.Errorf("failed to parse profile file %s: %w", path, err)
	}

	profiles.Posts.merge(overlay.Posts)
	profiles.Articles.merge(overlay.Articles)
	return profiles, nil
}

func (p *PostProfile) merge(o PostProfile) {
	mergeString(&p.Record, o.Record)
	mergeString(&p.Header, o.Header)
	mergeStrings(&p.Author, o.Author)
	mergeStrings(&p.Sentiment, o.Sentiment)
	mergeStrings(&p.Timestamp, o.Timestamp)
	mergeStrings(&p.Body, o.Body)
	if len(o.Counters) > 0 {
		p.Counters = o.Counters
	}
}

func (p *ArticleProfile) merge(o ArticleProfile) {
	mergeString(&p.BaseURL, o.BaseURL)
	mergeString(&p.Record, o.Record)
	mergeStrings(&p.Title, o.Title)
	mergeString(&p.Link, o.Link)
	mergeStrings(&p.Authors, o.Authors)
	mergeStrings(&p.Timestamp, o.Timestamp)
	if len(o.Bodies) > 0 {
		p.Bodies = o.Bodies
	}
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeStrings(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = v
	}
}

// CounterNames returns the engagement column names in profile order
func (p PostProfile) CounterNames() []string {
	names := make([]string, 0, len(p.Counters))
	for _, c := range p.Counters {
		names = append(names, c.Name)
	}
	return names
}

// classSelector turns a space-separated class attribute into a compound selector,
// e.g. ("div", "a b") -> "div.a.b"
func classSelector(tag, classes string) string {
	var b strings.Builder
	b.WriteString(tag)
	for _, class := range strings.Fields(classes) {
		b.WriteString(".")
		b.WriteString(escapeClass(class))
	}
	return b.String()
}

// escapeClass escapes characters that are not valid in a bare CSS identifier
func escapeClass(class string) string {
	var b strings.Builder
	for i, r := range class {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '-', r > 0x7f:
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				fmt.Fprintf(&b, "\\%x ", r)
			} else {
				b.WriteRune(r)
			}
		default:
			fmt.Fprintf(&b, "\\%c", r)
		}
	}
	return b.String()
}
