package feed

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/clawbeat/clawbeat/internal/model"
)

// ErrMalformedRecord marks a raw record missing a resolvable URL or a
// title. Such records are dropped with a warning, never fatally.
var ErrMalformedRecord = eris.New("feed: malformed record")

// summaryLimit bounds stored summaries; whole feed bodies are not useful
// past this.
const summaryLimit = 200

// RawRecord is an adapter-neutral view of one feed entry before
// normalization.
type RawRecord struct {
	Title     string
	URL       string
	Summary   string // may contain HTML
	Source    string
	Published *time.Time
}

// Normalizer converts raw source records into articles and classifies
// their provenance.
type Normalizer struct {
	keywords      []string
	prioritySites []string
	delistSites   []string
	bannedSources []string
	now           func() time.Time
}

// NewNormalizer builds a normalizer with lowercase-matched keyword and
// site lists.
func NewNormalizer(keywords, prioritySites, delistSites, bannedSources []string) *Normalizer {
	return &Normalizer{
		keywords:      lowerAll(keywords),
		prioritySites: lowerAll(prioritySites),
		delistSites:   lowerAll(delistSites),
		bannedSources: lowerAll(bannedSources),
		now:           time.Now,
	}
}

// Article converts a raw record into an article with the embedding slot
// empty. Records without a resolvable URL or a title are rejected with
// ErrMalformedRecord.
func (n *Normalizer) Article(raw RawRecord) (*model.Article, error) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return nil, eris.Wrap(ErrMalformedRecord, "missing title")
	}
	u, err := url.Parse(strings.TrimSpace(raw.URL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, eris.Wrap(ErrMalformedRecord, "missing or unresolvable url")
	}

	summary := StripHTML(raw.Summary)
	if len(summary) > summaryLimit {
		summary = truncate(summary, summaryLimit) + "..."
	}

	published := n.now()
	if raw.Published != nil {
		published = *raw.Published
	}

	return &model.Article{
		URL:        u.String(),
		Title:      title,
		Summary:    summary,
		Source:     raw.Source,
		SourceType: n.SourceType(u.String(), raw.Source),
		Date:       published.Format(model.DateLayout),
		Density:    n.Density(title, summary),
	}, nil
}

// Density counts keyword occurrences across title and summary. Zero for
// articles that matched only through their feed query.
func (n *Normalizer) Density(title, summary string) int {
	text := strings.ToLower(title + " " + summary)
	total := 0
	for _, kw := range n.keywords {
		total += strings.Count(text, kw)
	}
	return total
}

// MatchesKeyword reports whether any tracked keyword appears in the
// title or summary. Used as the adapter-side candidate pre-filter.
func (n *Normalizer) MatchesKeyword(title, summary string) bool {
	text := strings.ToLower(title + " " + summary)
	for _, kw := range n.keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// SourceType classifies an article's provenance: delisted wire services
// are dropped before persistence, priority outlets get AI briefs.
func (n *Normalizer) SourceType(rawURL, sourceName string) model.SourceType {
	urlLower := strings.ToLower(rawURL)
	sourceLower := strings.ToLower(sourceName)
	for _, site := range n.delistSites {
		if strings.Contains(urlLower, site) {
			return model.SourceTypeDelist
		}
	}
	for _, banned := range n.bannedSources {
		if strings.Contains(sourceLower, banned) {
			return model.SourceTypeDelist
		}
	}
	for _, site := range n.prioritySites {
		if strings.Contains(urlLower, site) {
			return model.SourceTypePriority
		}
	}
	return model.SourceTypeStandard
}

// StripHTML reduces an HTML fragment to its plain text.
func StripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// truncate cuts s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
