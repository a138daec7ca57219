// Package events discovers community events from free sources, qualifies
// them against the tracked keyword, and extracts structured details from
// schema.org JSON-LD with meta-tag and regex fallbacks.
package events

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/clawbeat/clawbeat/pkg/hn"
)

const (
	maxGoogleNewsEntries = 20
	maxRedditEntries     = 25
	hnHitsPerPage        = 20
)

// Candidate is one discovered link that mentioned the keyword in its
// title or summary. Published carries the feed entry date when known.
type Candidate struct {
	Title     string
	URL       string
	Summary   string
	Published *time.Time
}

// Scanner discovers event candidates from one source.
type Scanner interface {
	Name() string
	Scan(ctx context.Context) ([]Candidate, error)
}

// isCandidate is the cheap pre-filter applied before any page fetch.
func isCandidate(keyword, title, summary string) bool {
	return strings.Contains(strings.ToLower(title+" "+summary), keyword)
}

// Deduplicate drops repeat URLs, keeping the first occurrence.
func Deduplicate(candidates []Candidate) []Candidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		out = append(out, c)
	}
	return out
}

// GoogleNewsScanner searches Google News RSS for each configured event query.
type GoogleNewsScanner struct {
	parser  *gofeed.Parser
	baseURL string
	keyword string
	queries []string
	pacing  *rate.Limiter
}

// GoogleNewsOption configures a GoogleNewsScanner.
type GoogleNewsOption func(*GoogleNewsScanner)

// WithGoogleNewsBaseURL overrides the RSS endpoint, for testing.
func WithGoogleNewsBaseURL(u string) GoogleNewsOption {
	return func(s *GoogleNewsScanner) { s.baseURL = u }
}

// NewGoogleNewsScanner returns a scanner over the given search queries.
func NewGoogleNewsScanner(keyword string, queries []string, opts ...GoogleNewsOption) *GoogleNewsScanner {
	s := &GoogleNewsScanner{
		parser:  gofeed.NewParser(),
		baseURL: "https://news.google.com/rss/search",
		keyword: strings.ToLower(keyword),
		queries: queries,
		pacing:  rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GoogleNewsScanner) Name() string { return "google-news-events" }

func (s *GoogleNewsScanner) Scan(ctx context.Context) ([]Candidate, error) {
	var found []Candidate
	for _, query := range s.queries {
		if err := s.pacing.Wait(ctx); err != nil {
			return found, err
		}
		feedURL := fmt.Sprintf("%s?q=%s&hl=en-US&gl=US&ceid=US:en", s.baseURL, url.QueryEscape(query))
		feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			zap.L().Warn("google news event scan failed",
				zap.String("query", query), zap.Error(err))
			continue
		}
		found = append(found, s.collect(feed, maxGoogleNewsEntries)...)
	}
	return found, nil
}

func (s *GoogleNewsScanner) collect(feed *gofeed.Feed, limit int) []Candidate {
	var out []Candidate
	for i, item := range feed.Items {
		if i >= limit {
			break
		}
		if item.Link == "" || !isCandidate(s.keyword, item.Title, item.Description) {
			continue
		}
		out = append(out, Candidate{
			Title:     item.Title,
			URL:       item.Link,
			Summary:   item.Description,
			Published: entryTime(item),
		})
	}
	return out
}

// RedditScanner searches Reddit's public search RSS for each configured term.
type RedditScanner struct {
	parser  *gofeed.Parser
	baseURL string
	keyword string
	terms   []string
	pacing  *rate.Limiter
}

// RedditOption configures a RedditScanner.
type RedditOption func(*RedditScanner)

// WithRedditBaseURL overrides the RSS endpoint, for testing.
func WithRedditBaseURL(u string) RedditOption {
	return func(s *RedditScanner) { s.baseURL = u }
}

// NewRedditScanner returns a scanner over the given search terms. Reddit
// rejects the default Go user agent, so a custom one is required.
func NewRedditScanner(keyword, userAgent string, terms []string, opts ...RedditOption) *RedditScanner {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	s := &RedditScanner{
		parser:  parser,
		baseURL: "https://www.reddit.com/search.rss",
		keyword: strings.ToLower(keyword),
		terms:   terms,
		pacing:  rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedditScanner) Name() string { return "reddit-events" }

func (s *RedditScanner) Scan(ctx context.Context) ([]Candidate, error) {
	var found []Candidate
	for _, term := range s.terms {
		if err := s.pacing.Wait(ctx); err != nil {
			return found, err
		}
		feedURL := fmt.Sprintf("%s?q=%s&sort=new&limit=%d", s.baseURL, url.QueryEscape(term), maxRedditEntries)
		feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			zap.L().Warn("reddit event scan failed",
				zap.String("term", term), zap.Error(err))
			continue
		}
		for i, item := range feed.Items {
			if i >= maxRedditEntries {
				break
			}
			if item.Link == "" || !isCandidate(s.keyword, item.Title, item.Description) {
				continue
			}
			found = append(found, Candidate{
				Title:     item.Title,
				URL:       item.Link,
				Summary:   item.Description,
				Published: entryTime(item),
			})
		}
	}
	return found, nil
}

// HNScanner searches Hacker News stories via the Algolia API.
type HNScanner struct {
	client  hn.Client
	keyword string
	query   string
}

// NewHNScanner returns a scanner backed by the given Algolia client.
func NewHNScanner(client hn.Client, keyword string) *HNScanner {
	return &HNScanner{client: client, keyword: strings.ToLower(keyword), query: keyword + " event"}
}

func (s *HNScanner) Name() string { return "hn-events" }

func (s *HNScanner) Scan(ctx context.Context) ([]Candidate, error) {
	hits, err := s.client.SearchStories(ctx, s.query, hnHitsPerPage)
	if err != nil {
		return nil, err
	}
	var found []Candidate
	for _, hit := range hits {
		if !isCandidate(s.keyword, hit.Title, "") {
			continue
		}
		found = append(found, Candidate{Title: hit.Title, URL: hit.Link()})
	}
	return found, nil
}

func entryTime(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	return item.UpdatedParsed
}
