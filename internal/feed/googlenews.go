package feed

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mmcdole/gofeed"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/clawbeat/clawbeat/internal/model"
	"github.com/clawbeat/clawbeat/internal/resilience"
)

// googleNewsSource is the provenance label for search-discovered articles.
const googleNewsSource = "Web Search"

// maxGoogleNewsEntries bounds one search scan.
const maxGoogleNewsEntries = 50

// GoogleNewsAdapter discovers articles through a Google News RSS keyword
// search.
type GoogleNewsAdapter struct {
	baseURL string
	query   string
	norm    *Normalizer
	parser  *gofeed.Parser
	retry   resilience.RetryConfig
}

// GoogleNewsOption configures the adapter.
type GoogleNewsOption func(*GoogleNewsAdapter)

// WithGoogleNewsBaseURL overrides the feed host (for testing).
func WithGoogleNewsBaseURL(base string) GoogleNewsOption {
	return func(a *GoogleNewsAdapter) {
		a.baseURL = base
	}
}

// NewGoogleNewsAdapter builds the search adapter for the given OR-joined
// keyword query.
func NewGoogleNewsAdapter(query string, norm *Normalizer, opts ...GoogleNewsOption) *GoogleNewsAdapter {
	a := &GoogleNewsAdapter{
		baseURL: "https://news.google.com",
		query:   query,
		norm:    norm,
		parser:  gofeed.NewParser(),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *GoogleNewsAdapter) Name() string { return "google-news" }

func (a *GoogleNewsAdapter) Fetch(ctx context.Context) ([]*model.Article, error) {
	feedURL := fmt.Sprintf("%s/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en",
		a.baseURL, url.QueryEscape(a.query))

	parsed, err := resilience.DoVal(ctx, a.retry, func(ctx context.Context) (*gofeed.Feed, error) {
		return a.parser.ParseURLWithContext(feedURL, ctx)
	})
	if err != nil {
		return nil, eris.Wrap(err, "feed: google news scan")
	}

	entries := parsed.Items
	if len(entries) > maxGoogleNewsEntries {
		entries = entries[:maxGoogleNewsEntries]
	}

	var found []*model.Article
	for _, item := range entries {
		art, err := a.norm.Article(RawRecord{
			Title:     item.Title,
			URL:       item.Link,
			Summary:   "Ecosystem update.",
			Source:    googleNewsSource,
			Published: item.PublishedParsed,
		})
		if err != nil {
			zap.L().Warn("dropping malformed record",
				zap.String("adapter", a.Name()),
				zap.String("title", item.Title),
				zap.Error(err),
			)
			continue
		}
		found = append(found, art)
	}
	return found, nil
}
