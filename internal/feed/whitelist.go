package feed

import (
	"context"
	"os"

	"github.com/mmcdole/gofeed"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/clawbeat/clawbeat/internal/model"
	"github.com/clawbeat/clawbeat/internal/resilience"
)

// Site is one whitelisted outlet.
type Site struct {
	Name             string `yaml:"name"`
	RSS              string `yaml:"rss"`
	YouTubeChannelID string `yaml:"youtube_channel_id"`
}

// Whitelist is the curated source list driving RSS and video discovery.
type Whitelist struct {
	Sites []Site `yaml:"sites"`
}

// LoadWhitelist reads the whitelist YAML file. A missing file yields an
// empty whitelist, not an error, so a fresh checkout still runs.
func LoadWhitelist(path string) (*Whitelist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			zap.L().Warn("whitelist file not found", zap.String("path", path))
			return &Whitelist{}, nil
		}
		return nil, eris.Wrapf(err, "feed: read whitelist %s", path)
	}
	var wl Whitelist
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, eris.Wrapf(err, "feed: parse whitelist %s", path)
	}
	return &wl, nil
}

// ChannelIDs returns the YouTube channel IDs present in the whitelist.
func (w *Whitelist) ChannelIDs() []string {
	var ids []string
	for _, s := range w.Sites {
		if s.YouTubeChannelID != "" {
			ids = append(ids, s.YouTubeChannelID)
		}
	}
	return ids
}

// maxEntriesPerFeed bounds how deep into each whitelist feed a run looks.
const maxEntriesPerFeed = 15

// RSSAdapter scans every whitelisted site feed for keyword-matching
// articles.
type RSSAdapter struct {
	sites  []Site
	norm   *Normalizer
	parser *gofeed.Parser
	retry  resilience.RetryConfig
}

// NewRSSAdapter builds the whitelist RSS adapter.
func NewRSSAdapter(wl *Whitelist, norm *Normalizer, userAgent string) *RSSAdapter {
	parser := gofeed.NewParser()
	if userAgent != "" {
		parser.UserAgent = userAgent
	}
	return &RSSAdapter{
		sites:  wl.Sites,
		norm:   norm,
		parser: parser,
		retry:  resilience.DefaultRetryConfig(),
	}
}

func (a *RSSAdapter) Name() string { return "whitelist-rss" }

// Fetch walks every site feed. A single site failing is logged and
// skipped; the adapter only errors when it has no sites at all to scan.
func (a *RSSAdapter) Fetch(ctx context.Context) ([]*model.Article, error) {
	var found []*model.Article
	for _, site := range a.sites {
		if site.RSS == "" || site.RSS == "N/A" {
			continue
		}

		parsed, err := resilience.DoVal(ctx, a.retry, func(ctx context.Context) (*gofeed.Feed, error) {
			return a.parser.ParseURLWithContext(site.RSS, ctx)
		})
		if err != nil {
			zap.L().Warn("site feed failed",
				zap.String("site", site.Name),
				zap.String("rss", site.RSS),
				zap.Error(err),
			)
			continue
		}

		entries := parsed.Items
		if len(entries) > maxEntriesPerFeed {
			entries = entries[:maxEntriesPerFeed]
		}
		for _, item := range entries {
			summary := StripHTML(item.Description)
			if !a.norm.MatchesKeyword(item.Title, summary) {
				continue
			}
			art, err := a.norm.Article(RawRecord{
				Title:     item.Title,
				URL:       item.Link,
				Summary:   item.Description,
				Source:    site.Name,
				Published: item.PublishedParsed,
			})
			if err != nil {
				zap.L().Warn("dropping malformed record",
					zap.String("site", site.Name),
					zap.String("title", item.Title),
					zap.Error(err),
				)
				continue
			}
			found = append(found, art)
		}
	}
	return found, nil
}
