// Package forge runs the intel feed pipeline: discover articles, generate
// briefs for priority coverage, cluster near-duplicates, and write the
// snapshot back atomically.
package forge

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/clawbeat/clawbeat/internal/cluster"
	"github.com/clawbeat/clawbeat/internal/feed"
	"github.com/clawbeat/clawbeat/internal/model"
	"github.com/clawbeat/clawbeat/internal/store"
	"github.com/clawbeat/clawbeat/pkg/brief"
)

// Options bound the pipeline's feed window and brief generation.
type Options struct {
	MaxItems       int           // persisted feed cap; 0 means unbounded
	FreshnessHours int           // non-keyword articles older than this drop out
	MaxBriefs      int           // AI briefs per run
	BriefPause     time.Duration // pause between brief requests
	ScanResearch   bool          // include the arXiv research pass
}

// Stats summarizes one forge run.
type Stats struct {
	Fetched   int // articles discovered this run
	Fresh     int // survived dedup and delist filtering
	Briefed   int // priority articles given an AI brief
	Items     int // snapshot size after cluster and merge
	NewPapers int
	Videos    int
}

// Pipeline wires the discovery adapters, the clustering engine and the
// enrichment sources around a snapshot store.
type Pipeline struct {
	feedStore  store.FeedStore
	adapters   []feed.Adapter
	norm       *feed.Normalizer
	engine     *cluster.Engine
	summarizer brief.Summarizer
	research   ResearchSource
	videos     VideoSource
	opts       Options

	briefPacer *rate.Limiter
	now        func() time.Time
}

// New assembles a forge pipeline. The summarizer, research and video
// sources may be nil, which disables the corresponding stage.
func New(
	feedStore store.FeedStore,
	adapters []feed.Adapter,
	norm *feed.Normalizer,
	engine *cluster.Engine,
	summarizer brief.Summarizer,
	research ResearchSource,
	videos VideoSource,
	opts Options,
) *Pipeline {
	pacer := rate.NewLimiter(rate.Inf, 1)
	if opts.BriefPause > 0 {
		pacer = rate.NewLimiter(rate.Every(opts.BriefPause), 1)
	}
	return &Pipeline{
		feedStore:  feedStore,
		adapters:   adapters,
		norm:       norm,
		engine:     engine,
		summarizer: summarizer,
		research:   research,
		videos:     videos,
		opts:       opts,
		briefPacer: pacer,
		now:        time.Now,
	}
}

// Run executes one forge pass. Discovery and enrichment failures degrade
// to whatever data is available; only a failed snapshot write is fatal.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	snap, err := p.feedStore.Load(ctx)
	if err != nil {
		return stats, eris.Wrap(err, "forge: load snapshot")
	}

	found := feed.FetchAll(ctx, p.adapters)
	stats.Fetched = len(found)

	fresh := p.filterFresh(ctx, snap.Items, found, &stats)
	stats.Fresh = len(fresh)

	kept := p.applyRetention(snap.Items)
	freshKept := p.applyRetention(fresh)

	items, err := p.engine.Run(ctx, freshKept, kept, p.opts.MaxItems)
	if err != nil {
		return stats, eris.Wrap(err, "forge: cluster")
	}
	snap.Items = items
	stats.Items = len(items)

	if p.opts.ScanResearch && p.research != nil {
		p.mergeResearch(ctx, snap, &stats)
	}

	if p.videos != nil {
		if videos, err := p.videos.Videos(ctx); err != nil {
			zap.L().Warn("video refresh failed, keeping existing videos", zap.Error(err))
		} else if videos != nil {
			snap.Videos = videos
			stats.Videos = len(videos)
		}
	}

	if err := p.feedStore.Save(ctx, snap); err != nil {
		return stats, eris.Wrap(err, "forge: save snapshot")
	}

	zap.L().Info("forge run complete",
		zap.Int("fetched", stats.Fetched),
		zap.Int("fresh", stats.Fresh),
		zap.Int("briefed", stats.Briefed),
		zap.Int("items", stats.Items),
	)
	return stats, nil
}

// filterFresh drops already-known URLs and delisted sources, and rewrites
// priority summaries into AI briefs up to the per-run budget.
func (p *Pipeline) filterFresh(ctx context.Context, existing, found []*model.Article, stats *Stats) []*model.Article {
	known := make(map[string]bool, len(existing))
	for _, item := range existing {
		known[item.URL] = true
	}

	var fresh []*model.Article
	for _, a := range found {
		if known[a.URL] {
			continue
		}
		known[a.URL] = true
		if a.SourceType == model.SourceTypeDelist {
			continue
		}

		if a.SourceType == model.SourceTypePriority && p.summarizer != nil && stats.Briefed < p.opts.MaxBriefs {
			if err := p.briefPacer.Wait(ctx); err != nil {
				fresh = append(fresh, a)
				continue
			}
			text, err := p.summarizer.Brief(ctx, a.Title, a.Summary)
			a.Summary = brief.OrFallback(text, err)
			stats.Briefed++
		}
		fresh = append(fresh, a)
	}
	return fresh
}

// applyRetention keeps articles that either mention a tracked keyword or
// are younger than the freshness window. Articles with unparsable dates
// count as fresh.
func (p *Pipeline) applyRetention(items []*model.Article) []*model.Article {
	if p.opts.FreshnessHours <= 0 {
		return items
	}
	threshold := p.now().Add(-time.Duration(p.opts.FreshnessHours) * time.Hour)

	var kept []*model.Article
	for _, a := range items {
		if p.norm.MatchesKeyword(a.Title, a.Summary) {
			kept = append(kept, a)
			continue
		}
		bucket, ok := a.Bucket()
		if !ok || bucket.After(threshold) {
			kept = append(kept, a)
		}
	}
	return kept
}

// mergeResearch appends newly discovered papers. An empty arXiv result or
// a fetch error keeps the existing section untouched.
func (p *Pipeline) mergeResearch(ctx context.Context, snap *model.FeedSnapshot, stats *Stats) {
	papers, err := p.research.Papers(ctx)
	if err != nil {
		zap.L().Warn("research scan failed, keeping existing papers", zap.Error(err))
		return
	}
	if len(papers) == 0 {
		zap.L().Info("arxiv returned no results, keeping existing papers")
		return
	}

	seen := make(map[string]bool, len(snap.Research))
	for _, paper := range snap.Research {
		seen[paper.URL] = true
	}
	for _, paper := range papers {
		if seen[paper.URL] {
			continue
		}
		snap.Research = append(snap.Research, paper)
		stats.NewPapers++
	}
}
