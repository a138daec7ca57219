package rubric

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/clawbeat/clawbeat/internal/model"
	"github.com/clawbeat/clawbeat/internal/store"
	"github.com/clawbeat/clawbeat/pkg/github"
)

const (
	listPageSize    = 1000
	upsertBatchSize = 200
)

// Stats summarizes one backfill pass.
type Stats struct {
	Discovered int                      // repos returned by the GitHub search
	Scored     int                      // store rows rescored
	Enriched   int                      // rows whose pushed_at was refreshed
	Tiers      map[model.RubricTier]int // tier breakdown after scoring
}

// Backfill rescores every tracked project. A GitHub search refreshes
// pushed_at first so activity scores reflect reality, and folds newly
// discovered repositories into the index.
type Backfill struct {
	gh     github.Client
	store  store.Store
	scorer *Scorer
	query  string
	now    func() time.Time
}

// NewBackfill wires the GitHub client and store for the given search query.
func NewBackfill(gh github.Client, st store.Store, query string) *Backfill {
	return &Backfill{
		gh:     gh,
		store:  st,
		scorer: NewScorer(),
		query:  query,
		now:    time.Now,
	}
}

// Run executes the four backfill phases: list, discover, score, upsert.
func (b *Backfill) Run(ctx context.Context) (Stats, error) {
	started := b.now().UTC()
	stats := Stats{Tiers: make(map[model.RubricTier]int)}

	// Phase 1: page through every stored project.
	var all []model.Project
	known := make(map[string]bool)
	for offset := 0; ; offset += listPageSize {
		page, err := b.store.ListProjects(ctx, offset, listPageSize)
		if err != nil {
			return stats, eris.Wrap(err, "backfill: list projects")
		}
		all = append(all, page...)
		for _, p := range page {
			known[p.URL] = true
		}
		if len(page) < listPageSize {
			break
		}
	}

	// Phase 2: refresh pushed_at from the Search API and fold in repos
	// not yet tracked. Partial search results are still useful.
	repos, err := b.gh.SearchRepositories(ctx, b.query)
	if err != nil {
		zap.L().Warn("github search incomplete, continuing with partial results",
			zap.Int("repos", len(repos)), zap.Error(err))
	}
	stats.Discovered = len(repos)

	pushedAt := make(map[string]string, len(repos))
	var fresh []*model.Project
	for _, r := range repos {
		pushedAt[r.HTMLURL] = r.PushedAt
		if !known[r.HTMLURL] {
			fresh = append(fresh, repoToProject(r))
		}
	}
	if len(fresh) > 0 {
		if _, err := b.store.UpsertProjects(ctx, fresh); err != nil {
			return stats, eris.Wrap(err, "backfill: store discovered repos")
		}
		for _, p := range fresh {
			all = append(all, *p)
		}
	}
	zap.L().Info("github discovery complete",
		zap.Int("repos", len(repos)), zap.Int("new", len(fresh)))

	// Phase 3: score with the refreshed pushed_at.
	updates := make([]*model.Project, 0, len(all))
	for i := range all {
		p := all[i]
		if gh := pushedAt[p.URL]; gh != "" && gh != p.PushedAt {
			p.PushedAt = gh
			stats.Enriched++
		}
		p.RubricScore, p.RubricTier = b.scorer.Score(&p)
		stats.Tiers[p.RubricTier]++
		updates = append(updates, &p)
	}
	stats.Scored = len(updates)

	// Phase 4: write scores back in batches.
	for i := 0; i < len(updates); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(updates))
		if _, err := b.store.UpsertProjectScores(ctx, updates[i:end]); err != nil {
			return stats, eris.Wrapf(err, "backfill: upsert batch at %d", i)
		}
	}

	if err := b.store.RecordScanRun(ctx, store.ScanRun{
		Kind:       "backfill",
		StartedAt:  started,
		FinishedAt: b.now().UTC(),
		Items:      stats.Scored,
	}); err != nil {
		zap.L().Warn("could not record scan run", zap.Error(err))
	}

	zap.L().Info("backfill complete",
		zap.Int("scored", stats.Scored),
		zap.Int("enriched", stats.Enriched),
		zap.Int("featured", stats.Tiers[model.TierFeatured]),
		zap.Int("listed", stats.Tiers[model.TierListed]),
	)
	return stats, nil
}

func repoToProject(r github.Repo) *model.Project {
	return &model.Project{
		URL:         r.HTMLURL,
		Name:        r.Name,
		Owner:       r.Owner.Login,
		Description: r.Description,
		Stars:       r.Stars,
		Forks:       r.Forks,
		License:     r.LicenseID(),
		Topics:      r.Topics,
		OpenIssues:  r.OpenIssues,
		Archived:    r.Archived,
		CreatedAt:   r.CreatedAt,
		PushedAt:    r.PushedAt,
	}
}
