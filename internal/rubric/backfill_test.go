package rubric

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawbeat/clawbeat/internal/model"
	"github.com/clawbeat/clawbeat/internal/store"
	"github.com/clawbeat/clawbeat/pkg/github"
)

type fakeGitHub struct {
	repos []github.Repo
	err   error
}

func (f *fakeGitHub) SearchRepositories(context.Context, string) ([]github.Repo, error) {
	return f.repos, f.err
}

type fakeProjectStore struct {
	projects     map[string]*model.Project
	scoreBatches [][]int
	scanRuns     []store.ScanRun
}

func newFakeProjectStore(projects ...*model.Project) *fakeProjectStore {
	s := &fakeProjectStore{projects: make(map[string]*model.Project)}
	for _, p := range projects {
		s.projects[p.URL] = p
	}
	return s
}

func (f *fakeProjectStore) UpsertProjects(_ context.Context, projects []*model.Project) (int, error) {
	for _, p := range projects {
		cp := *p
		f.projects[p.URL] = &cp
	}
	return len(projects), nil
}

func (f *fakeProjectStore) ListProjects(_ context.Context, offset, limit int) ([]model.Project, error) {
	var urls []string
	for u := range f.projects {
		urls = append(urls, u)
	}
	// Deterministic order is not needed here; paging just has to cover
	// every row exactly once.
	var out []model.Project
	for i, u := range urls {
		if i < offset || i >= offset+limit {
			continue
		}
		out = append(out, *f.projects[u])
	}
	return out, nil
}

func (f *fakeProjectStore) UpsertProjectScores(_ context.Context, projects []*model.Project) (int, error) {
	f.scoreBatches = append(f.scoreBatches, []int{len(projects)})
	for _, p := range projects {
		if existing, ok := f.projects[p.URL]; ok {
			existing.RubricScore = p.RubricScore
			existing.RubricTier = p.RubricTier
			existing.PushedAt = p.PushedAt
		}
	}
	return len(projects), nil
}

func (f *fakeProjectStore) UpsertEvents(context.Context, []*model.Event) (int, error) { return 0, nil }
func (f *fakeProjectStore) ListEventURLs(context.Context) (map[string]bool, error)    { return nil, nil }
func (f *fakeProjectStore) ListEvents(context.Context, int) ([]model.Event, error)    { return nil, nil }

func (f *fakeProjectStore) RecordScanRun(_ context.Context, run store.ScanRun) error {
	f.scanRuns = append(f.scanRuns, run)
	return nil
}

func (f *fakeProjectStore) Migrate(context.Context) error { return nil }
func (f *fakeProjectStore) Close() error                  { return nil }

func searchRepo(name, owner string, stars int, pushedAt string) github.Repo {
	r := github.Repo{
		Name:     name,
		HTMLURL:  "https://github.com/" + owner + "/" + name,
		Stars:    stars,
		PushedAt: pushedAt,
	}
	r.Owner.Login = owner
	return r
}

func newTestBackfill(gh github.Client, st store.Store) *Backfill {
	b := NewBackfill(gh, st, "openclaw")
	b.scorer = testScorer()
	b.now = func() time.Time {
		return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	}
	return b
}

func TestBackfill_Run(t *testing.T) {
	stale := &model.Project{
		URL:       "https://github.com/acme/claw-kit",
		Name:      "claw-kit",
		Owner:     "acme",
		License:   "MIT",
		Stars:     100,
		Forks:     10,
		CreatedAt: "2025-01-01T00:00:00Z",
		PushedAt:  "2025-06-01T00:00:00Z", // stale; search result is newer
	}
	st := newFakeProjectStore(stale)

	gh := &fakeGitHub{repos: []github.Repo{
		searchRepo("claw-kit", "acme", 100, "2026-02-25T00:00:00Z"),
		searchRepo("molt-router", "acme", 50, "2026-02-01T00:00:00Z"),
	}}

	stats, err := newTestBackfill(gh, st).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Discovered)
	assert.Equal(t, 2, stats.Scored)
	// claw-kit's pushed_at refresh comes from the lookup; molt-router was
	// inserted with the fresh value already.
	assert.Equal(t, 1, stats.Enriched)

	kit := st.projects["https://github.com/acme/claw-kit"]
	require.NotNil(t, kit)
	assert.Equal(t, "2026-02-25T00:00:00Z", kit.PushedAt)
	assert.Positive(t, kit.RubricScore)
	assert.NotEqual(t, model.RubricTier(""), kit.RubricTier)

	require.Len(t, st.scanRuns, 1)
	assert.Equal(t, "backfill", st.scanRuns[0].Kind)
	assert.Equal(t, 2, st.scanRuns[0].Items)
}

func TestBackfill_SearchFailureStillScoresStoredRows(t *testing.T) {
	existing := &model.Project{
		URL:      "https://github.com/acme/claw-kit",
		Name:     "claw-kit",
		License:  "MIT",
		Stars:    10,
		PushedAt: "2026-02-20T00:00:00Z",
	}
	st := newFakeProjectStore(existing)
	gh := &fakeGitHub{err: eris.New("rate limited")}

	stats, err := newTestBackfill(gh, st).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Discovered)
	assert.Equal(t, 1, stats.Scored)
	assert.Positive(t, st.projects[existing.URL].RubricScore)
}

func TestBackfill_BatchesOfTwoHundred(t *testing.T) {
	var projects []*model.Project
	for i := 0; i < 450; i++ {
		projects = append(projects, &model.Project{
			URL:      "https://github.com/acme/claw-" + string(rune('a'+i%26)) + string(rune('0'+i/26%10)) + string(rune('0'+i/260)),
			Name:     "claw-kit",
			License:  "MIT",
			PushedAt: "2026-02-20T00:00:00Z",
		})
	}
	st := newFakeProjectStore(projects...)

	stats, err := newTestBackfill(&fakeGitHub{}, st).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 450, stats.Scored)
	require.Len(t, st.scoreBatches, 3)
	assert.Equal(t, []int{200}, st.scoreBatches[0])
	assert.Equal(t, []int{200}, st.scoreBatches[1])
	assert.Equal(t, []int{50}, st.scoreBatches[2])
}
