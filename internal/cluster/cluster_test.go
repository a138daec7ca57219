package cluster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawbeat/clawbeat/internal/model"
)

// unitVec returns a 2D unit vector at the given angle, so that the cosine
// similarity of two vectors equals the cosine of the angle between them.
func unitVec(rad float64) []float64 {
	return []float64{math.Cos(rad), math.Sin(rad)}
}

func art(url, title, date string, density int, vec []float64) *model.Article {
	return &model.Article{
		URL:     url,
		Title:   title,
		Summary: "summary",
		Source:  "Test Source",
		Date:    date,
		Density: density,
		Vec:     vec,
	}
}

func TestCosine(t *testing.T) {
	sim, err := Cosine([]float64{1, 0}, []float64{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)

	sim, err = Cosine([]float64{1, 0}, []float64{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-9)

	sim, err = Cosine([]float64{1, 0}, []float64{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-9)
}

func TestCosine_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
	}{
		{"zero magnitude left", []float64{0, 0}, []float64{1, 0}},
		{"zero magnitude right", []float64{1, 0}, []float64{0, 0}},
		{"nil left", nil, []float64{1, 0}},
		{"nil right", []float64{1, 0}, nil},
		{"dimension mismatch", []float64{1, 0}, []float64{1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Cosine(tt.a, tt.b)
			assert.ErrorIs(t, err, ErrDegenerateVector)
		})
	}
}

func TestCluster_MergesSimilarSameBucket(t *testing.T) {
	// Two tellings of the same funding story, cosine ≈ 0.91.
	angle := math.Acos(0.91)
	a := art("https://a.com/1", "OpenClaw raises $50M", "01/10/2026", 5, unitVec(0))
	b := art("https://b.com/2", "OpenClaw secures $50 million funding", "01/10/2026", 3, unitVec(angle))

	anchors := Cluster([]*model.Article{b, a}, 0.75)
	require.Len(t, anchors, 1)

	anchor := anchors[0]
	assert.Equal(t, "https://a.com/1", anchor.URL, "density 5 article anchors the cluster")
	require.Len(t, anchor.MoreCoverage, 1)
	assert.Equal(t, "https://b.com/2", anchor.MoreCoverage[0].URL)
	assert.Equal(t, b.Source, anchor.MoreCoverage[0].Source)
}

func TestCluster_TemporalIsolation(t *testing.T) {
	// Identical vectors but different day buckets: never merged.
	a := art("https://a.com/1", "OpenClaw raises $50M", "01/10/2026", 5, unitVec(0))
	b := art("https://b.com/2", "OpenClaw secures $50 million funding", "01/11/2026", 3, unitVec(0))

	anchors := Cluster([]*model.Article{a, b}, 0.75)
	require.Len(t, anchors, 2)
	assert.Empty(t, anchors[0].MoreCoverage)
	assert.Empty(t, anchors[1].MoreCoverage)
}

func TestCluster_Deterministic(t *testing.T) {
	build := func() []*model.Article {
		return []*model.Article{
			art("https://a.com/1", "story one", "01/10/2026", 2, unitVec(0)),
			art("https://b.com/2", "story one again", "01/10/2026", 4, unitVec(0.1)),
			art("https://c.com/3", "unrelated", "01/10/2026", 0, unitVec(math.Pi/2)),
			art("https://d.com/4", "other day", "01/11/2026", 1, unitVec(0)),
		}
	}

	first := Cluster(build(), 0.8)
	second := Cluster(build(), 0.8)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].URL, second[i].URL)
		assert.Equal(t, first[i].MoreCoverage, second[i].MoreCoverage)
	}
}

func TestCluster_AnchorTieBreaksByDiscoveryOrder(t *testing.T) {
	a := art("https://a.com/1", "first discovered", "01/10/2026", 3, unitVec(0))
	b := art("https://b.com/2", "second discovered", "01/10/2026", 3, unitVec(0.05))

	anchors := Cluster([]*model.Article{a, b}, 0.9)
	require.Len(t, anchors, 1)
	assert.Equal(t, "https://a.com/1", anchors[0].URL)
}

func TestCluster_ThresholdMonotonicity(t *testing.T) {
	build := func() []*model.Article {
		return []*model.Article{
			art("https://a.com/1", "a", "01/10/2026", 0, unitVec(0)),
			art("https://b.com/2", "b", "01/10/2026", 0, unitVec(0.2)),
			art("https://c.com/3", "c", "01/10/2026", 0, unitVec(0.4)),
			art("https://d.com/4", "d", "01/10/2026", 0, unitVec(0.9)),
			art("https://e.com/5", "e", "01/10/2026", 0, unitVec(1.3)),
		}
	}

	thresholds := []float64{0.5, 0.7, 0.8, 0.9, 0.95, 0.99}
	prev := 0
	for _, th := range thresholds {
		n := len(Cluster(build(), th))
		assert.GreaterOrEqual(t, n, prev, "threshold %v", th)
		prev = n
	}
}

func TestCluster_MissingVectorPassesThroughAsSingleton(t *testing.T) {
	a := art("https://a.com/1", "embedded", "01/10/2026", 5, unitVec(0))
	b := art("https://b.com/2", "embedding failed", "01/10/2026", 9, nil)
	c := art("https://c.com/3", "also embedded", "01/10/2026", 1, unitVec(0.05))

	anchors := Cluster([]*model.Article{a, b, c}, 0.9)
	require.Len(t, anchors, 2)

	// The vectorless article has the highest density so it is considered
	// first, but it can neither join nor attract members.
	urls := []string{anchors[0].URL, anchors[1].URL}
	assert.Contains(t, urls, "https://b.com/2")
	for _, anchor := range anchors {
		if anchor.URL == "https://b.com/2" {
			assert.Empty(t, anchor.MoreCoverage)
		}
	}
}

func TestCluster_Empty(t *testing.T) {
	assert.Nil(t, Cluster(nil, 0.8))
}
