package model

import "time"

// DateLayout is the day-granularity bucket format used across the feed.
// All dates in persisted records are buckets in this format, not precise
// publish timestamps.
const DateLayout = "01/02/2006"

// SourceType classifies where an article came from for ranking purposes.
type SourceType string

const (
	// SourceTypePriority marks articles from high-signal outlets that get
	// AI-generated briefs.
	SourceTypePriority SourceType = "priority"
	// SourceTypeStandard is everything else that is kept.
	SourceTypeStandard SourceType = "standard"
	// SourceTypeDelist marks wire-service reposts that are dropped before
	// persistence.
	SourceTypeDelist SourceType = "delist"
)

// Coverage is one additional outlet covering the same story as a cluster
// anchor.
type Coverage struct {
	Source string `json:"source"`
	URL    string `json:"url"`
}

// Article is one discovered content item. The URL is its identity: the
// persisted feed never holds two articles with the same URL.
type Article struct {
	URL        string     `json:"url"`
	Title      string     `json:"title"`
	Summary    string     `json:"summary"`
	Source     string     `json:"source"`
	SourceType SourceType `json:"source_type,omitempty"`

	// Date is the day bucket in DateLayout format. Clustering never merges
	// articles across different buckets.
	Date string `json:"date"`

	// Density is the keyword-match strength; the densest article in a
	// cluster becomes its anchor. Zero when the adapter supplies none.
	Density int `json:"density,omitempty"`

	// Vec is the embedding vector. Nil until computed; assigned at most
	// once per run and never recomputed.
	Vec []float64 `json:"vec,omitempty"`

	// MoreCoverage lists the non-anchor members merged into this article's
	// cluster. Only set on anchors.
	MoreCoverage []Coverage `json:"moreCoverage,omitempty"`
}

// Bucket parses the article's day bucket. The boolean is false when the
// date is missing or malformed.
func (a *Article) Bucket() (time.Time, bool) {
	t, err := time.Parse(DateLayout, a.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
