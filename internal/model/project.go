package model

// RubricTier buckets a project's rubric score for display.
type RubricTier string

const (
	TierFeatured  RubricTier = "featured"  // score >= 75
	TierListed    RubricTier = "listed"    // score >= 50
	TierWatchlist RubricTier = "watchlist" // score >= 25
	TierSkip      RubricTier = "skip"
)

// Project is one GitHub repository tracked in the project index, keyed by
// its html_url.
type Project struct {
	URL         string   `json:"url"`
	Name        string   `json:"name"`
	Owner       string   `json:"owner"`
	Description string   `json:"description"`
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	License     string   `json:"license"`
	Topics      []string `json:"topics"`
	OpenIssues  int      `json:"open_issues_count"`
	Archived    bool     `json:"archived"`

	// ISO 8601 timestamps as returned by the GitHub API. Empty when unknown.
	CreatedAt string `json:"created_at"`
	PushedAt  string `json:"pushed_at"`

	RubricScore int        `json:"rubric_score"`
	RubricTier  RubricTier `json:"rubric_tier"`
}
