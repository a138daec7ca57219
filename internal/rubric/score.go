// Package rubric scores tracked GitHub repositories against the ClawBeat
// evaluation rubric and assigns display tiers.
package rubric

import (
	"strings"
	"time"

	"github.com/clawbeat/clawbeat/internal/model"
)

// farPast stands in for missing or unparsable timestamps so age checks
// treat them as ancient.
const farPastDays = 9999

var disqualifyingLicenses = map[string]bool{
	"NOASSERTION": true,
	"SSPL-1.0":    true,
}

var throwawayNameWords = []string{"test", "demo", "temp", "wip", "todo", "untitled"}

var permissiveLicenses = map[string]bool{
	"MIT": true, "Apache-2.0": true, "BSD-2-Clause": true, "BSD-3-Clause": true,
}

var copyleftLicenses = map[string]bool{
	"GPL-3.0": true, "AGPL-3.0": true,
}

var relevanceKeywords = []string{
	"openclaw", "clawdbot", "moltbot", "moltis", "clawd",
	"skills", "skill", "openclaw-skills", "clawdbot-skill", "crustacean",
}

var noveltyWords = []string{
	"memory", "mem", "router", "proxy", "studio", "lancedb",
	"security", "translation", "guide", "usecases", "free",
}

// Scorer computes rubric scores. The clock is injectable so age-based
// checks stay deterministic under test.
type Scorer struct {
	now func() time.Time
}

// NewScorer returns a Scorer using the wall clock.
func NewScorer() *Scorer {
	return &Scorer{now: time.Now}
}

// Score computes the project's rubric score and tier. The five axes are
// activity (0-30), quality (0-25), relevance (0-25), traction (0-15) and
// novelty (0-5). Disqualified projects score zero.
func (s *Scorer) Score(p *model.Project) (int, model.RubricTier) {
	name := strings.ToLower(p.Name)
	owner := strings.ToLower(p.Owner)
	desc := strings.ToLower(p.Description)

	forkRatio := float64(p.Forks) / float64(max(p.Stars, 1))
	daysCreated := s.daysSince(p.CreatedAt)
	lastCommitDays := s.daysSince(p.PushedAt)

	// Auto-disqualifiers.
	if disqualifyingLicenses[p.License] {
		return 0, model.TierSkip
	}
	for _, word := range throwawayNameWords {
		if strings.Contains(name, word) {
			return 0, model.TierSkip
		}
	}
	if lastCommitDays >= 548 && p.OpenIssues > 5 {
		return 0, model.TierSkip
	}

	// Activity.
	var act int
	switch {
	case lastCommitDays <= 60:
		act = 24
	case lastCommitDays <= 180:
		act = 17
	case lastCommitDays <= 365:
		act = 9
	default:
		act = 2
	}
	if daysCreated <= 30 {
		act = min(act, 15)
	}

	// Quality.
	qual := 12
	switch {
	case permissiveLicenses[p.License]:
		qual += 2
	case p.License == "":
		qual -= 5
	case copyleftLicenses[p.License]:
		qual -= 2
	}
	if p.Stars > 5000 && (p.License == "MIT" || p.License == "Apache-2.0") {
		qual += 2
	}
	qual = max(0, min(25, qual))

	// Relevance.
	topicStr := strings.ToLower(strings.Join(p.Topics, " "))
	kwHits := 0
	for _, k := range relevanceKeywords {
		if strings.Contains(topicStr, k) {
			kwHits++
		}
	}

	var rel int
	switch {
	case owner == "openclaw" || name == "openclaw":
		rel = 23
	case containsAny(name, "awesome-openclaw", "openclaw-skills", "openclaw-usecases"):
		rel = 20
	case strings.Contains(name, "openclaw") || strings.Contains(name, "moltis"):
		rel = 18
	case containsAny(name, "skill", "awesome", "usecases"):
		rel = 16
	case containsAny(name, "claw", "molty", "clawdbot", "clawd"):
		rel = 16
	case kwHits >= 3:
		rel = 15
	case kwHits >= 1:
		rel = 12
	case containsAny(desc, "openclaw", "clawdbot", "moltbot"):
		rel = 10
	default:
		rel = 6
	}
	if forkRatio > 0.20 {
		rel = min(25, rel+2)
	}

	// Traction.
	var trac int
	switch {
	case p.Stars >= 20000 && p.Forks >= 2000:
		trac = 13
	case p.Stars >= 5000 && p.Forks >= 300:
		trac = 10
	case p.Stars >= 1000 && p.Forks >= 50:
		trac = 7
	case daysCreated <= 90 && p.Stars >= 200:
		trac = 4
	default:
		trac = 2
	}
	if forkRatio > 0.20 {
		trac = min(15, trac+2)
	}
	if p.Forks == 0 && p.Stars > 500 {
		trac = max(0, trac-3)
	}

	// Novelty.
	var novelty int
	switch {
	case owner == "openclaw" || name == "openclaw" || p.Stars > 20000:
		novelty = 4
	case containsAny(name, noveltyWords...):
		novelty = 4
	case p.Stars > 5000 || strings.Contains(name, "awesome"):
		novelty = 3
	default:
		novelty = 2
	}

	total := act + qual + rel + trac + novelty
	// Archived projects never reach the featured tier.
	if p.Archived && total >= 75 {
		total = 74
	}

	return total, TierFor(total)
}

// TierFor maps a rubric score to its display tier.
func TierFor(score int) model.RubricTier {
	switch {
	case score >= 75:
		return model.TierFeatured
	case score >= 50:
		return model.TierListed
	case score >= 25:
		return model.TierWatchlist
	default:
		return model.TierSkip
	}
}

// daysSince counts whole days between an ISO 8601 timestamp's date and
// today. Missing or unparsable values count as ancient.
func (s *Scorer) daysSince(iso string) int {
	if len(iso) < 10 {
		return farPastDays
	}
	t, err := time.Parse("2006-01-02", iso[:10])
	if err != nil {
		return farPastDays
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	return int(today.Sub(t).Hours() / 24)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
