package cluster

import (
	"sort"
	"time"

	"github.com/clawbeat/clawbeat/internal/model"
)

// Merge folds freshly clustered anchors into the previously persisted
// list, deduplicates by URL (first seen wins, so persisted entries beat
// new ones), orders by date bucket descending with new-before-old on
// ties, and truncates the tail to maxSize.
//
// Merge is idempotent: merging the same fresh batch twice against the
// same persisted list yields the same result as merging once.
func Merge(fresh, existing []*model.Article, maxSize int) []*model.Article {
	seen := make(map[string]struct{}, len(fresh)+len(existing))
	merged := make([]*model.Article, 0, len(fresh)+len(existing))

	// Existing entries claim their URLs first; a new anchor with a known
	// URL is discarded, not merged.
	for _, a := range existing {
		seen[a.URL] = struct{}{}
	}
	for _, a := range fresh {
		if _, dup := seen[a.URL]; dup {
			continue
		}
		seen[a.URL] = struct{}{}
		merged = append(merged, a)
	}
	// Extra safety net beyond the merge contract: a normal run never
	// produces duplicate URLs among existing entries, but a hand-edited or
	// corrupted store can. First occurrence wins.
	kept := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		if _, dup := kept[a.URL]; dup {
			continue
		}
		kept[a.URL] = struct{}{}
		merged = append(merged, a)
	}

	// Stable sort keeps new entries ahead of old ones within a bucket.
	// Unparsable dates sort oldest so they are the first to fall out of
	// the window.
	sort.SliceStable(merged, func(i, j int) bool {
		return bucketTime(merged[i]).After(bucketTime(merged[j]))
	})

	if maxSize > 0 && len(merged) > maxSize {
		merged = merged[:maxSize]
	}
	return merged
}

func bucketTime(a *model.Article) time.Time {
	t, ok := a.Bucket()
	if !ok {
		return time.Time{}
	}
	return t
}
