// Package cluster groups near-duplicate articles discovered from
// independent feeds into single topic anchors using embedding similarity.
package cluster

import (
	"sort"

	"github.com/clawbeat/clawbeat/internal/model"
)

// Cluster groups articles into topic clusters and returns one anchor per
// cluster, with MoreCoverage listing the merged members.
//
// Articles are first partitioned into independent day buckets so that a
// new article can never merge into a topic from a different day. Within a
// bucket, articles are stable-sorted by density descending (discovery
// order breaks ties) so the highest-relevance article anchors each
// cluster. Each article is compared against existing cluster anchors in
// creation order and joins the first whose anchor similarity exceeds
// threshold; otherwise it starts a new cluster.
//
// Comparing against anchors only (not all members) keeps this O(n·k) and
// deterministic. Articles without a vector never match anything and pass
// through as singleton anchors.
func Cluster(articles []*model.Article, threshold float64) []*model.Article {
	if len(articles) == 0 {
		return nil
	}

	// Bucket by date, remembering each bucket's first appearance so the
	// output order is stable across runs.
	type bucket struct {
		key      string
		articles []*model.Article
	}
	index := make(map[string]int)
	var buckets []*bucket
	for _, a := range articles {
		i, ok := index[a.Date]
		if !ok {
			i = len(buckets)
			index[a.Date] = i
			buckets = append(buckets, &bucket{key: a.Date})
		}
		buckets[i].articles = append(buckets[i].articles, a)
	}

	var anchors []*model.Article
	for _, b := range buckets {
		anchors = append(anchors, clusterBucket(b.articles, threshold)...)
	}
	return anchors
}

// clusterBucket runs greedy anchor-only assignment within one day bucket.
func clusterBucket(articles []*model.Article, threshold float64) []*model.Article {
	ordered := make([]*model.Article, len(articles))
	copy(ordered, articles)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Density > ordered[j].Density
	})

	var clusters [][]*model.Article
	for _, art := range ordered {
		matched := false
		for i, c := range clusters {
			sim, err := Cosine(art.Vec, c[0].Vec)
			if err != nil {
				// Degenerate or missing vector: never a match.
				continue
			}
			if sim > threshold {
				clusters[i] = append(clusters[i], art)
				matched = true
				break
			}
		}
		if !matched {
			clusters = append(clusters, []*model.Article{art})
		}
	}

	anchors := make([]*model.Article, 0, len(clusters))
	for _, c := range clusters {
		anchor := c[0]
		anchor.MoreCoverage = nil
		for _, member := range c[1:] {
			anchor.MoreCoverage = append(anchor.MoreCoverage, model.Coverage{
				Source: member.Source,
				URL:    member.URL,
			})
		}
		anchors = append(anchors, anchor)
	}
	return anchors
}
