package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawbeat/clawbeat/internal/model"
)

func plain(url, date string) *model.Article {
	return &model.Article{URL: url, Title: url, Date: date, Source: "src"}
}

func urls(list []*model.Article) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.URL
	}
	return out
}

func TestMerge_ExistingEntryWins(t *testing.T) {
	existing := []*model.Article{plain("https://a.com/x", "01/10/2026")}
	existing[0].Title = "persisted title"

	fresh := []*model.Article{plain("https://a.com/x", "01/10/2026")}
	fresh[0].Title = "rediscovered title"

	merged := Merge(fresh, existing, 100)
	require.Len(t, merged, 1)
	assert.Equal(t, "persisted title", merged[0].Title)
}

func TestMerge_Idempotent(t *testing.T) {
	existing := []*model.Article{
		plain("https://a.com/1", "01/10/2026"),
		plain("https://b.com/2", "01/09/2026"),
	}
	fresh := []*model.Article{
		plain("https://c.com/3", "01/11/2026"),
		plain("https://a.com/1", "01/11/2026"),
	}

	once := Merge(fresh, existing, 100)
	twice := Merge(fresh, once, 100)

	assert.Equal(t, urls(once), urls(twice))

	seen := map[string]int{}
	for _, a := range twice {
		seen[a.URL]++
	}
	for url, n := range seen {
		assert.Equal(t, 1, n, "duplicate url %s", url)
	}
}

func TestMerge_BoundedWindowDropsOldest(t *testing.T) {
	fresh := []*model.Article{
		plain("https://a.com/1", "01/12/2026"),
		plain("https://b.com/2", "01/10/2026"),
		plain("https://c.com/3", "01/08/2026"),
	}
	existing := []*model.Article{
		plain("https://d.com/4", "01/11/2026"),
		plain("https://e.com/5", "01/09/2026"),
	}

	merged := Merge(fresh, existing, 3)
	require.Len(t, merged, 3)
	assert.Equal(t, []string{"https://a.com/1", "https://d.com/4", "https://b.com/2"}, urls(merged))
}

func TestMerge_NewBeforeOldOnEqualBucket(t *testing.T) {
	existing := []*model.Article{plain("https://old.com/1", "01/10/2026")}
	fresh := []*model.Article{plain("https://new.com/1", "01/10/2026")}

	merged := Merge(fresh, existing, 10)
	require.Len(t, merged, 2)
	assert.Equal(t, "https://new.com/1", merged[0].URL)
	assert.Equal(t, "https://old.com/1", merged[1].URL)
}

func TestMerge_SortsByBucketDescending(t *testing.T) {
	fresh := []*model.Article{
		plain("https://b.com/2", "01/09/2026"),
		plain("https://a.com/1", "01/12/2026"),
	}
	existing := []*model.Article{
		plain("https://c.com/3", "01/11/2026"),
	}

	merged := Merge(fresh, existing, 10)
	assert.Equal(t, []string{"https://a.com/1", "https://c.com/3", "https://b.com/2"}, urls(merged))
}

func TestMerge_UnparsableDateSortsOldest(t *testing.T) {
	fresh := []*model.Article{
		plain("https://bad.com/1", "not-a-date"),
		plain("https://good.com/2", "01/01/2026"),
	}

	merged := Merge(fresh, nil, 10)
	require.Len(t, merged, 2)
	assert.Equal(t, "https://good.com/2", merged[0].URL)
}

func TestMerge_DuplicateWithinFreshKeepsFirst(t *testing.T) {
	first := plain("https://a.com/1", "01/10/2026")
	first.Title = "first"
	second := plain("https://a.com/1", "01/10/2026")
	second.Title = "second"

	merged := Merge([]*model.Article{first, second}, nil, 10)
	require.Len(t, merged, 1)
	assert.Equal(t, "first", merged[0].Title)
}

func TestMerge_DuplicateWithinExistingKeepsFirst(t *testing.T) {
	first := plain("https://a.com/1", "01/10/2026")
	first.Title = "first"
	second := plain("https://a.com/1", "01/10/2026")
	second.Title = "second"

	merged := Merge(nil, []*model.Article{first, second}, 10)
	require.Len(t, merged, 1)
	assert.Equal(t, "first", merged[0].Title)
}

func TestMerge_ZeroMaxSizeMeansUnbounded(t *testing.T) {
	fresh := []*model.Article{
		plain("https://a.com/1", "01/12/2026"),
		plain("https://b.com/2", "01/11/2026"),
	}
	merged := Merge(fresh, nil, 0)
	assert.Len(t, merged, 2)
}
