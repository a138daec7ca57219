package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawbeat/clawbeat/internal/model"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Example Blog</title>
  <link>https://example.com</link>
  <item>
    <title>OpenClaw ships v2</title>
    <link>https://example.com/openclaw-v2</link>
    <description>&lt;p&gt;The OpenClaw team shipped a new release.&lt;/p&gt;</description>
    <pubDate>Fri, 09 Jan 2026 08:30:00 GMT</pubDate>
  </item>
  <item>
    <title>Completely unrelated post</title>
    <link>https://example.com/other</link>
    <description>Gardening tips for winter.</description>
  </item>
  <item>
    <title>Moltbot integration notes</title>
    <link>https://example.com/moltbot</link>
    <description>How we wired moltbot into our stack.</description>
  </item>
</channel>
</rss>`

func TestRSSAdapter_FiltersByKeyword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	wl := &Whitelist{Sites: []Site{{Name: "Example Blog", RSS: srv.URL}}}
	adapter := NewRSSAdapter(wl, testNormalizer(), "ClawBeatBot/1.0")

	articles, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "https://example.com/openclaw-v2", articles[0].URL)
	assert.Equal(t, "Example Blog", articles[0].Source)
	assert.Equal(t, "01/09/2026", articles[0].Date)
	assert.Equal(t, "https://example.com/moltbot", articles[1].URL)
}

func TestRSSAdapter_SkipsBrokenSite(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssFixture))
	}))
	defer good.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer broken.Close()

	wl := &Whitelist{Sites: []Site{
		{Name: "Broken", RSS: broken.URL},
		{Name: "Example Blog", RSS: good.URL},
		{Name: "No Feed", RSS: "N/A"},
	}}
	adapter := NewRSSAdapter(wl, testNormalizer(), "")

	articles, err := adapter.Fetch(context.Background())
	require.NoError(t, err, "one broken site does not fail the adapter")
	assert.Len(t, articles, 2)
}

func TestGoogleNewsAdapter_LabelsWebSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rss/search", r.URL.Path)
		assert.Contains(t, r.URL.RawQuery, "q=")
		_, _ = w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	adapter := NewGoogleNewsAdapter("OpenClaw OR Moltbot", testNormalizer(),
		WithGoogleNewsBaseURL(srv.URL))

	articles, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	// No keyword filter here: the query already selected these.
	require.Len(t, articles, 3)
	for _, a := range articles {
		assert.Equal(t, "Web Search", a.Source)
		assert.Equal(t, "Ecosystem update.", a.Summary)
	}
}

type stubAdapter struct {
	name     string
	articles []*model.Article
	err      error
}

func (s *stubAdapter) Name() string { return s.name }
func (s *stubAdapter) Fetch(context.Context) ([]*model.Article, error) {
	return s.articles, s.err
}

func TestFetchAll_IsolatesFailures(t *testing.T) {
	ok := &stubAdapter{name: "ok", articles: []*model.Article{
		{URL: "https://a.com/1", Title: "one"},
	}}
	bad := &stubAdapter{name: "bad", err: eris.New("network down")}
	also := &stubAdapter{name: "also", articles: []*model.Article{
		{URL: "https://b.com/2", Title: "two"},
	}}

	found := FetchAll(context.Background(), []Adapter{ok, bad, also})
	require.Len(t, found, 2)
	assert.Equal(t, "https://a.com/1", found[0].URL)
	assert.Equal(t, "https://b.com/2", found[1].URL)
}

func TestLoadWhitelist(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/whitelist.yaml"
	yaml := `
sites:
  - name: Example Blog
    rss: https://example.com/feed.xml
    youtube_channel_id: UC123
  - name: No Video
    rss: https://other.com/rss
`
	require.NoError(t, writeFile(path, yaml))

	wl, err := LoadWhitelist(path)
	require.NoError(t, err)
	require.Len(t, wl.Sites, 2)
	assert.Equal(t, "Example Blog", wl.Sites[0].Name)
	assert.Equal(t, []string{"UC123"}, wl.ChannelIDs())
}

func TestLoadWhitelist_MissingFileIsEmpty(t *testing.T) {
	wl, err := LoadWhitelist(t.TempDir() + "/absent.yaml")
	require.NoError(t, err)
	assert.Empty(t, wl.Sites)
}
