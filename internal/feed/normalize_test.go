package feed

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawbeat/clawbeat/internal/model"
)

func testNormalizer() *Normalizer {
	n := NewNormalizer(
		[]string{"openclaw", "moltbot"},
		[]string{"techcrunch.com", "substack.com"},
		[]string{"prnewswire.com"},
		[]string{"business wire"},
	)
	n.now = func() time.Time { return time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC) }
	return n
}

func TestArticle_Normalizes(t *testing.T) {
	n := testNormalizer()
	published := time.Date(2026, 1, 9, 8, 30, 0, 0, time.UTC)

	art, err := n.Article(RawRecord{
		Title:     "  OpenClaw ships v2  ",
		URL:       "https://example.com/post",
		Summary:   "<p>The <b>OpenClaw</b> team shipped.</p>",
		Source:    "Example Blog",
		Published: &published,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/post", art.URL)
	assert.Equal(t, "OpenClaw ships v2", art.Title)
	assert.Equal(t, "The OpenClaw team shipped.", art.Summary)
	assert.Equal(t, "Example Blog", art.Source)
	assert.Equal(t, "01/09/2026", art.Date)
	assert.Equal(t, model.SourceTypeStandard, art.SourceType)
	assert.Nil(t, art.Vec, "embedding slot starts empty")
	assert.Equal(t, 2, art.Density)
}

func TestArticle_DefaultsDateToDiscovery(t *testing.T) {
	n := testNormalizer()
	art, err := n.Article(RawRecord{
		Title:  "Moltbot update",
		URL:    "https://example.com/x",
		Source: "Example",
	})
	require.NoError(t, err)
	assert.Equal(t, "01/10/2026", art.Date)
}

func TestArticle_TruncatesLongSummary(t *testing.T) {
	n := testNormalizer()
	long := ""
	for range 30 {
		long += "0123456789"
	}
	art, err := n.Article(RawRecord{Title: "t", URL: "https://a.com/1", Summary: long})
	require.NoError(t, err)
	assert.Len(t, art.Summary, summaryLimit+3)
	assert.True(t, art.Summary[len(art.Summary)-3:] == "...")
}

func TestArticle_TruncationKeepsRunesWhole(t *testing.T) {
	n := testNormalizer()
	// An em-dash straddling the byte limit must not be split.
	long := strings.Repeat("x", summaryLimit-1) + "— and more"
	art, err := n.Article(RawRecord{Title: "t", URL: "https://a.com/1", Summary: long})
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(art.Summary))
	assert.Equal(t, strings.Repeat("x", summaryLimit-1)+"...", art.Summary)
}

func TestArticle_MalformedRecords(t *testing.T) {
	n := testNormalizer()
	tests := []struct {
		name string
		raw  RawRecord
	}{
		{"missing title", RawRecord{URL: "https://a.com/1"}},
		{"blank title", RawRecord{Title: "   ", URL: "https://a.com/1"}},
		{"missing url", RawRecord{Title: "t"}},
		{"relative url", RawRecord{Title: "t", URL: "/path/only"}},
		{"schemeless url", RawRecord{Title: "t", URL: "a.com/1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Article(tt.raw)
			assert.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}

func TestSourceType(t *testing.T) {
	n := testNormalizer()
	tests := []struct {
		name   string
		url    string
		source string
		want   model.SourceType
	}{
		{"priority site", "https://techcrunch.com/2026/01/openclaw", "TechCrunch", model.SourceTypePriority},
		{"delist site", "https://www.prnewswire.com/release", "PR Newswire", model.SourceTypeDelist},
		{"banned source name", "https://ok.com/x", "Business Wire", model.SourceTypeDelist},
		{"delist beats priority", "https://prnewswire.com/via-techcrunch.com", "X", model.SourceTypeDelist},
		{"standard", "https://blog.example.com/post", "Example", model.SourceTypeStandard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.SourceType(tt.url, tt.source))
		})
	}
}

func TestMatchesKeywordAndDensity(t *testing.T) {
	n := testNormalizer()

	assert.True(t, n.MatchesKeyword("OpenClaw raises", ""))
	assert.True(t, n.MatchesKeyword("nothing here", "but MOLTBOT in summary"))
	assert.False(t, n.MatchesKeyword("unrelated news", "about other things"))

	assert.Equal(t, 0, n.Density("unrelated", "text"))
	assert.Equal(t, 3, n.Density("OpenClaw and openclaw", "moltbot too"))
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "plain words", StripHTML("<div> plain <em>words</em> </div>"))
	assert.Equal(t, "", StripHTML(""))
	assert.Equal(t, "already plain", StripHTML("already plain"))
}
