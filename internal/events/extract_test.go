package events

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawbeat/clawbeat/internal/model"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractSchemaEvent_Direct(t *testing.T) {
	doc := docFromHTML(t, `<html><head>
		<script type="application/ld+json">
		{"@type": "Event", "name": "OpenClaw Hackathon", "startDate": "2026-03-15T09:00:00-05:00"}
		</script></head></html>`)

	schema := extractSchemaEvent(doc)
	require.NotNil(t, schema)
	assert.Equal(t, "OpenClaw Hackathon", schema["name"])
}

func TestExtractSchemaEvent_Graph(t *testing.T) {
	doc := docFromHTML(t, `<html><head>
		<script type="application/ld+json">
		{"@context": "https://schema.org", "@graph": [
			{"@type": "WebPage", "name": "ignored"},
			{"@type": "BusinessEvent", "name": "Claw Summit"}
		]}
		</script></head></html>`)

	schema := extractSchemaEvent(doc)
	require.NotNil(t, schema)
	assert.Equal(t, "Claw Summit", schema["name"])
}

func TestExtractSchemaEvent_TopLevelList(t *testing.T) {
	doc := docFromHTML(t, `<html><head>
		<script type="application/ld+json">
		[{"@type": "Hackathon", "name": "Molt Jam"}]
		</script></head></html>`)

	schema := extractSchemaEvent(doc)
	require.NotNil(t, schema)
	assert.Equal(t, "Molt Jam", schema["name"])
}

func TestExtractSchemaEvent_None(t *testing.T) {
	doc := docFromHTML(t, `<html><head>
		<script type="application/ld+json">{"@type": "Article", "name": "not an event"}</script>
		<script type="application/ld+json">not even json</script>
		</head></html>`)
	assert.Nil(t, extractSchemaEvent(doc))
}

func TestParseISODate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"full timestamp with offset", "2026-03-15T09:00:00-05:00", "03/15/2026"},
		{"timestamp without zone", "2026-03-15T09:00:00", "03/15/2026"},
		{"date only", "2026-03-15", "03/15/2026"},
		{"empty", "", ""},
		{"garbage", "next tuesday", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseISODate(tt.raw))
		})
	}
}

func TestRegexDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"month first", "Join us on March 15, 2026 in Austin", "03/15/2026"},
		{"day first", "Doors open 15 March 2026 at noon", "03/15/2026"},
		{"abbreviated month", "Sep 9, 2026 kickoff", "09/09/2026"},
		{"numeric slashes", "Save the date: 03/15/2026!", "03/15/2026"},
		{"numeric dashes", "Deadline 3-5-2026", "03/05/2026"},
		{"no date", "An evening of demos and pizza", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, regexDate(tt.text))
		})
	}
}

func TestDetectEventType(t *testing.T) {
	tests := []struct {
		name        string
		schema      map[string]any
		title       string
		description string
		url         string
		want        model.EventType
	}{
		{
			name:   "attendance mode online",
			schema: map[string]any{"eventAttendanceMode": "https://schema.org/OnlineEventAttendanceMode"},
			want:   model.EventTypeVirtual,
		},
		{
			name:   "attendance mode offline",
			schema: map[string]any{"eventAttendanceMode": "https://schema.org/OfflineEventAttendanceMode"},
			want:   model.EventTypeInPerson,
		},
		{
			name:  "virtual signal in title",
			title: "OpenClaw community livestream",
			want:  model.EventTypeVirtual,
		},
		{
			name: "hyphenated signal in url",
			url:  "https://example.com/events/open-claw-we-binar",
			want: model.EventTypeVirtual,
		},
		{
			name:   "place implies in-person",
			schema: map[string]any{"location": map[string]any{"@type": "Place"}},
			title:  "OpenClaw meetup",
			want:   model.EventTypeInPerson,
		},
		{
			name:  "nothing to go on",
			title: "OpenClaw gathering",
			want:  model.EventTypeUnknown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectEventType(tt.schema, tt.title, tt.description, tt.url)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractLocation(t *testing.T) {
	t.Run("structured address", func(t *testing.T) {
		schema := map[string]any{
			"location": map[string]any{
				"@type": "Place",
				"address": map[string]any{
					"addressLocality": "Austin",
					"addressRegion":   "TX",
					"addressCountry":  map[string]any{"name": "USA"},
				},
			},
		}
		city, state, country := extractLocation(schema, "")
		assert.Equal(t, "Austin", city)
		assert.Equal(t, "TX", state)
		assert.Equal(t, "USA", country)
	})

	t.Run("string address", func(t *testing.T) {
		schema := map[string]any{
			"location": map[string]any{
				"address": "Berlin, BE, Germany",
			},
		}
		city, state, country := extractLocation(schema, "")
		assert.Equal(t, "Berlin", city)
		assert.Equal(t, "BE", state)
		assert.Equal(t, "Germany", country)
	})

	t.Run("description fallback with state", func(t *testing.T) {
		city, state, country := extractLocation(nil, "Builders night in Austin, TX with demos")
		assert.Equal(t, "Austin", city)
		assert.Equal(t, "TX", state)
		assert.Equal(t, "", country)
	})

	t.Run("description fallback with country", func(t *testing.T) {
		city, state, country := extractLocation(nil, "Hack weekend in Lisbon, Portugal")
		assert.Equal(t, "Lisbon", city)
		assert.Equal(t, "", state)
		assert.Equal(t, "Portugal", country)
	})

	t.Run("not found", func(t *testing.T) {
		city, state, country := extractLocation(nil, "somewhere nice")
		assert.Empty(t, city)
		assert.Empty(t, state)
		assert.Empty(t, country)
	})
}

func TestCleanDescription(t *testing.T) {
	t.Run("strips html and truncates", func(t *testing.T) {
		raw := "<p>First sentence. Second sentence! Third sentence? Fourth sentence.</p>"
		got := cleanDescription(raw)
		assert.Equal(t, "First sentence. Second sentence! Third sentence?", got)
	})

	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "Just one sentence.", cleanDescription("Just one sentence."))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", cleanDescription(""))
	})
}

func TestExtractOrganizer(t *testing.T) {
	tests := []struct {
		name   string
		schema map[string]any
		url    string
		want   string
	}{
		{
			name:   "organizer object",
			schema: map[string]any{"organizer": map[string]any{"name": "Claw Collective"}},
			want:   "Claw Collective",
		},
		{
			name:   "organizer string",
			schema: map[string]any{"organizer": "Molt Labs"},
			want:   "Molt Labs",
		},
		{
			name: "domain fallback",
			url:  "https://www.eventbrite.com/e/openclaw-meetup-tickets",
			want: "Eventbrite",
		},
		{
			name: "unparsable url",
			url:  "://nope",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractOrganizer(tt.schema, tt.url))
		})
	}
}
