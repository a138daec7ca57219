package events

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/clawbeat/clawbeat/internal/feed"
	"github.com/clawbeat/clawbeat/internal/model"
)

// schemaEventTypes lists the schema.org @type values accepted as events.
var schemaEventTypes = map[string]bool{
	"Event":           true,
	"MusicEvent":      true,
	"EducationEvent":  true,
	"SocialEvent":     true,
	"BusinessEvent":   true,
	"Hackathon":       true,
	"ExhibitionEvent": true,
	"CourseInstance":  true,
}

// virtualSignals mark an event as online-only when found in its title,
// description or URL (with hyphens removed).
var virtualSignals = []string{
	"virtual", "online", "zoom", "webinar", "livestream",
	"remote", "stream", "broadcast", "digital", "attendancemodeononline",
}

// extractSchemaEvent pulls the first schema.org Event object from the
// page's JSON-LD blocks, looking inside top-level arrays and @graph
// wrappers. Returns nil when the page carries no event markup.
func extractSchemaEvent(doc *goquery.Document) map[string]any {
	var found map[string]any
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var raw any
		if err := json.Unmarshal([]byte(s.Text()), &raw); err != nil {
			return true
		}
		if list, ok := raw.([]any); ok {
			for _, item := range list {
				if m, ok := item.(map[string]any); ok {
					raw = m
					break
				}
			}
		}
		data, ok := raw.(map[string]any)
		if !ok {
			return true
		}
		if typ, _ := data["@type"].(string); schemaEventTypes[typ] {
			found = data
			return false
		}
		if graph, ok := data["@graph"].([]any); ok {
			for _, node := range graph {
				if m, ok := node.(map[string]any); ok {
					if typ, _ := m["@type"].(string); schemaEventTypes[typ] {
						found = m
						return false
					}
				}
			}
		}
		return true
	})
	return found
}

func schemaString(schema map[string]any, key string) string {
	if schema == nil {
		return ""
	}
	v, _ := schema[key].(string)
	return v
}

var isoDateLayouts = []string{"2006-01-02T15:04:05", "2006-01-02"}

// parseISODate converts an ISO 8601 string to MM/DD/YYYY. Timezone
// suffixes are ignored; only the local date matters for display.
func parseISODate(raw string) string {
	if raw == "" {
		return ""
	}
	if len(raw) > 19 {
		raw = raw[:19]
	}
	for _, layout := range isoDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(model.DateLayout)
		}
	}
	return ""
}

var monthNumbers = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"jun": time.June, "jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var (
	namedDateRe   = regexp.MustCompile(`(?:(\d{1,2})\s+)?(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|oct|nov|dec)\.?\s+(\d{1,2}),?\s+(20\d{2})`)
	numericDateRe = regexp.MustCompile(`\b(0?[1-9]|1[0-2])[/\-](0?[1-9]|[12]\d|3[01])[/\-](20\d{2})\b`)
)

// regexDate finds the first human-readable date in text and returns it as
// MM/DD/YYYY. Handles "March 15, 2026", "15 March 2026" and "03/15/2026".
func regexDate(text string) string {
	if m := namedDateRe.FindStringSubmatch(strings.ToLower(text)); m != nil {
		day := m[3]
		if m[1] != "" {
			day = m[1]
		}
		t := time.Date(atoi(m[4]), monthNumbers[m[2]], atoi(day), 0, 0, 0, 0, time.UTC)
		return t.Format(model.DateLayout)
	}
	if m := numericDateRe.FindStringSubmatch(text); m != nil {
		t := time.Date(atoi(m[3]), time.Month(atoi(m[1])), atoi(m[2]), 0, 0, 0, 0, time.UTC)
		return t.Format(model.DateLayout)
	}
	return ""
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

// detectEventType classifies an event as virtual, in-person or unknown.
// schema.org eventAttendanceMode wins; otherwise look for virtual signals
// in the combined text, then fall back to the presence of a Place.
func detectEventType(schema map[string]any, title, description, url string) model.EventType {
	mode := strings.ToLower(schemaString(schema, "eventAttendanceMode"))
	if strings.Contains(mode, "online") {
		return model.EventTypeVirtual
	}
	if strings.Contains(mode, "offline") || strings.Contains(mode, "inperson") || strings.Contains(mode, "mixed") {
		return model.EventTypeInPerson
	}

	combined := strings.ReplaceAll(strings.ToLower(title+" "+description+" "+url), "-", "")
	for _, signal := range virtualSignals {
		if strings.Contains(combined, signal) {
			return model.EventTypeVirtual
		}
	}

	if loc, ok := schema["location"].(map[string]any); ok {
		if typ, _ := loc["@type"].(string); typ == "Place" {
			return model.EventTypeInPerson
		}
	}
	return model.EventTypeUnknown
}

var locationRe = regexp.MustCompile(`\bin\s+([A-Z][a-zA-Z\s]{2,20}),\s*([A-Z]{2}|[A-Z][a-zA-Z]{3,15})`)

// extractLocation returns (city, state, country), preferring the schema.org
// address and falling back to an "in City, Region" pattern in the
// description. A two-letter region reads as a US state, anything longer as
// a country.
func extractLocation(schema map[string]any, description string) (string, string, string) {
	if loc, ok := schema["location"].(map[string]any); ok {
		switch addr := loc["address"].(type) {
		case map[string]any:
			return addrString(addr, "addressLocality"),
				addrString(addr, "addressRegion"),
				addrString(addr, "addressCountry")
		case string:
			if addr != "" {
				parts := strings.Split(addr, ",")
				for i := range parts {
					parts[i] = strings.TrimSpace(parts[i])
				}
				for len(parts) < 3 {
					parts = append(parts, "")
				}
				return parts[0], parts[1], parts[2]
			}
		}
	}

	if m := locationRe.FindStringSubmatch(description); m != nil {
		city := strings.TrimSpace(m[1])
		region := strings.TrimSpace(m[2])
		if len(region) == 2 {
			return city, region, ""
		}
		return city, "", region
	}
	return "", "", ""
}

// addrString reads a schema.org address field that is sometimes a plain
// string and sometimes a nested object with a name.
func addrString(addr map[string]any, key string) string {
	switch v := addr[key].(type) {
	case string:
		return v
	case map[string]any:
		name, _ := v["name"].(string)
		return name
	}
	return ""
}

var sentenceEndRe = regexp.MustCompile(`[.!?]\s+`)

// cleanDescription strips HTML and truncates to at most three sentences.
func cleanDescription(raw string) string {
	text := strings.TrimSpace(feed.StripHTML(raw))
	if text == "" {
		return ""
	}

	const maxSentences = 3
	ends := sentenceEndRe.FindAllStringIndex(text, maxSentences)
	if len(ends) < maxSentences {
		return text
	}
	return strings.TrimSpace(text[:ends[maxSentences-1][0]+1])
}

var titleCaser = cases.Title(language.English)

// extractOrganizer reads the schema.org organizer, falling back to the
// page's domain name in title case.
func extractOrganizer(schema map[string]any, pageURL string) string {
	switch org := schema["organizer"].(type) {
	case map[string]any:
		if name, _ := org["name"].(string); name != "" {
			return name
		}
	case string:
		if org != "" {
			return org
		}
	}

	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(parsed.Host, "www.")
	domain, _, _ := strings.Cut(host, ".")
	return titleCaser.String(domain)
}
