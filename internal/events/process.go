package events

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/clawbeat/clawbeat/internal/model"
)

const minBodyMentions = 2

// Processor qualifies candidates and extracts structured event details
// from their pages.
type Processor struct {
	client    *http.Client
	keyword   string
	userAgent string
	now       func() time.Time
}

// NewProcessor returns a Processor for the given keyword.
func NewProcessor(keyword, userAgent string, timeout time.Duration) *Processor {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Processor{
		client:    &http.Client{Timeout: timeout},
		keyword:   strings.ToLower(keyword),
		userAgent: userAgent,
		now:       time.Now,
	}
}

// Process qualifies one candidate and builds its event record. Returns
// (nil, nil) when the candidate does not qualify; a candidate whose title
// carries the keyword qualifies even when its page cannot be fetched.
func (p *Processor) Process(ctx context.Context, c Candidate) (*model.Event, error) {
	titlePass := strings.Contains(strings.ToLower(c.Title), p.keyword)

	doc, err := p.fetch(ctx, c.URL)
	if err != nil {
		if !titlePass {
			return nil, nil
		}
		zap.L().Debug("event page fetch failed, using feed data only",
			zap.String("url", c.URL), zap.Error(err))
	}

	var schema map[string]any
	var pageDesc string
	if doc != nil {
		if !titlePass {
			body := strings.ToLower(strings.Join(strings.Fields(doc.Text()), " "))
			if strings.Count(body, p.keyword) < minBodyMentions {
				return nil, nil
			}
		}
		schema = extractSchemaEvent(doc)
		pageDesc = metaDescription(doc)
	} else if !titlePass {
		return nil, nil
	}

	title := strings.TrimSpace(strings.ReplaceAll(schemaString(schema, "name"), "\n", " "))
	if title == "" {
		title = c.Title
	}

	rawDesc := schemaString(schema, "description")
	if rawDesc == "" {
		rawDesc = pageDesc
	}
	if rawDesc == "" {
		rawDesc = c.Summary
	}
	description := cleanDescription(rawDesc)

	startDate := parseISODate(schemaString(schema, "startDate"))
	if startDate == "" && c.Published != nil {
		startDate = c.Published.Format(model.DateLayout)
	}
	if startDate == "" {
		startDate = regexDate(description)
	}
	if startDate == "" {
		startDate = p.now().Format(model.DateLayout)
	}
	endDate := parseISODate(schemaString(schema, "endDate"))
	if endDate == "" {
		endDate = startDate
	}

	eventType := detectEventType(schema, title, description, c.URL)
	var city, state, country string
	if eventType != model.EventTypeVirtual {
		city, state, country = extractLocation(schema, description)
	}

	return &model.Event{
		URL:         c.URL,
		Title:       title,
		Organizer:   extractOrganizer(schema, c.URL),
		EventType:   eventType,
		City:        city,
		State:       state,
		Country:     country,
		StartDate:   startDate,
		EndDate:     endDate,
		Description: description,
	}, nil
}

func (p *Processor) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("events: fetch %s: status %d", pageURL, resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

func metaDescription(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok && content != "" {
		return content
	}
	content, _ := doc.Find(`meta[name="description"]`).Attr("content")
	return content
}
