package forge

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/clawbeat/clawbeat/internal/model"
	"github.com/clawbeat/clawbeat/pkg/semanticscholar"
)

const (
	arxivQuery      = "(OpenClaw OR MoltBot OR Clawdbot)"
	maxArxivResults = 10
	pendingSummary  = "Research analysis in progress."
)

// ResearchSource discovers new papers for the research section.
type ResearchSource interface {
	Papers(ctx context.Context) ([]model.Paper, error)
}

// ArxivSource reads the arXiv Atom API and enriches each paper with a
// Semantic Scholar TLDR when one exists.
type ArxivSource struct {
	parser  *gofeed.Parser
	scholar semanticscholar.Client
	baseURL string
}

// ArxivOption configures an ArxivSource.
type ArxivOption func(*ArxivSource)

// WithArxivBaseURL overrides the API endpoint, for testing.
func WithArxivBaseURL(u string) ArxivOption {
	return func(s *ArxivSource) { s.baseURL = u }
}

// NewArxivSource returns a research source backed by arXiv and Semantic
// Scholar.
func NewArxivSource(scholar semanticscholar.Client, opts ...ArxivOption) *ArxivSource {
	s := &ArxivSource{
		parser:  gofeed.NewParser(),
		scholar: scholar,
		baseURL: "http://export.arxiv.org/api/query",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ArxivSource) Papers(ctx context.Context) ([]model.Paper, error) {
	feedURL := fmt.Sprintf("%s?search_query=%s&sortBy=submittedDate&sortOrder=descending&max_results=%d",
		s.baseURL, url.QueryEscape(arxivQuery), maxArxivResults)
	feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	var papers []model.Paper
	for _, item := range feed.Items {
		summary := pendingSummary
		if id := arxivID(item.GUID); id != "" {
			if tldr, err := s.scholar.Summary(ctx, id); err != nil {
				zap.L().Debug("semantic scholar lookup failed",
					zap.String("arxiv_id", id), zap.Error(err))
			} else if tldr != "" {
				summary = tldr
			}
		}

		var authors []string
		for _, a := range item.Authors {
			authors = append(authors, a.Name)
		}

		papers = append(papers, model.Paper{
			URL:     item.Link,
			Title:   strings.TrimSpace(strings.ReplaceAll(item.Title, "\n", " ")),
			Authors: authors,
			Date:    item.Published,
			Summary: summary,
		})
	}
	return papers, nil
}

// arxivID extracts the paper ID from an arXiv Atom entry ID like
// "http://arxiv.org/abs/2602.01234v1".
func arxivID(entryID string) string {
	_, id, found := strings.Cut(entryID, "/abs/")
	if !found {
		return ""
	}
	return id
}
