// Package semanticscholar provides a client for the Semantic Scholar
// Graph API, used to fetch paper TLDRs.
package semanticscholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Client looks up paper summaries by arXiv ID.
type Client interface {
	// Summary returns the best available short summary for an arXiv
	// paper: the TLDR when present, otherwise the first two sentences of
	// the abstract, otherwise an empty string.
	Summary(ctx context.Context, arxivID string) (string, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(base string) Option {
	return func(c *httpClient) {
		c.baseURL = base
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Semantic Scholar client. No auth is required for
// low-volume lookups.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://api.semanticscholar.org",
		http:    &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type paperResponse struct {
	TLDR *struct {
		Text string `json:"text"`
	} `json:"tldr"`
	Abstract string `json:"abstract"`
}

func (c *httpClient) Summary(ctx context.Context, arxivID string) (string, error) {
	reqURL := fmt.Sprintf("%s/graph/v1/paper/ARXIV:%s?fields=tldr,abstract", c.baseURL, arxivID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "semanticscholar: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "semanticscholar: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "semanticscholar: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("semanticscholar: unexpected status %d", resp.StatusCode)
	}

	var paper paperResponse
	if err := json.Unmarshal(body, &paper); err != nil {
		return "", eris.Wrap(err, "semanticscholar: unmarshal response")
	}

	if paper.TLDR != nil && paper.TLDR.Text != "" {
		return paper.TLDR.Text, nil
	}
	if paper.Abstract != "" {
		return firstSentences(paper.Abstract, 2), nil
	}
	return "", nil
}

// firstSentences joins the first n sentences of text, collapsing
// newlines.
func firstSentences(text string, n int) string {
	flat := strings.Join(strings.Fields(text), " ")
	parts := strings.SplitAfterN(flat, ". ", n+1)
	if len(parts) > n {
		parts = parts[:n]
	}
	out := strings.TrimSpace(strings.Join(parts, ""))
	if out != "" && !strings.HasSuffix(out, ".") {
		out += "."
	}
	return out
}
