// Package hn provides a client for the Hacker News Algolia search API.
package hn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Hit is one story from a search result.
type Hit struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	ObjectID string `json:"objectID"`
	Points   int    `json:"points"`
}

// Link returns the story URL, falling back to the HN item page for
// text-only posts.
func (h Hit) Link() string {
	if h.URL != "" {
		return h.URL
	}
	return "https://news.ycombinator.com/item?id=" + h.ObjectID
}

// Client defines the Algolia search operations used by event discovery.
type Client interface {
	// SearchStories returns up to hitsPerPage stories matching the query.
	SearchStories(ctx context.Context, query string, hitsPerPage int) ([]Hit, error)
}

// Option configures the HN client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(base string) Option {
	return func(c *httpClient) {
		c.baseURL = base
	}
}

// WithUserAgent sets the request user agent.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

type httpClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient creates an HN Algolia client. No auth is required.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://hn.algolia.com",
		http:    &http.Client{Timeout: 8 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Hits []Hit `json:"hits"`
}

func (c *httpClient) SearchStories(ctx context.Context, query string, hitsPerPage int) ([]Hit, error) {
	reqURL := fmt.Sprintf("%s/api/v1/search?query=%s&tags=story&hitsPerPage=%d",
		c.baseURL, url.QueryEscape(query), hitsPerPage)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "hn: create request")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "hn: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "hn: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("hn: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "hn: unmarshal response")
	}
	return result.Hits, nil
}
