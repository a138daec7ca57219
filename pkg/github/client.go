// Package github provides a client for the GitHub repository Search API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Search caps results at 10 pages of 100.
const (
	maxPages = 10
	perPage  = 100
)

// Repo is one repository from a search result page.
type Repo struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
	Stars       int    `json:"stargazers_count"`
	Forks       int    `json:"forks_count"`
	OpenIssues  int    `json:"open_issues_count"`
	Archived    bool   `json:"archived"`
	CreatedAt   string `json:"created_at"`
	PushedAt    string `json:"pushed_at"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
	License *struct {
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
	Topics []string `json:"topics"`
}

// Client defines the GitHub Search operations used by the rubric
// backfill.
type Client interface {
	// SearchRepositories pages through search results for the query,
	// newest-pushed first, up to the API's 1,000 result cap.
	SearchRepositories(ctx context.Context, query string) ([]Repo, error)
}

// Option configures the GitHub client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(base string) Option {
	return func(c *httpClient) {
		c.baseURL = base
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimitWait overrides the pause after a 403 rate-limit response.
func WithRateLimitWait(d time.Duration) Option {
	return func(c *httpClient) {
		c.rateLimitWait = d
	}
}

type httpClient struct {
	token         string
	baseURL       string
	http          *http.Client
	pager         *rate.Limiter
	rateLimitWait time.Duration
}

// NewClient creates a GitHub Search client. The token is optional;
// without one the client paces pages far more conservatively
// (unauthenticated search allows 10 requests/minute).
func NewClient(token string, opts ...Option) Client {
	pageEvery := time.Second
	if token == "" {
		pageEvery = 7 * time.Second
	}
	c := &httpClient{
		token:         token,
		baseURL:       "https://api.github.com",
		http:          &http.Client{Timeout: 15 * time.Second},
		pager:         rate.NewLimiter(rate.Every(pageEvery), 1),
		rateLimitWait: time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	TotalCount int    `json:"total_count"`
	Items      []Repo `json:"items"`
}

func (c *httpClient) SearchRepositories(ctx context.Context, query string) ([]Repo, error) {
	var all []Repo
	for page := 1; page <= maxPages; page++ {
		if err := c.pager.Wait(ctx); err != nil {
			return all, err
		}

		items, status, err := c.searchPage(ctx, query, page)
		if err != nil {
			// Partial results are still useful to the caller.
			return all, eris.Wrapf(err, "github: search page %d", page)
		}
		// 422 means the page is beyond the total result window.
		if status == http.StatusUnprocessableEntity {
			break
		}
		if len(items) == 0 {
			break
		}

		all = append(all, items...)
		zap.L().Debug("github search page",
			zap.Int("page", page),
			zap.Int("repos", len(items)),
		)
		if len(items) < perPage {
			break
		}
	}
	return all, nil
}

func (c *httpClient) searchPage(ctx context.Context, query string, page int) ([]Repo, int, error) {
	reqURL := fmt.Sprintf("%s/search/repositories?q=%s&sort=updated&order=desc&per_page=%d&page=%d",
		c.baseURL, url.QueryEscape(query), perPage, page)

	body, status, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, 0, err
	}

	// Secondary rate limit: wait once and retry the page.
	if status == http.StatusForbidden {
		zap.L().Warn("github rate limited, pausing",
			zap.Int("page", page),
			zap.Duration("wait", c.rateLimitWait),
		)
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		case <-time.After(c.rateLimitWait):
		}
		body, status, err = c.get(ctx, reqURL)
		if err != nil {
			return nil, 0, err
		}
	}

	if status == http.StatusUnprocessableEntity {
		return nil, status, nil
	}
	if status != http.StatusOK {
		return nil, status, eris.Errorf("github: unexpected status %d: %s", status, string(body))
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, status, eris.Wrap(err, "github: unmarshal search response")
	}
	return result.Items, status, nil
}

func (c *httpClient) get(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, eris.Wrap(err, "github: create request")
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, eris.Wrap(err, "github: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, eris.Wrap(err, "github: read response body")
	}
	return body, resp.StatusCode, nil
}

// License returns the SPDX identifier or an empty string.
func (r Repo) LicenseID() string {
	if r.License == nil {
		return ""
	}
	return r.License.SPDXID
}
