// Package youtube provides a minimal client for the YouTube Data API v3,
// covering the uploads lookup used by the video section of the feed.
package youtube

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

// Upload is one video from a channel's uploads playlist.
type Upload struct {
	VideoID     string
	Title       string
	Description string
	Channel     string
	Thumbnail   string
	PublishedAt string
}

// WatchURL returns the public watch link for the upload.
func (u Upload) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + u.VideoID
}

// Client defines the YouTube operations used by the forge pipeline.
type Client interface {
	// RecentUploads returns the newest uploads for a channel, most recent
	// first, up to max.
	RecentUploads(ctx context.Context, channelID string, max int) ([]Upload, error)
}

// Option configures the YouTube client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(base string) Option {
	return func(c *httpClient) {
		c.baseURL = base
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a YouTube Data API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://www.googleapis.com/youtube/v3",
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type channelsResponse struct {
	Items []struct {
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	Items []struct {
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
			Thumbnails   struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
			ResourceID struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

func (c *httpClient) RecentUploads(ctx context.Context, channelID string, max int) ([]Upload, error) {
	uploadsID, err := c.uploadsPlaylist(ctx, channelID)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/playlistItems?part=snippet&playlistId=%s&maxResults=%d&key=%s",
		c.baseURL, url.QueryEscape(uploadsID), max, url.QueryEscape(c.apiKey))

	var result playlistItemsResponse
	if err := c.getJSON(ctx, reqURL, &result); err != nil {
		return nil, eris.Wrapf(err, "youtube: playlist items %s", uploadsID)
	}

	uploads := make([]Upload, 0, len(result.Items))
	for _, item := range result.Items {
		s := item.Snippet
		uploads = append(uploads, Upload{
			VideoID:     s.ResourceID.VideoID,
			Title:       s.Title,
			Description: s.Description,
			Channel:     s.ChannelTitle,
			Thumbnail:   s.Thumbnails.High.URL,
			PublishedAt: s.PublishedAt,
		})
	}
	return uploads, nil
}

func (c *httpClient) uploadsPlaylist(ctx context.Context, channelID string) (string, error) {
	reqURL := fmt.Sprintf("%s/channels?part=contentDetails&id=%s&key=%s",
		c.baseURL, url.QueryEscape(channelID), url.QueryEscape(c.apiKey))

	var result channelsResponse
	if err := c.getJSON(ctx, reqURL, &result); err != nil {
		return "", eris.Wrapf(err, "youtube: channel lookup %s", channelID)
	}
	if len(result.Items) == 0 {
		return "", eris.Errorf("youtube: channel %s not found", channelID)
	}
	return result.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

func (c *httpClient) getJSON(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}
