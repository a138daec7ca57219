package forge

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/clawbeat/clawbeat/internal/feed"
	"github.com/clawbeat/clawbeat/internal/model"
	"github.com/clawbeat/clawbeat/pkg/youtube"
)

const descriptionChars = 150

// VideoSource discovers recent community videos.
type VideoSource interface {
	Videos(ctx context.Context) ([]model.Video, error)
}

// ChannelVideos pulls recent uploads from each whitelisted channel and
// keeps those matching the tracked keywords.
type ChannelVideos struct {
	client     youtube.Client
	norm       *feed.Normalizer
	channelIDs []string
	maxUploads int
}

// NewChannelVideos returns a video source over the given channels.
func NewChannelVideos(client youtube.Client, norm *feed.Normalizer, channelIDs []string, maxUploads int) *ChannelVideos {
	if maxUploads <= 0 {
		maxUploads = 5
	}
	return &ChannelVideos{
		client:     client,
		norm:       norm,
		channelIDs: channelIDs,
		maxUploads: maxUploads,
	}
}

// Videos collects keyword-matching uploads across all channels. A failing
// channel is skipped so one revoked ID cannot empty the whole section.
func (cv *ChannelVideos) Videos(ctx context.Context) ([]model.Video, error) {
	var out []model.Video
	for _, channelID := range cv.channelIDs {
		uploads, err := cv.client.RecentUploads(ctx, channelID, cv.maxUploads)
		if err != nil {
			zap.L().Warn("youtube channel fetch failed",
				zap.String("channel_id", channelID), zap.Error(err))
			continue
		}
		for _, u := range uploads {
			if !cv.norm.MatchesKeyword(u.Title, u.Description) {
				continue
			}
			desc := u.Description
			if len(desc) > descriptionChars {
				cut := descriptionChars
				for cut > 0 && !utf8.RuneStart(desc[cut]) {
					cut--
				}
				desc = desc[:cut]
			}
			out = append(out, model.Video{
				URL:         u.WatchURL(),
				Title:       u.Title,
				Channel:     u.Channel,
				Thumbnail:   u.Thumbnail,
				Description: desc,
				PublishedAt: u.PublishedAt,
			})
		}
	}
	return out, nil
}
