package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/clawbeat/clawbeat/internal/cluster"
	"github.com/clawbeat/clawbeat/internal/feed"
	"github.com/clawbeat/clawbeat/internal/forge"
	"github.com/clawbeat/clawbeat/internal/store"
	"github.com/clawbeat/clawbeat/pkg/brief"
	"github.com/clawbeat/clawbeat/pkg/gemini"
	"github.com/clawbeat/clawbeat/pkg/semanticscholar"
	"github.com/clawbeat/clawbeat/pkg/youtube"
)

var forgeScanResearch bool

var forgeCmd = &cobra.Command{
	Use:   "forge",
	Short: "Run one feed build: discover, brief, cluster, publish",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		wl, err := feed.LoadWhitelist(cfg.Feed.WhitelistPath)
		if err != nil {
			return err
		}
		norm := feed.NewNormalizer(
			cfg.Feed.Keywords,
			cfg.Feed.PrioritySites,
			cfg.Feed.DelistSites,
			cfg.Feed.BannedSources,
		)

		adapters := []feed.Adapter{
			feed.NewRSSAdapter(wl, norm, cfg.Events.UserAgent),
			feed.NewGoogleNewsAdapter(strings.Join(cfg.Feed.Keywords, " OR "), norm),
		}

		if cfg.Gemini.Key == "" {
			zap.L().Warn("gemini key not set, articles will not be clustered")
		}
		geminiOpts := []gemini.Option{gemini.WithModel(cfg.Gemini.Model)}
		if cfg.Gemini.BaseURL != "" {
			geminiOpts = append(geminiOpts, gemini.WithBaseURL(cfg.Gemini.BaseURL))
		}
		engine := cluster.NewEngine(
			gemini.NewClient(cfg.Gemini.Key, geminiOpts...),
			cluster.WithThreshold(cfg.Cluster.SimilarityThreshold),
			cluster.WithBatchSize(cfg.Cluster.BatchSize),
			cluster.WithSummaryChars(cfg.Cluster.SummaryChars),
			cluster.WithPacing(rate.NewLimiter(rate.Every(secs(cfg.Cluster.BatchPauseSecs)), 1)),
		)

		var summarizer brief.Summarizer
		if cfg.Anthropic.Key != "" {
			summarizer = brief.New(cfg.Anthropic.Key, brief.Config{
				Model:     cfg.Anthropic.Model,
				MaxTokens: cfg.Anthropic.MaxTokens,
			})
		} else {
			zap.L().Warn("anthropic key not set, priority articles keep their raw summaries")
		}

		scanResearch := cfg.Feed.ScanResearch || forgeScanResearch
		var research forge.ResearchSource
		if scanResearch {
			research = forge.NewArxivSource(semanticscholar.NewClient())
		}

		var videos forge.VideoSource
		if cfg.YouTube.Key != "" {
			videos = forge.NewChannelVideos(
				youtube.NewClient(cfg.YouTube.Key),
				norm,
				wl.ChannelIDs(),
				cfg.YouTube.MaxUploads,
			)
		}

		pipeline := forge.New(
			store.NewJSONFeedStore(cfg.Feed.SnapshotPath),
			adapters,
			norm,
			engine,
			summarizer,
			research,
			videos,
			forge.Options{
				MaxItems:       cfg.Feed.MaxItems,
				FreshnessHours: cfg.Feed.FreshnessHours,
				MaxBriefs:      cfg.Feed.MaxBriefs,
				BriefPause:     secs(cfg.Feed.BriefPauseSecs),
				ScanResearch:   scanResearch,
			},
		)

		_, err = pipeline.Run(ctx)
		return err
	},
}

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func init() {
	forgeCmd.Flags().BoolVar(&forgeScanResearch, "scan-research", false, "include the arXiv research pass")
	rootCmd.AddCommand(forgeCmd)
}
