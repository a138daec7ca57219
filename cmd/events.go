package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clawbeat/clawbeat/internal/events"
	"github.com/clawbeat/clawbeat/pkg/hn"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Discover community events and store them",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		keyword := primaryKeyword(cfg.Feed.Keywords)
		processor := events.NewProcessor(
			keyword,
			cfg.Events.UserAgent,
			time.Duration(cfg.Events.FetchTimeout)*time.Second,
		)

		runner := events.NewRunner(st, processor,
			events.NewGoogleNewsScanner(keyword, cfg.Events.Queries),
			events.NewRedditScanner(keyword, cfg.Events.UserAgent, cfg.Events.RedditQueries),
			events.NewHNScanner(hn.NewClient(), keyword),
		)

		stored, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("events scan complete", zap.Int("stored", stored))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
