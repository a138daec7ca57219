package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clawbeat/clawbeat/internal/rubric"
	"github.com/clawbeat/clawbeat/pkg/github"
)

var backfillQuery string

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Discover GitHub projects and rescore the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		query := backfillQuery
		if query == "" {
			query = cfg.GitHub.Query
		}

		gh := github.NewClient(cfg.GitHub.Token)
		stats, err := rubric.NewBackfill(gh, st, query).Run(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("backfill complete",
			zap.Int("discovered", stats.Discovered),
			zap.Int("scored", stats.Scored),
			zap.Int("enriched", stats.Enriched),
		)
		return nil
	},
}

func init() {
	backfillCmd.Flags().StringVar(&backfillQuery, "query", "", "GitHub search query (default from config)")
	rootCmd.AddCommand(backfillCmd)
}
