package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/mat-rankings/internal/logger"
)

func init() {
	rootCmd.AddCommand(resetCmd)
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the crawl state so the next run rescrapes the whole season",
	Long: `Deletes the checkpoint of a season and region. Ratings are untouched: matches
that were already rated are recognised and skipped on the next run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyTargetFlags(); err != nil {
			return err
		}
		stateStore, err := newStateStore()
		if err != nil {
			return err
		}

		if err := stateStore.Delete(cmd.Context(), cfg.Crawl.SeasonKey, cfg.Crawl.RegionID); err != nil {
			return err
		}

		path := stateStore.Path(cfg.Crawl.SeasonKey, cfg.Crawl.RegionID)
		logger.NewAuditLogger(appLog).LogStateReset(cfg.Crawl.SeasonKey, cfg.Crawl.RegionID, path)
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", path)
		return nil
	},
}
