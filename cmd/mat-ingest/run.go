package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/mat-rankings/internal/config"
	"github.com/yourusername/mat-rankings/internal/metrics"
	"github.com/yourusername/mat-rankings/internal/service"
)

var (
	runSeason    string
	runRegion    string
	runMaxEvents int
	runMaxGroups int
)

func init() {
	runCmd.Flags().StringVar(&runSeason, "season", "", "Season key, e.g. 2024-25 (default crawl.season_key)")
	runCmd.Flags().StringVar(&runRegion, "region", "", "Region identifier (default crawl.region_id)")
	runCmd.Flags().IntVar(&runMaxEvents, "max-events", -1, "Events to handle in this run, 0 for all (default crawl.max_events_per_run)")
	runCmd.Flags().IntVar(&runMaxGroups, "max-groups", -1, "Result groups to read per event (default crawl.max_groups_per_event)")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one bounded crawl for a season and region",
	Long: `Handles pending events of a season and region until the crawl completes or the
event budget is spent. Progress is checkpointed after every event, so an interrupted
run resumes where it stopped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRunFlags()
		if err := config.ValidateRunTarget(cfg); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		metrics.InitRegistry()

		handle, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer handle.Close()

		report, err := runTarget(ctx, handle.store, cfg.Crawl.SeasonKey, cfg.Crawl.RegionID, service.RunOptions{
			MaxEventsPerRun:        cfg.Crawl.MaxEventsPerRun,
			MaxGroupsPerEvent:      cfg.Crawl.MaxGroupsPerEvent,
			MaxConsecutiveFailures: cfg.Crawl.MaxConsecutiveFailures,
		})
		pushMetrics(context.Background(), cfg.Crawl.SeasonKey, cfg.Crawl.RegionID)

		if err != nil {
			// An interrupted run has checkpointed every finished event
			if report != nil && errors.Is(err, context.Canceled) {
				appLog.WithField("report", report.String()).Warn("Run interrupted; rerun to resume")
				return nil
			}
			return err
		}

		appLog.WithFields(logrus.Fields{
			"run_id": report.RunID.String(),
			"status": report.Status(),
		}).Info(report.String())
		if report.Halted {
			fmt.Fprintf(cmd.OutOrStdout(), "Run halted: %s\n", report.HaltReason)
		}
		if !report.Complete {
			fmt.Fprintf(cmd.OutOrStdout(), "Partial run: %.1f%% of %d events done; rerun to continue\n",
				report.Stats.PercentComplete, report.Stats.TotalEvents)
		}
		return nil
	},
}

func applyRunFlags() {
	if runSeason != "" {
		cfg.Crawl.SeasonKey = runSeason
	}
	if runRegion != "" {
		cfg.Crawl.RegionID = runRegion
	}
	if runMaxEvents >= 0 {
		cfg.Crawl.MaxEventsPerRun = runMaxEvents
	}
	if runMaxGroups > 0 {
		cfg.Crawl.MaxGroupsPerEvent = runMaxGroups
	}
}
