package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/mat-rankings/internal/health"
	"github.com/yourusername/mat-rankings/internal/metrics"
	"github.com/yourusername/mat-rankings/internal/scheduler"
	"github.com/yourusername/mat-rankings/internal/service"
)

var scheduleJobTimeout time.Duration

func init() {
	scheduleCmd.Flags().DurationVar(&scheduleJobTimeout, "job-timeout", 4*time.Hour, "Upper bound for a single scheduled run")
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run bounded crawls on a cron schedule for every configured target",
	Long: `Registers one cron entry per schedule target. A target whose previous run is
still going skips that tick. Health, status and metrics are served over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Schedule.Cron == "" || len(cfg.Schedule.Targets) == 0 {
			return fmt.Errorf("schedule.cron and at least one schedule target are required")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		metrics.InitRegistry()

		handle, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer handle.Close()

		healthCfg := health.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Commit:      GitCommit,
			Port:        strconv.Itoa(cfg.Schedule.HealthPort),
			Logger:      appLog,
			Metrics:     metrics.Handler(),
			MetricsPath: cfg.Metrics.Path,
		}
		if handle.db != nil {
			healthCfg.DB = handle.db
		}
		server := health.NewServer(healthCfg)
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("failed to start health server: %w", err)
		}

		sched := scheduler.NewScheduler(appLog, scheduleJobTimeout)
		opts := service.RunOptions{
			MaxEventsPerRun:        cfg.Crawl.MaxEventsPerRun,
			MaxGroupsPerEvent:      cfg.Crawl.MaxGroupsPerEvent,
			MaxConsecutiveFailures: cfg.Crawl.MaxConsecutiveFailures,
		}
		for _, target := range cfg.Schedule.Targets {
			name := target.SeasonKey + "/" + target.RegionID
			_, err := sched.Schedule(cfg.Schedule.Cron, name, func(jobCtx context.Context) error {
				report, err := runTarget(jobCtx, handle.store, target.SeasonKey, target.RegionID, opts)
				server.RecordRun(name, runStatus(report, err))
				pushMetrics(context.Background(), target.SeasonKey, target.RegionID)
				return err
			})
			if err != nil {
				return err
			}
		}

		if err := sched.Start(); err != nil {
			return err
		}
		server.SetReady(true)
		appLog.WithFields(logrus.Fields{
			"targets":  sched.JobNames(),
			"next_run": sched.GetNextRun().Format(time.RFC3339),
		}).Info("Scheduler running")

		<-ctx.Done()
		appLog.Info("Shutdown signal received")
		server.SetReady(false)
		sched.Stop()
		return nil
	},
}

func runStatus(report *service.RunReport, err error) health.RunStatus {
	status := health.RunStatus{FinishedAt: time.Now().UTC()}
	if report != nil {
		status.Complete = report.Complete
		status.PercentComplete = report.Stats.PercentComplete
	}
	if err != nil {
		status.Error = err.Error()
	}
	return status
}
