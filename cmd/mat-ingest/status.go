package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/yourusername/mat-rankings/internal/config"
	"github.com/yourusername/mat-rankings/internal/models"
)

var (
	targetSeason string
	targetRegion string
	statusFailed bool
)

func init() {
	for _, cmd := range []*cobra.Command{statusCmd, resetCmd} {
		cmd.Flags().StringVar(&targetSeason, "season", "", "Season key (default crawl.season_key)")
		cmd.Flags().StringVar(&targetRegion, "region", "", "Region identifier (default crawl.region_id)")
	}
	statusCmd.Flags().BoolVar(&statusFailed, "failed", false, "List failed events")
	rootCmd.AddCommand(statusCmd)
}

func applyTargetFlags() error {
	if targetSeason != "" {
		cfg.Crawl.SeasonKey = targetSeason
	}
	if targetRegion != "" {
		cfg.Crawl.RegionID = targetRegion
	}
	return config.ValidateRunTarget(cfg)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show crawl progress for a season and region",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyTargetFlags(); err != nil {
			return err
		}
		stateStore, err := newStateStore()
		if err != nil {
			return err
		}

		state, err := stateStore.Load(cmd.Context(), cfg.Crawl.SeasonKey, cfg.Crawl.RegionID)
		if err != nil {
			return err
		}
		if state == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "No crawl state for %s/%s\n", cfg.Crawl.SeasonKey, cfg.Crawl.RegionID)
			return nil
		}

		renderProgress(state)
		renderErrors(state)
		if statusFailed {
			renderFailed(state)
		}
		return nil
	},
}

func renderProgress(state *models.CrawlState) {
	stats := state.Stats()

	t := newTable()
	t.SetTitle(fmt.Sprintf("Crawl %s / %s", state.SeasonKey, state.RegionID))
	t.AppendRows([]table.Row{
		{"Events", stats.TotalEvents},
		{"Processed", stats.Processed},
		{"Skipped", stats.Skipped},
		{"Failed", stats.Failed},
		{"Remaining", stats.Remaining},
		{"Complete", fmt.Sprintf("%.1f%%", stats.PercentComplete)},
		{"Matches seen", stats.TotalMatches},
		{"Matches rated", stats.ProcessedMatches},
		{"Started", state.StartedAt.Format("2006-01-02 15:04")},
		{"Updated", state.UpdatedAt.Format("2006-01-02 15:04")},
	})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.Render()
}

func renderErrors(state *models.CrawlState) {
	counts := state.CountErrors()
	if len(counts) == 0 {
		return
	}

	types := make([]string, 0, len(counts))
	for errType := range counts {
		types = append(types, string(errType))
	}
	sort.Strings(types)

	t := newTable()
	t.AppendHeader(table.Row{"Error type", "Count"})
	for _, errType := range types {
		t.AppendRow(table.Row{errType, counts[models.ErrorType(errType)]})
	}
	t.AppendFooter(table.Row{"Total", len(state.Errors)})
	t.Render()
}

func renderFailed(state *models.CrawlState) {
	if len(state.FailedEvents) == 0 {
		return
	}

	t := newTable()
	t.AppendHeader(table.Row{"#", "Event", "Date", "Reason"})
	for _, o := range state.FailedEvents {
		t.AppendRow(table.Row{o.Index, o.Text, o.DateText, text.Trim(o.Reason, 80)})
	}
	t.Render()
}
