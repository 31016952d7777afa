package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/yourusername/mat-rankings/internal/models"
)

var (
	boardYear        int
	boardWeightClass string
	boardLimit       int
)

func init() {
	leaderboardCmd.Flags().IntVar(&boardYear, "year", 0, "Season year, e.g. 2025 (default: from crawl.season_key)")
	leaderboardCmd.Flags().StringVar(&boardWeightClass, "weight-class", "", "Weight class")
	leaderboardCmd.Flags().IntVar(&boardLimit, "limit", 25, "Number of athletes to show")
	_ = leaderboardCmd.MarkFlagRequired("weight-class")
	rootCmd.AddCommand(leaderboardCmd)
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the top season ratings of a weight class",
	RunE: func(cmd *cobra.Command, args []string) error {
		year := boardYear
		if year == 0 {
			y, err := models.SeasonYearFromKey(cfg.Crawl.SeasonKey)
			if err != nil {
				return fmt.Errorf("--year is required: %w", err)
			}
			year = y
		}

		handle, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer handle.Close()

		entries, err := handle.store.Repositories().SeasonRatings.ListLeaders(cmd.Context(), year, boardWeightClass, boardLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No ratings for %d, weight class %s\n", year, boardWeightClass)
			return nil
		}

		t := newTable()
		t.SetTitle(fmt.Sprintf("%d, %s", year, boardWeightClass))
		t.AppendHeader(table.Row{"Rank", "Athlete", "School", "Elo", "Peak", "Glicko", "RD", "W-L"})
		for _, e := range entries {
			t.AppendRow(table.Row{
				e.Rank,
				e.Athlete.FullName(),
				e.Athlete.School,
				fmt.Sprintf("%.1f", e.Rating.FinalElo),
				fmt.Sprintf("%.1f", e.Rating.PeakElo),
				fmt.Sprintf("%.1f", e.Rating.FinalGlickoRating),
				fmt.Sprintf("%.1f", e.Rating.FinalGlickoRD),
				fmt.Sprintf("%d-%d", e.Rating.Wins, e.Rating.Losses),
			})
		}
		t.Render()
		return nil
	},
}
