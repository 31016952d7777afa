package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/mat-rankings/internal/logger"
	"github.com/yourusername/mat-rankings/internal/models"
	"github.com/yourusername/mat-rankings/internal/navigation/fixture"
)

func TestRecordNormalizer(t *testing.T) {
	n := NewRecordNormalizer(map[string]string{"springville hs": "Springville"})

	tests := []struct {
		name   string
		in     models.MatchRecord
		expect models.MatchRecord
	}{
		{
			name: "upper case names are title cased",
			in: models.MatchRecord{
				WeightClass: "145",
				Winner:      models.Wrestler{FirstName: "JOHN", LastName: "SMITH", School: "Provo"},
				Loser:       models.Wrestler{FirstName: "mike", LastName: "johnson", School: "Orem"},
			},
			expect: models.MatchRecord{
				WeightClass: "145",
				Winner:      models.Wrestler{FirstName: "John", LastName: "Smith", School: "Provo"},
				Loser:       models.Wrestler{FirstName: "Mike", LastName: "Johnson", School: "Orem"},
			},
		},
		{
			name: "mixed case names are kept",
			in: models.MatchRecord{
				WeightClass: "152",
				Winner:      models.Wrestler{FirstName: "Sean", LastName: "McDonald"},
				Loser:       models.Wrestler{FirstName: "Tony", LastName: "DeLuca"},
			},
			expect: models.MatchRecord{
				WeightClass: "152",
				Winner:      models.Wrestler{FirstName: "Sean", LastName: "McDonald"},
				Loser:       models.Wrestler{FirstName: "Tony", LastName: "DeLuca"},
			},
		},
		{
			name: "school aliases and weight units",
			in: models.MatchRecord{
				WeightClass: " 160 lbs ",
				Winner:      models.Wrestler{FirstName: "Ann", LastName: "Lee", School: "SPRINGVILLE  HS"},
				Loser:       models.Wrestler{FirstName: models.UnknownName, LastName: "Garcia", School: "Lehi"},
			},
			expect: models.MatchRecord{
				WeightClass: "160",
				Winner:      models.Wrestler{FirstName: "Ann", LastName: "Lee", School: "Springville"},
				Loser:       models.Wrestler{FirstName: models.UnknownName, LastName: "Garcia", School: "Lehi"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := tt.in
			n.Normalize(&record)
			assert.Equal(t, tt.expect, record)
		})
	}
}

func TestNormalizeWeightClass(t *testing.T) {
	assert.Equal(t, "145", NormalizeWeightClass("145 lbs"))
	assert.Equal(t, "145", NormalizeWeightClass("145lb"))
	assert.Equal(t, "285", NormalizeWeightClass("285#"))
	assert.Equal(t, "HWT", NormalizeWeightClass("HWT"))
}

func TestRunResolvesDifferentlyCasedNamesToOneAthlete(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	file := &fixture.File{
		SeasonKey: testSeason,
		RegionID:  testRegion,
		Events: []fixture.Event{
			{
				Name:   "Early Duals",
				Date:   "Dec 7, 2024",
				Groups: []fixture.Group{{WeightClass: "145 lbs", Rows: []string{"JOHN SMITH (Springville) over MIKE JOHNSON (Provo) (Dec 4-2)"}}},
			},
			{
				Name:   "Late Duals",
				Date:   "Jan 25, 2025",
				Groups: []fixture.Group{{WeightClass: "145", Rows: []string{rowSmithJohnson}}},
			},
		},
	}

	report, err := h.orchestrator(t, fixture.NewFromFile(logger.Discard(), file), nil).Run(ctx, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Totals.Rated)

	athletes, ratings, audits := h.store.Counts()
	assert.Equal(t, 2, athletes)
	assert.Equal(t, 2, ratings)
	assert.Equal(t, 4, audits)

	smith, err := h.store.Repositories().Athletes.GetByIdentity(ctx, models.NewAthleteKey("John", "Smith", ""))
	require.NoError(t, err)
	sr, err := h.store.Repositories().SeasonRatings.Get(ctx, models.SeasonRatingKey{AthleteID: smith.ID, SeasonYear: 2025, WeightClass: "145"})
	require.NoError(t, err)
	assert.Equal(t, 2, sr.Wins)
}
