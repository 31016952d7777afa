package rating

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/mat-rankings/internal/models"
)

var allResultTypes = []models.ResultType{
	models.ResultDecision,
	models.ResultMajorDecision,
	models.ResultTechFall,
	models.ResultFall,
}

func TestUpdateEloEqualRatingsDecision(t *testing.T) {
	winner, loser := UpdateElo(1200, 1200, 16, models.ResultDecision)

	assert.InDelta(t, 1208.0, winner, 1e-9)
	assert.InDelta(t, 1192.0, loser, 1e-9)
}

func TestUpdateEloInvariants(t *testing.T) {
	pairs := [][2]float64{{1500, 1500}, {1800, 1200}, {1200, 1800}, {2400, 900}, {1000, 1001}}

	for _, p := range pairs {
		for _, rt := range allResultTypes {
			winner, loser := UpdateElo(p[0], p[1], 16, rt)

			assert.Greater(t, winner, p[0], "winner must gain (%v vs %v, %s)", p[0], p[1], rt)
			assert.Less(t, loser, p[1], "loser must drop (%v vs %v, %s)", p[0], p[1], rt)
			assert.InDelta(t, p[0]+p[1], winner+loser, 1e-9, "elo must be zero-sum")
		}
	}
}

func TestUpdateEloResultOrdering(t *testing.T) {
	gains := make([]float64, len(allResultTypes))
	for i, rt := range allResultTypes {
		winner, _ := UpdateElo(1500, 1500, 16, rt)
		gains[i] = winner - 1500
	}

	for i := 1; i < len(gains); i++ {
		assert.Greater(t, gains[i], gains[i-1], "%s should gain more than %s", allResultTypes[i], allResultTypes[i-1])
	}
}

func TestMultiplierTables(t *testing.T) {
	assert.Equal(t, 1.0, EloMultiplier(models.ResultDecision))
	assert.Equal(t, 1.2, EloMultiplier(models.ResultMajorDecision))
	assert.Equal(t, 1.4, EloMultiplier(models.ResultTechFall))
	assert.Equal(t, 1.6, EloMultiplier(models.ResultFall))

	assert.Equal(t, 1.0, GlickoMultiplier(models.ResultDecision))
	assert.Equal(t, 1.1, GlickoMultiplier(models.ResultMajorDecision))
	assert.Equal(t, 1.2, GlickoMultiplier(models.ResultTechFall))
	assert.Equal(t, 1.3, GlickoMultiplier(models.ResultFall))
}

func TestUpdateGlickoRDStrictlyDecreases(t *testing.T) {
	cases := []struct {
		name     string
		player   Ratings
		opponent Ratings
	}{
		{name: "new players", player: Ratings{Glicko: 1500, RD: 350, Volatility: 0.06}, opponent: Ratings{Glicko: 1500, RD: 350, Volatility: 0.06}},
		{name: "settled players", player: Ratings{Glicko: 1700, RD: 40, Volatility: 0.06}, opponent: Ratings{Glicko: 1650, RD: 35, Volatility: 0.06}},
		{name: "huge gap", player: Ratings{Glicko: 3000, RD: 30, Volatility: 0.06}, opponent: Ratings{Glicko: 100, RD: 30, Volatility: 0.06}},
		{name: "tiny rd", player: Ratings{Glicko: 1500, RD: 1e-3, Volatility: 0.06}, opponent: Ratings{Glicko: 1500, RD: 350, Volatility: 0.06}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, score := range []float64{0, 1} {
				after := UpdateGlicko(tc.player, tc.opponent, score, 1)
				assert.Less(t, after.RD, tc.player.RD)
				assert.False(t, math.IsNaN(after.Glicko))
				assert.GreaterOrEqual(t, after.Volatility, minVolatility)
				assert.LessOrEqual(t, after.Volatility, maxVolatility)
			}
		})
	}
}

func TestEngineApply(t *testing.T) {
	engine := NewEngine(Config{})
	start := engine.Initial()

	assert.Equal(t, Ratings{Elo: 1500, Glicko: 1500, RD: 350, Volatility: 0.06}, start)

	out := engine.Apply(start, start, models.ResultFall)

	assert.Equal(t, start, out.WinnerBefore)
	assert.Equal(t, start, out.LoserBefore)
	assert.InDelta(t, 1512.8, out.WinnerAfter.Elo, 1e-9)
	assert.InDelta(t, 1487.2, out.LoserAfter.Elo, 1e-9)
	assert.Greater(t, out.WinnerAfter.Glicko, start.Glicko)
	assert.Less(t, out.LoserAfter.Glicko, start.Glicko)
	assert.Less(t, out.WinnerAfter.RD, start.RD)
	assert.Less(t, out.LoserAfter.RD, start.RD)
}

func TestEngineGlickoResultOrdering(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	start := engine.Initial()

	prev := 0.0
	for _, rt := range allResultTypes {
		gain := engine.Apply(start, start, rt).WinnerAfter.Glicko - start.Glicko
		assert.Greater(t, gain, prev, "%s", rt)
		prev = gain
	}
}

func TestEngineCustomK(t *testing.T) {
	engine := NewEngine(Config{EloK: 32, InitialElo: 1200})
	out := engine.Apply(engine.Initial(), engine.Initial(), models.ResultDecision)

	assert.InDelta(t, 1216.0, out.WinnerAfter.Elo, 1e-9)
	assert.Equal(t, 350.0, engine.Config().InitialRD)
}
