package rating

import (
	"math"

	"github.com/yourusername/mat-rankings/internal/models"
)

const (
	// q is ln(10)/400
	q = math.Ln10 / 400

	// glickoDamping scales each single-match rating step
	glickoDamping = 0.25

	minExpected   = 1e-6
	minVolatility = 0.01
	maxVolatility = 0.5
)

// GlickoMultiplier scales the Glicko rating step by result type
func GlickoMultiplier(resultType models.ResultType) float64 {
	switch resultType {
	case models.ResultFall:
		return 1.3
	case models.ResultTechFall:
		return 1.2
	case models.ResultMajorDecision:
		return 1.1
	default:
		return 1.0
	}
}

// g discounts an opponent's rating by its uncertainty
func g(rd float64) float64 {
	return 1 / math.Sqrt(1+3*q*q*rd*rd/(math.Pi*math.Pi))
}

// GlickoExpected returns the expected score against an opponent
func GlickoExpected(r, opponent, opponentRD float64) float64 {
	e := 1 / (1 + math.Pow(10, -g(opponentRD)*(r-opponent)/400))
	return math.Min(math.Max(e, minExpected), 1-minExpected)
}

// UpdateGlicko returns the player's new Glicko state after one match with
// score 1 for a win and 0 for a loss. RD always shrinks.
func UpdateGlicko(player, opponent Ratings, score, multiplier float64) Ratings {
	gOpp := g(opponent.RD)
	e := GlickoExpected(player.Glicko, opponent.Glicko, opponent.RD)

	dSquared := 1 / (q * q * gOpp * gOpp * e * (1 - e))
	variance := 1 / (1/(player.RD*player.RD) + 1/dSquared)
	delta := q * gOpp * (score - e)

	newRD := math.Sqrt(variance)
	if newRD >= player.RD {
		newRD = math.Nextafter(player.RD, 0)
	}

	return Ratings{
		Elo:        player.Elo,
		Glicko:     player.Glicko + delta*variance*glickoDamping*multiplier,
		RD:         newRD,
		Volatility: clamp(player.Volatility+math.Abs(delta), minVolatility, maxVolatility),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
