package rating

import (
	"math"

	"github.com/yourusername/mat-rankings/internal/models"
)

// EloMultiplier scales the K-factor by how decisively the match was won
func EloMultiplier(resultType models.ResultType) float64 {
	switch resultType {
	case models.ResultFall:
		return 1.6
	case models.ResultTechFall:
		return 1.4
	case models.ResultMajorDecision:
		return 1.2
	default:
		return 1.0
	}
}

// ExpectedScore returns the probability that a player rated r beats one rated opponent
func ExpectedScore(r, opponent float64) float64 {
	return 1 / (1 + math.Pow(10, (opponent-r)/400))
}

// UpdateElo returns the new winner and loser ratings. The update is zero-sum.
func UpdateElo(winner, loser, k float64, resultType models.ResultType) (float64, float64) {
	expectedWinner := ExpectedScore(winner, loser)
	expectedLoser := 1 - expectedWinner
	kEff := k * EloMultiplier(resultType)

	return winner + kEff*(1-expectedWinner), loser + kEff*(0-expectedLoser)
}
