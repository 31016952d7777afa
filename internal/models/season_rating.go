package models

import (
	"time"

	"github.com/google/uuid"
)

// SeasonRating tracks an athlete's ratings for one season and weight class
type SeasonRating struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	AthleteID             uuid.UUID  `db:"athlete_id" json:"athlete_id" validate:"required"`
	SeasonYear            int        `db:"season_year" json:"season_year" validate:"required,gt=1900"`
	WeightClass           string     `db:"weight_class" json:"weight_class" validate:"required"`
	FinalElo              float64    `db:"final_elo" json:"final_elo"`
	FinalGlickoRating     float64    `db:"final_glicko_rating" json:"final_glicko_rating"`
	FinalGlickoRD         float64    `db:"final_glicko_rd" json:"final_glicko_rd"`
	FinalGlickoVolatility float64    `db:"final_glicko_volatility" json:"final_glicko_volatility"`
	Wins                  int        `db:"wins" json:"wins"`
	Losses                int        `db:"losses" json:"losses"`
	PeakElo               float64    `db:"peak_elo" json:"peak_elo"`
	LowestElo             float64    `db:"lowest_elo" json:"lowest_elo"`
	MatchCount            int        `db:"match_count" json:"match_count"`
	LastMatchDate         *time.Time `db:"last_match_date" json:"last_match_date"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// SeasonRatingKey identifies a season rating row
type SeasonRatingKey struct {
	AthleteID   uuid.UUID
	SeasonYear  int
	WeightClass string
}

// Key returns the identity key of the season rating
func (s *SeasonRating) Key() SeasonRatingKey {
	return SeasonRatingKey{AthleteID: s.AthleteID, SeasonYear: s.SeasonYear, WeightClass: s.WeightClass}
}

// RecordMatch applies the after-match ratings and win/loss to the season totals
func (s *SeasonRating) RecordMatch(won bool, elo, glicko, rd, volatility float64, matchDate *time.Time) {
	s.FinalElo = elo
	s.FinalGlickoRating = glicko
	s.FinalGlickoRD = rd
	s.FinalGlickoVolatility = volatility
	if won {
		s.Wins++
	} else {
		s.Losses++
	}
	s.MatchCount++
	if elo > s.PeakElo {
		s.PeakElo = elo
	}
	if elo < s.LowestElo {
		s.LowestElo = elo
	}
	if matchDate != nil && (s.LastMatchDate == nil || matchDate.After(*s.LastMatchDate)) {
		d := *matchDate
		s.LastMatchDate = &d
	}
}

// WinPercentage returns wins over matches, 0 when no matches are recorded
func (s *SeasonRating) WinPercentage() float64 {
	if s.MatchCount == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.MatchCount) * 100
}

// LeaderboardEntry joins a season rating with its athlete for display
type LeaderboardEntry struct {
	Rank    int          `json:"rank"`
	Athlete Athlete      `json:"athlete"`
	Rating  SeasonRating `json:"rating"`
}
