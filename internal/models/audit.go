package models

import (
	"time"

	"github.com/google/uuid"
)

// RankingMatchAudit is the immutable before/after record of one athlete's side of a match
type RankingMatchAudit struct {
	ID                     uuid.UUID  `db:"id" json:"id"`
	MatchHash              string     `db:"match_hash" json:"match_hash" validate:"required,len=64,hexadecimal"`
	AthleteID              uuid.UUID  `db:"athlete_id" json:"athlete_id" validate:"required"`
	OpponentID             uuid.UUID  `db:"opponent_id" json:"opponent_id" validate:"required"`
	OpponentFirstName      string     `db:"opponent_first_name" json:"opponent_first_name"`
	OpponentLastName       string     `db:"opponent_last_name" json:"opponent_last_name"`
	OpponentSchool         string     `db:"opponent_school" json:"opponent_school"`
	OpponentEloBefore      float64    `db:"opponent_elo_before" json:"opponent_elo_before"`
	Won                    bool       `db:"won" json:"won"`
	ResultType             ResultType `db:"result_type" json:"result_type"`
	SeasonYear             int        `db:"season_year" json:"season_year"`
	WeightClass            string     `db:"weight_class" json:"weight_class"`
	EloBefore              float64    `db:"elo_before" json:"elo_before"`
	EloAfter               float64    `db:"elo_after" json:"elo_after"`
	GlickoRatingBefore     float64    `db:"glicko_rating_before" json:"glicko_rating_before"`
	GlickoRatingAfter      float64    `db:"glicko_rating_after" json:"glicko_rating_after"`
	GlickoRDBefore         float64    `db:"glicko_rd_before" json:"glicko_rd_before"`
	GlickoRDAfter          float64    `db:"glicko_rd_after" json:"glicko_rd_after"`
	GlickoVolatilityBefore float64    `db:"glicko_volatility_before" json:"glicko_volatility_before"`
	GlickoVolatilityAfter  float64    `db:"glicko_volatility_after" json:"glicko_volatility_after"`
	WinsBefore             int        `db:"wins_before" json:"wins_before"`
	WinsAfter              int        `db:"wins_after" json:"wins_after"`
	LossesBefore           int        `db:"losses_before" json:"losses_before"`
	LossesAfter            int        `db:"losses_after" json:"losses_after"`
	EventDate              *time.Time `db:"event_date" json:"event_date"`
	RawText                string     `db:"raw_text" json:"raw_text"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
}

// EloChange returns the rating delta recorded by this audit
func (a *RankingMatchAudit) EloChange() float64 {
	return a.EloAfter - a.EloBefore
}
