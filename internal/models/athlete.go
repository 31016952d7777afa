package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Athlete represents a wrestler with running ratings across seasons
type Athlete struct {
	ID               uuid.UUID `db:"id" json:"id"`
	FirstName        string    `db:"first_name" json:"first_name" validate:"required"`
	LastName         string    `db:"last_name" json:"last_name" validate:"required"`
	State            string    `db:"state" json:"state"`
	School           string    `db:"school" json:"school"`
	IsFavorite       bool      `db:"is_favorite" json:"is_favorite"`
	Elo              float64   `db:"elo" json:"elo"`
	GlickoRating     float64   `db:"glicko_rating" json:"glicko_rating"`
	GlickoRD         float64   `db:"glicko_rd" json:"glicko_rd"`
	GlickoVolatility float64   `db:"glicko_volatility" json:"glicko_volatility"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// AthleteKey identifies an athlete. An empty State means unknown.
type AthleteKey struct {
	FirstName string
	LastName  string
	State     string
}

// NewAthleteKey builds a key with surrounding whitespace removed
func NewAthleteKey(firstName, lastName, state string) AthleteKey {
	return AthleteKey{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		State:     strings.TrimSpace(state),
	}
}

// Key returns the identity key of the athlete
func (a *Athlete) Key() AthleteKey {
	return NewAthleteKey(a.FirstName, a.LastName, a.State)
}

// FullName returns "First Last"
func (a *Athlete) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
