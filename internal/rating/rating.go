// Package rating implements the Elo and simplified Glicko updates applied to every match.
package rating

import "github.com/yourusername/mat-rankings/internal/models"

// Config holds rating parameters
type Config struct {
	EloK              float64
	InitialElo        float64
	InitialGlicko     float64
	InitialRD         float64
	InitialVolatility float64
}

// DefaultConfig returns the standard rating parameters
func DefaultConfig() Config {
	return Config{
		EloK:              16,
		InitialElo:        1500,
		InitialGlicko:     1500,
		InitialRD:         350,
		InitialVolatility: 0.06,
	}
}

// Ratings is an athlete's rating state under both systems
type Ratings struct {
	Elo        float64 `json:"elo"`
	Glicko     float64 `json:"glicko"`
	RD         float64 `json:"rd"`
	Volatility float64 `json:"volatility"`
}

// Outcome holds before and after ratings for both participants of a match
type Outcome struct {
	ResultType   models.ResultType
	WinnerBefore Ratings
	WinnerAfter  Ratings
	LoserBefore  Ratings
	LoserAfter   Ratings
}

// Engine applies match results to ratings
type Engine struct {
	cfg Config
}

// NewEngine creates a rating engine. Zero fields fall back to defaults.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.EloK <= 0 {
		cfg.EloK = def.EloK
	}
	if cfg.InitialElo <= 0 {
		cfg.InitialElo = def.InitialElo
	}
	if cfg.InitialGlicko <= 0 {
		cfg.InitialGlicko = def.InitialGlicko
	}
	if cfg.InitialRD <= 0 {
		cfg.InitialRD = def.InitialRD
	}
	if cfg.InitialVolatility <= 0 {
		cfg.InitialVolatility = def.InitialVolatility
	}
	return &Engine{cfg: cfg}
}

// Config returns the engine parameters
func (e *Engine) Config() Config {
	return e.cfg
}

// Initial returns the ratings assigned to a new season rating
func (e *Engine) Initial() Ratings {
	return Ratings{
		Elo:        e.cfg.InitialElo,
		Glicko:     e.cfg.InitialGlicko,
		RD:         e.cfg.InitialRD,
		Volatility: e.cfg.InitialVolatility,
	}
}

// Apply computes the new ratings of both participants after a match
func (e *Engine) Apply(winner, loser Ratings, resultType models.ResultType) Outcome {
	winnerElo, loserElo := UpdateElo(winner.Elo, loser.Elo, e.cfg.EloK, resultType)

	multiplier := GlickoMultiplier(resultType)
	winnerGlicko := UpdateGlicko(winner, loser, 1, multiplier)
	loserGlicko := UpdateGlicko(loser, winner, 0, multiplier)

	return Outcome{
		ResultType:   resultType,
		WinnerBefore: winner,
		LoserBefore:  loser,
		WinnerAfter: Ratings{
			Elo:        winnerElo,
			Glicko:     winnerGlicko.Glicko,
			RD:         winnerGlicko.RD,
			Volatility: winnerGlicko.Volatility,
		},
		LoserAfter: Ratings{
			Elo:        loserElo,
			Glicko:     loserGlicko.Glicko,
			RD:         loserGlicko.RD,
			Volatility: loserGlicko.Volatility,
		},
	}
}
