package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/mat-rankings/internal/database"
	"github.com/yourusername/mat-rankings/internal/models"
)

const seasonRatingColumns = `sr.id, sr.athlete_id, sr.season_year, sr.weight_class,
		       sr.final_elo, sr.final_glicko_rating, sr.final_glicko_rd, sr.final_glicko_volatility,
		       sr.wins, sr.losses, sr.peak_elo, sr.lowest_elo, sr.match_count, sr.last_match_date,
		       sr.created_at, sr.updated_at`

// PostgresSeasonRatingRepository implements SeasonRatingRepository for PostgreSQL
type PostgresSeasonRatingRepository struct {
	q database.Querier
}

// NewPostgresSeasonRatingRepository creates a new season rating repository
func NewPostgresSeasonRatingRepository(q database.Querier) SeasonRatingRepository {
	return &PostgresSeasonRatingRepository{q: q}
}

// Get retrieves the rating for an athlete, season year and weight class
func (r *PostgresSeasonRatingRepository) Get(ctx context.Context, key models.SeasonRatingKey) (*models.SeasonRating, error) {
	query := `SELECT ` + seasonRatingColumns + `
		FROM season_ratings sr
		WHERE sr.athlete_id = $1 AND sr.season_year = $2 AND sr.weight_class = $3`

	rating := &models.SeasonRating{}
	err := r.q.QueryRow(ctx, query, key.AthleteID, key.SeasonYear, key.WeightClass).Scan(seasonRatingDest(rating)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get season rating: %w", err)
	}

	return rating, nil
}

// Create inserts a new season rating
func (r *PostgresSeasonRatingRepository) Create(ctx context.Context, rating *models.SeasonRating) error {
	if rating.ID == uuid.Nil {
		rating.ID = uuid.New()
	}

	query := `
		INSERT INTO season_ratings (id, athlete_id, season_year, weight_class,
		                            final_elo, final_glicko_rating, final_glicko_rd, final_glicko_volatility,
		                            wins, losses, peak_elo, lowest_elo, match_count, last_match_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		rating.ID, rating.AthleteID, rating.SeasonYear, rating.WeightClass,
		numeric(rating.FinalElo), numeric(rating.FinalGlickoRating), numeric(rating.FinalGlickoRD), numeric(rating.FinalGlickoVolatility),
		rating.Wins, rating.Losses, numeric(rating.PeakElo), numeric(rating.LowestElo), rating.MatchCount, rating.LastMatchDate,
	).Scan(&rating.CreatedAt, &rating.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("failed to create season rating: %w", models.ErrDuplicateKey)
	}
	if err != nil {
		return fmt.Errorf("failed to create season rating: %w", err)
	}

	return nil
}

// Update stores the season totals and final ratings
func (r *PostgresSeasonRatingRepository) Update(ctx context.Context, rating *models.SeasonRating) error {
	query := `
		UPDATE season_ratings
		SET final_elo = $2, final_glicko_rating = $3, final_glicko_rd = $4, final_glicko_volatility = $5,
		    wins = $6, losses = $7, peak_elo = $8, lowest_elo = $9, match_count = $10,
		    last_match_date = $11, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query,
		rating.ID,
		numeric(rating.FinalElo), numeric(rating.FinalGlickoRating), numeric(rating.FinalGlickoRD), numeric(rating.FinalGlickoVolatility),
		rating.Wins, rating.Losses, numeric(rating.PeakElo), numeric(rating.LowestElo), rating.MatchCount,
		rating.LastMatchDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update season rating: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// ListLeaders returns the top season ratings by Elo for a season and weight class
func (r *PostgresSeasonRatingRepository) ListLeaders(ctx context.Context, seasonYear int, weightClass string, limit int) ([]*models.LeaderboardEntry, error) {
	query := `SELECT ` + seasonRatingColumns + `,
		       a.first_name, a.last_name, a.state, a.school
		FROM season_ratings sr
		JOIN athletes a ON a.id = sr.athlete_id
		WHERE sr.season_year = $1 AND sr.weight_class = $2
		ORDER BY sr.final_elo DESC, sr.wins DESC
		LIMIT $3`

	rows, err := r.q.Query(ctx, query, seasonYear, weightClass, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*models.LeaderboardEntry
	for rows.Next() {
		entry := &models.LeaderboardEntry{Rank: len(entries) + 1}
		dest := append(seasonRatingDest(&entry.Rating),
			&entry.Athlete.FirstName, &entry.Athlete.LastName, &entry.Athlete.State, &entry.Athlete.School,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entry.Athlete.ID = entry.Rating.AthleteID
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func seasonRatingDest(s *models.SeasonRating) []any {
	return []any{
		&s.ID, &s.AthleteID, &s.SeasonYear, &s.WeightClass,
		&s.FinalElo, &s.FinalGlickoRating, &s.FinalGlickoRD, &s.FinalGlickoVolatility,
		&s.Wins, &s.Losses, &s.PeakElo, &s.LowestElo, &s.MatchCount, &s.LastMatchDate,
		&s.CreatedAt, &s.UpdatedAt,
	}
}
