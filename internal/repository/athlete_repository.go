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

const athleteColumns = `id, first_name, last_name, state, school, is_favorite,
		       elo, glicko_rating, glicko_rd, glicko_volatility, created_at, updated_at`

// PostgresAthleteRepository implements AthleteRepository for PostgreSQL
type PostgresAthleteRepository struct {
	q database.Querier
}

// NewPostgresAthleteRepository creates a new athlete repository
func NewPostgresAthleteRepository(q database.Querier) AthleteRepository {
	return &PostgresAthleteRepository{q: q}
}

// GetByIdentity retrieves an athlete by first name, last name and state
func (r *PostgresAthleteRepository) GetByIdentity(ctx context.Context, key models.AthleteKey) (*models.Athlete, error) {
	query := `SELECT ` + athleteColumns + `
		FROM athletes
		WHERE first_name = $1 AND last_name = $2 AND state = $3`

	athlete, err := scanAthlete(r.q.QueryRow(ctx, query, key.FirstName, key.LastName, key.State))
	if err != nil {
		return nil, fmt.Errorf("failed to get athlete by identity: %w", err)
	}
	return athlete, nil
}

// GetByID retrieves an athlete by ID
func (r *PostgresAthleteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Athlete, error) {
	query := `SELECT ` + athleteColumns + `
		FROM athletes WHERE id = $1`

	athlete, err := scanAthlete(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get athlete: %w", err)
	}
	return athlete, nil
}

// Create inserts a new athlete
func (r *PostgresAthleteRepository) Create(ctx context.Context, athlete *models.Athlete) error {
	if athlete.ID == uuid.Nil {
		athlete.ID = uuid.New()
	}

	query := `
		INSERT INTO athletes (id, first_name, last_name, state, school, is_favorite,
		                      elo, glicko_rating, glicko_rd, glicko_volatility)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		athlete.ID, athlete.FirstName, athlete.LastName, athlete.State, athlete.School, athlete.IsFavorite,
		numeric(athlete.Elo), numeric(athlete.GlickoRating), numeric(athlete.GlickoRD), numeric(athlete.GlickoVolatility),
	).Scan(&athlete.CreatedAt, &athlete.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("failed to create athlete %s: %w", athlete.FullName(), models.ErrDuplicateKey)
	}
	if err != nil {
		return fmt.Errorf("failed to create athlete: %w", err)
	}

	return nil
}

// UpdateRatings stores the athlete's running ratings
func (r *PostgresAthleteRepository) UpdateRatings(ctx context.Context, athlete *models.Athlete) error {
	query := `
		UPDATE athletes
		SET elo = $2, glicko_rating = $3, glicko_rd = $4, glicko_volatility = $5, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query,
		athlete.ID, numeric(athlete.Elo), numeric(athlete.GlickoRating),
		numeric(athlete.GlickoRD), numeric(athlete.GlickoVolatility),
	)
	if err != nil {
		return fmt.Errorf("failed to update athlete ratings: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func scanAthlete(row pgx.Row) (*models.Athlete, error) {
	a := &models.Athlete{}
	err := row.Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.State, &a.School, &a.IsFavorite,
		&a.Elo, &a.GlickoRating, &a.GlickoRD, &a.GlickoVolatility, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}
