package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/yourusername/mat-rankings/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Athletes      AthleteRepository
	SeasonRatings SeasonRatingRepository
	Audits        AuditRepository
}

// NewRepositories creates Postgres repositories bound to q
func NewRepositories(q database.Querier) *Repositories {
	return &Repositories{
		Athletes:      NewPostgresAthleteRepository(q),
		SeasonRatings: NewPostgresSeasonRatingRepository(q),
		Audits:        NewPostgresAuditRepository(q),
	}
}

// PostgresStore implements Store on a pgx connection pool
type PostgresStore struct {
	db    *database.DB
	repos *Repositories
}

// NewPostgresStore creates a new Postgres-backed store
func NewPostgresStore(db *database.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &PostgresStore{db: db, repos: NewRepositories(db.Querier())}, nil
}

// Repositories returns repositories that run outside any transaction
func (s *PostgresStore) Repositories() *Repositories {
	return s.repos
}

// WithinTx runs fn with repositories bound to a single transaction
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {
	return s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, NewRepositories(tx))
	})
}

// numeric rounds a rating to the precision of the NUMERIC columns
func numeric(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(4)
}
