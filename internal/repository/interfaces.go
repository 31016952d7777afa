package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/mat-rankings/internal/models"
)

// AthleteRepository defines the interface for athlete data access
type AthleteRepository interface {
	GetByIdentity(ctx context.Context, key models.AthleteKey) (*models.Athlete, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Athlete, error)
	Create(ctx context.Context, athlete *models.Athlete) error
	UpdateRatings(ctx context.Context, athlete *models.Athlete) error
}

// SeasonRatingRepository defines the interface for per-season rating data access
type SeasonRatingRepository interface {
	Get(ctx context.Context, key models.SeasonRatingKey) (*models.SeasonRating, error)
	Create(ctx context.Context, rating *models.SeasonRating) error
	Update(ctx context.Context, rating *models.SeasonRating) error
	ListLeaders(ctx context.Context, seasonYear int, weightClass string, limit int) ([]*models.LeaderboardEntry, error)
}

// AuditRepository defines the interface for the append-only rating audit trail
type AuditRepository interface {
	ExistsByHash(ctx context.Context, matchHash string) (bool, error)
	Insert(ctx context.Context, audit *models.RankingMatchAudit) error
	ListByHash(ctx context.Context, matchHash string) ([]*models.RankingMatchAudit, error)
}

// Store hands out repositories and runs units of work atomically.
// Repositories passed to fn see the transaction's writes; nothing is
// visible outside it unless fn returns nil.
type Store interface {
	Repositories() *Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
}
