package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yourusername/mat-rankings/internal/database"
	"github.com/yourusername/mat-rankings/internal/models"
)

// PostgresAuditRepository implements AuditRepository for PostgreSQL
type PostgresAuditRepository struct {
	q database.Querier
}

// NewPostgresAuditRepository creates a new audit repository
func NewPostgresAuditRepository(q database.Querier) AuditRepository {
	return &PostgresAuditRepository{q: q}
}

// ExistsByHash reports whether any audit row carries the match hash
func (r *PostgresAuditRepository) ExistsByHash(ctx context.Context, matchHash string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ranking_match_audits WHERE match_hash = $1)`,
		matchHash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check match hash: %w", err)
	}
	return exists, nil
}

// Insert appends an audit row. A second row for the same match and athlete is ErrDuplicateKey.
func (r *PostgresAuditRepository) Insert(ctx context.Context, audit *models.RankingMatchAudit) error {
	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}

	query := `
		INSERT INTO ranking_match_audits (
			id, match_hash, athlete_id, opponent_id, opponent_first_name, opponent_last_name,
			opponent_school, opponent_elo_before, won, result_type, season_year, weight_class,
			elo_before, elo_after, glicko_rating_before, glicko_rating_after,
			glicko_rd_before, glicko_rd_after, glicko_volatility_before, glicko_volatility_after,
			wins_before, wins_after, losses_before, losses_after, event_date, raw_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		audit.ID, audit.MatchHash, audit.AthleteID, audit.OpponentID, audit.OpponentFirstName, audit.OpponentLastName,
		audit.OpponentSchool, numeric(audit.OpponentEloBefore), audit.Won, string(audit.ResultType), audit.SeasonYear, audit.WeightClass,
		numeric(audit.EloBefore), numeric(audit.EloAfter), numeric(audit.GlickoRatingBefore), numeric(audit.GlickoRatingAfter),
		numeric(audit.GlickoRDBefore), numeric(audit.GlickoRDAfter), numeric(audit.GlickoVolatilityBefore), numeric(audit.GlickoVolatilityAfter),
		audit.WinsBefore, audit.WinsAfter, audit.LossesBefore, audit.LossesAfter, audit.EventDate, audit.RawText,
	).Scan(&audit.CreatedAt)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("audit for match %s: %w", audit.MatchHash, models.ErrDuplicateKey)
	}
	if err != nil {
		return fmt.Errorf("failed to insert audit: %w", err)
	}

	return nil
}

// ListByHash returns the audit rows written for a match
func (r *PostgresAuditRepository) ListByHash(ctx context.Context, matchHash string) ([]*models.RankingMatchAudit, error) {
	query := `
		SELECT id, match_hash, athlete_id, opponent_id, opponent_first_name, opponent_last_name,
		       opponent_school, opponent_elo_before, won, result_type, season_year, weight_class,
		       elo_before, elo_after, glicko_rating_before, glicko_rating_after,
		       glicko_rd_before, glicko_rd_after, glicko_volatility_before, glicko_volatility_after,
		       wins_before, wins_after, losses_before, losses_after, event_date, raw_text, created_at
		FROM ranking_match_audits
		WHERE match_hash = $1
		ORDER BY won DESC
	`

	rows, err := r.q.Query(ctx, query, matchHash)
	if err != nil {
		return nil, fmt.Errorf("failed to query audits: %w", err)
	}
	defer rows.Close()

	var audits []*models.RankingMatchAudit
	for rows.Next() {
		a := &models.RankingMatchAudit{}
		var resultType string
		err := rows.Scan(
			&a.ID, &a.MatchHash, &a.AthleteID, &a.OpponentID, &a.OpponentFirstName, &a.OpponentLastName,
			&a.OpponentSchool, &a.OpponentEloBefore, &a.Won, &resultType, &a.SeasonYear, &a.WeightClass,
			&a.EloBefore, &a.EloAfter, &a.GlickoRatingBefore, &a.GlickoRatingAfter,
			&a.GlickoRDBefore, &a.GlickoRDAfter, &a.GlickoVolatilityBefore, &a.GlickoVolatilityAfter,
			&a.WinsBefore, &a.WinsAfter, &a.LossesBefore, &a.LossesAfter, &a.EventDate, &a.RawText, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}
		a.ResultType = models.ResultType(resultType)
		audits = append(audits, a)
	}

	return audits, rows.Err()
}
