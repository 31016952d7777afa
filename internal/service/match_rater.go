package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/yourusername/mat-rankings/internal/models"
	"github.com/yourusername/mat-rankings/internal/rating"
	"github.com/yourusername/mat-rankings/internal/repository"
)

// rateMatch writes both athletes' audits and season ratings in one transaction.
// It returns the winner's and loser's audits in that order.
func (o *Orchestrator) rateMatch(ctx context.Context, record *models.MatchRecord, matchHash string, seasonYear int, winnerKey, loserKey models.AthleteKey) ([2]*models.RankingMatchAudit, error) {
	var audits [2]*models.RankingMatchAudit

	err := o.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		winner, err := o.resolveAthlete(ctx, repos, winnerKey, record.Winner.School)
		if err != nil {
			return err
		}
		loser, err := o.resolveAthlete(ctx, repos, loserKey, record.Loser.School)
		if err != nil {
			return err
		}

		winnerSeason, err := o.resolveSeasonRating(ctx, repos, winner.ID, seasonYear, record.WeightClass)
		if err != nil {
			return err
		}
		loserSeason, err := o.resolveSeasonRating(ctx, repos, loser.ID, seasonYear, record.WeightClass)
		if err != nil {
			return err
		}

		outcome := o.engine.Apply(seasonRatings(winnerSeason), seasonRatings(loserSeason), record.Result.Type)

		audits[0] = newAudit(matchHash, record, seasonYear, winner, loser, winnerSeason, true, outcome.WinnerBefore, outcome.WinnerAfter, outcome.LoserBefore.Elo)
		audits[1] = newAudit(matchHash, record, seasonYear, loser, winner, loserSeason, false, outcome.LoserBefore, outcome.LoserAfter, outcome.WinnerBefore.Elo)
		for _, audit := range audits {
			if err := repos.Audits.Insert(ctx, audit); err != nil {
				if errors.Is(err, models.ErrDuplicateKey) {
					return fmt.Errorf("%w: %v", errDuplicateMatch, err)
				}
				return err
			}
		}

		if err := applySide(ctx, repos, winner, winnerSeason, true, outcome.WinnerAfter, record); err != nil {
			return err
		}
		return applySide(ctx, repos, loser, loserSeason, false, outcome.LoserAfter, record)
	})
	if err != nil {
		return audits, err
	}
	return audits, nil
}

// resolveAthlete finds an athlete by identity, creating one at the initial ratings
func (o *Orchestrator) resolveAthlete(ctx context.Context, repos *repository.Repositories, key models.AthleteKey, school string) (*models.Athlete, error) {
	athlete, err := repos.Athletes.GetByIdentity(ctx, key)
	if err == nil {
		return athlete, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up athlete: %w", err)
	}

	initial := o.engine.Initial()
	athlete = &models.Athlete{
		ID:               uuid.New(),
		FirstName:        key.FirstName,
		LastName:         key.LastName,
		State:            key.State,
		School:           school,
		Elo:              initial.Elo,
		GlickoRating:     initial.Glicko,
		GlickoRD:         initial.RD,
		GlickoVolatility: initial.Volatility,
	}
	if err := repos.Athletes.Create(ctx, athlete); err != nil {
		return nil, err
	}
	return athlete, nil
}

// resolveSeasonRating finds the athlete's rating for a season and weight class, seeding a new one
func (o *Orchestrator) resolveSeasonRating(ctx context.Context, repos *repository.Repositories, athleteID uuid.UUID, seasonYear int, weightClass string) (*models.SeasonRating, error) {
	key := models.SeasonRatingKey{AthleteID: athleteID, SeasonYear: seasonYear, WeightClass: weightClass}
	sr, err := repos.SeasonRatings.Get(ctx, key)
	if err == nil {
		return sr, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up season rating: %w", err)
	}

	initial := o.engine.Initial()
	sr = &models.SeasonRating{
		ID:                    uuid.New(),
		AthleteID:             athleteID,
		SeasonYear:            seasonYear,
		WeightClass:           weightClass,
		FinalElo:              initial.Elo,
		FinalGlickoRating:     initial.Glicko,
		FinalGlickoRD:         initial.RD,
		FinalGlickoVolatility: initial.Volatility,
		PeakElo:               initial.Elo,
		LowestElo:             initial.Elo,
	}
	if err := repos.SeasonRatings.Create(ctx, sr); err != nil {
		return nil, err
	}
	return sr, nil
}

func seasonRatings(sr *models.SeasonRating) rating.Ratings {
	return rating.Ratings{
		Elo:        sr.FinalElo,
		Glicko:     sr.FinalGlickoRating,
		RD:         sr.FinalGlickoRD,
		Volatility: sr.FinalGlickoVolatility,
	}
}

// newAudit builds one athlete's side of a match. It must run before the season rating is updated.
func newAudit(matchHash string, record *models.MatchRecord, seasonYear int, athlete, opponent *models.Athlete, season *models.SeasonRating, won bool, before, after rating.Ratings, opponentEloBefore float64) *models.RankingMatchAudit {
	opponentSchool := record.Loser.School
	if !won {
		opponentSchool = record.Winner.School
	}
	winsAfter, lossesAfter := season.Wins, season.Losses
	if won {
		winsAfter++
	} else {
		lossesAfter++
	}

	return &models.RankingMatchAudit{
		ID:                     uuid.New(),
		MatchHash:              matchHash,
		AthleteID:              athlete.ID,
		OpponentID:             opponent.ID,
		OpponentFirstName:      opponent.FirstName,
		OpponentLastName:       opponent.LastName,
		OpponentSchool:         opponentSchool,
		OpponentEloBefore:      opponentEloBefore,
		Won:                    won,
		ResultType:             record.Result.Type,
		SeasonYear:             seasonYear,
		WeightClass:            record.WeightClass,
		EloBefore:              before.Elo,
		EloAfter:               after.Elo,
		GlickoRatingBefore:     before.Glicko,
		GlickoRatingAfter:      after.Glicko,
		GlickoRDBefore:         before.RD,
		GlickoRDAfter:          after.RD,
		GlickoVolatilityBefore: before.Volatility,
		GlickoVolatilityAfter:  after.Volatility,
		WinsBefore:             season.Wins,
		WinsAfter:              winsAfter,
		LossesBefore:           season.Losses,
		LossesAfter:            lossesAfter,
		EventDate:              record.EventDate,
		RawText:                record.RawText,
	}
}

func applySide(ctx context.Context, repos *repository.Repositories, athlete *models.Athlete, season *models.SeasonRating, won bool, after rating.Ratings, record *models.MatchRecord) error {
	season.RecordMatch(won, after.Elo, after.Glicko, after.RD, after.Volatility, record.EventDate)
	if err := repos.SeasonRatings.Update(ctx, season); err != nil {
		return fmt.Errorf("failed to update season rating: %w", err)
	}

	athlete.Elo = after.Elo
	athlete.GlickoRating = after.Glicko
	athlete.GlickoRD = after.RD
	athlete.GlickoVolatility = after.Volatility
	if err := repos.Athletes.UpdateRatings(ctx, athlete); err != nil {
		return fmt.Errorf("failed to update athlete ratings: %w", err)
	}
	return nil
}
