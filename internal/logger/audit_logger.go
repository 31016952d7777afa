package logger

import (
	"github.com/sirupsen/logrus"
	"github.com/yourusername/mat-rankings/internal/models"
)

// AuditLogger provides dedicated audit trail logging for rating changes.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogRatingChange logs one athlete's side of a rated match.
func (al *AuditLogger) LogRatingChange(audit *models.RankingMatchAudit, athleteName string) {
	al.WithFields(logrus.Fields{
		"match_hash":    audit.MatchHash,
		"athlete_id":    audit.AthleteID.String(),
		"athlete":       athleteName,
		"opponent":      audit.OpponentFirstName + " " + audit.OpponentLastName,
		"won":           audit.Won,
		"result_type":   string(audit.ResultType),
		"season_year":   audit.SeasonYear,
		"weight_class":  audit.WeightClass,
		"elo_before":    audit.EloBefore,
		"elo_after":     audit.EloAfter,
		"glicko_before": audit.GlickoRatingBefore,
		"glicko_after":  audit.GlickoRatingAfter,
		"rd_after":      audit.GlickoRDAfter,
	}).Info("Rating change recorded")
}

// LogDuplicateSkipped logs a match that was not rated because it was already seen.
func (al *AuditLogger) LogDuplicateSkipped(matchHash, source string, eventIndex int) {
	al.WithFields(logrus.Fields{
		"match_hash":  matchHash,
		"source":      source,
		"event_index": eventIndex,
	}).Debug("Duplicate match skipped")
}

// LogStateReset logs a deliberate removal of crawl state.
func (al *AuditLogger) LogStateReset(seasonKey, regionID, path string) {
	al.WithFields(logrus.Fields{
		"season": seasonKey,
		"region": regionID,
		"path":   path,
	}).Warn("Crawl state reset; next run rescrapes the whole season")
}
