package logger

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/mat-rankings/internal/models"
)

// CrawlLogger provides dedicated logging for crawl progress.
type CrawlLogger struct {
	*logrus.Entry
}

// NewCrawlLogger creates a new crawl logger scoped to a season and region.
func NewCrawlLogger(baseLogger *logrus.Logger, seasonKey, regionID string) *CrawlLogger {
	return &CrawlLogger{
		Entry: baseLogger.WithFields(logrus.Fields{
			"component": "crawl",
			"season":    seasonKey,
			"region":    regionID,
		}),
	}
}

// LogEventOutcome logs the terminal state of an event.
func (cl *CrawlLogger) LogEventOutcome(event models.Event, outcome, reason string, summary *models.EventSummary) {
	fields := logrus.Fields{
		"event_index": event.Index,
		"event":       event.Text,
		"event_date":  event.DateText,
		"outcome":     outcome,
	}
	if reason != "" {
		fields["reason"] = reason
	}
	if summary != nil {
		fields["groups"] = summary.Groups
		fields["rows"] = summary.Rows
		fields["rated"] = summary.Rated
		fields["duplicates"] = summary.Duplicates
		fields["parse_errors"] = summary.ParseErrors
		fields["persistence_errors"] = summary.PersistenceErrors
		fields["duration_ms"] = summary.Duration.Milliseconds()
	}

	entry := cl.WithFields(fields)
	if outcome == "failed" {
		entry.Warn("Event failed")
		return
	}
	entry.Info("Event " + outcome)
}

// LogProgress logs overall crawl progress.
func (cl *CrawlLogger) LogProgress(stats models.CrawlStats) {
	cl.WithFields(logrus.Fields{
		"processed":         stats.Processed,
		"skipped":           stats.Skipped,
		"failed":            stats.Failed,
		"remaining":         stats.Remaining,
		"percent_complete":  stats.PercentComplete,
		"total_matches":     stats.TotalMatches,
		"processed_matches": stats.ProcessedMatches,
		"errors":            stats.Errors,
	}).Info("Crawl progress")
}

// LogRowError logs a row that could not be rated.
func (cl *CrawlLogger) LogRowError(eventIndex int, errType models.ErrorType, context, message string) {
	cl.WithFields(logrus.Fields{
		"event_index": eventIndex,
		"error_type":  string(errType),
		"context":     context,
	}).Warn(message)
}

// LogRunSummary logs the final report of a batch run.
func (cl *CrawlLogger) LogRunSummary(eventsHandled int, totals models.EventSummary, stats models.CrawlStats, duration time.Duration, complete bool) {
	cl.WithFields(logrus.Fields{
		"events_handled":     eventsHandled,
		"rows":               totals.Rows,
		"rated":              totals.Rated,
		"duplicates":         totals.Duplicates,
		"parse_errors":       totals.ParseErrors,
		"persistence_errors": totals.PersistenceErrors,
		"percent_complete":   stats.PercentComplete,
		"remaining":          stats.Remaining,
		"complete":           complete,
		"duration_ms":        duration.Milliseconds(),
	}).Info("Crawl run finished")
}
