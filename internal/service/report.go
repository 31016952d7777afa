package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/mat-rankings/internal/models"
)

// RunReport summarizes one bounded batch run
type RunReport struct {
	RunID         uuid.UUID           `json:"run_id"`
	SeasonKey     string              `json:"season_key"`
	RegionID      string              `json:"region_id"`
	StartedAt     time.Time           `json:"started_at"`
	Duration      time.Duration       `json:"duration"`
	EventsHandled int                 `json:"events_handled"`
	Processed     int                 `json:"processed"`
	Skipped       int                 `json:"skipped"`
	Failed        int                 `json:"failed"`
	Totals        models.EventSummary `json:"totals"`
	Complete      bool                `json:"complete"`
	Halted        bool                `json:"halted"`
	HaltReason    string              `json:"halt_reason,omitempty"`
	Stats         models.CrawlStats   `json:"stats"`
}

func newRunReport(seasonKey, regionID string, startedAt time.Time) *RunReport {
	return &RunReport{
		RunID:     uuid.New(),
		SeasonKey: seasonKey,
		RegionID:  regionID,
		StartedAt: startedAt,
	}
}

// addEvent folds one event summary into the run totals
func (r *RunReport) addEvent(s models.EventSummary) {
	r.Totals.Groups += s.Groups
	r.Totals.Rows += s.Rows
	r.Totals.Rated += s.Rated
	r.Totals.Duplicates += s.Duplicates
	r.Totals.ParseErrors += s.ParseErrors
	r.Totals.PersistenceErrors += s.PersistenceErrors
	r.Totals.Duration += s.Duration
}

// Status returns "complete" when the season has no pending events, "halted"
// when the failure breaker stopped the run and "partial" otherwise
func (r *RunReport) Status() string {
	switch {
	case r.Complete:
		return "complete"
	case r.Halted:
		return "halted"
	default:
		return "partial"
	}
}

// String returns a formatted string representation of the report
func (r *RunReport) String() string {
	return fmt.Sprintf(
		"RunReport{Status=%s, Season=%s, Region=%s, Events=%d (processed=%d, skipped=%d, failed=%d), Rows=%d, Rated=%d, Duplicates=%d, ParseErrors=%d, PersistenceErrors=%d, Progress=%.1f%%, Duration=%v}",
		r.Status(),
		r.SeasonKey,
		r.RegionID,
		r.EventsHandled,
		r.Processed,
		r.Skipped,
		r.Failed,
		r.Totals.Rows,
		r.Totals.Rated,
		r.Totals.Duplicates,
		r.Totals.ParseErrors,
		r.Totals.PersistenceErrors,
		r.Stats.PercentComplete,
		r.Duration,
	)
}
