// Package tracker persists a resumable cursor over the events of a season crawl.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/mat-rankings/internal/models"
)

// ErrOutOfOrder is returned when an event other than the current one is marked
var ErrOutOfOrder = errors.New("event is not at the cursor")

// ErrNotInitialized is returned when the tracker is used before Initialize
var ErrNotInitialized = errors.New("tracker not initialized")

// Tracker walks the ordered event list of one season and region.
// Every mark is checkpointed to the store before it returns.
type Tracker struct {
	mu        sync.Mutex
	store     StateStore
	logger    *logrus.Logger
	seasonKey string
	regionID  string
	state     *models.CrawlState
	now       func() time.Time
}

// New creates a tracker for a season and region
func New(store StateStore, seasonKey, regionID string, logger *logrus.Logger) *Tracker {
	if logger == nil {
		logger = logrus.New()
	}
	return &Tracker{
		store:     store,
		logger:    logger,
		seasonKey: seasonKey,
		regionID:  regionID,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SortEvents orders events by date; undated events keep discovery order after dated ones
func SortEvents(events []models.Event) []models.Event {
	sorted := append([]models.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].ParsedDate, sorted[j].ParsedDate
		switch {
		case a != nil && b != nil:
			return a.Before(*b)
		case a != nil:
			return true
		default:
			return false
		}
	})
	for i := range sorted {
		sorted[i].Index = i
	}
	return sorted
}

// Initialize sorts the discovered events, restores prior progress and checkpoints
func (t *Tracker) Initialize(ctx context.Context, events []models.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	sorted := SortEvents(events)
	now := t.now()

	state := models.NewCrawlState(t.seasonKey, t.regionID, now)
	state.Events = sorted
	state.TotalEvents = len(sorted)

	prior, err := t.store.Load(ctx, t.seasonKey, t.regionID)
	switch {
	case errors.Is(err, ErrStateCorrupt):
		t.logger.WithError(err).WithFields(logrus.Fields{
			"season": t.seasonKey,
			"region": t.regionID,
		}).Error("CRAWL STATE CORRUPT - starting from the first event")
		state.Errors = append(state.Errors, models.ErrorRecord{
			Type:       models.ErrorTypeStateCorruption,
			Context:    "initialize",
			Message:    err.Error(),
			EventIndex: -1,
			At:         now,
		})
	case err != nil:
		return fmt.Errorf("failed to load crawl state: %w", err)
	case prior != nil:
		t.resume(state, prior, now)
	}

	t.state = state
	return t.persist(ctx)
}

// resume carries prior progress into the freshly sorted event list
func (t *Tracker) resume(state, prior *models.CrawlState, now time.Time) {
	state.StartedAt = prior.StartedAt
	state.Errors = append(state.Errors, prior.Errors...)

	if prior.CurrentEventIndex == 0 {
		return
	}

	last := models.Event{}
	found := -1
	if prior.CurrentEventIndex <= len(prior.Events) {
		last = prior.Events[prior.CurrentEventIndex-1]
		for j, ev := range state.Events {
			if ev.SameAs(last) {
				found = j
				break
			}
		}
	}

	if found < 0 {
		t.logger.WithFields(logrus.Fields{
			"season":     t.seasonKey,
			"region":     t.regionID,
			"last_event": last.Text,
			"last_date":  last.DateText,
		}).Warn("Last processed event not found in current listing, restarting from the first event")
		state.Errors = append(state.Errors, models.ErrorRecord{
			Type:       models.ErrorTypeResumeAmbiguity,
			Context:    fmt.Sprintf("%s (%s)", last.Text, last.DateText),
			Message:    "last processed event missing from the current event list",
			EventIndex: prior.CurrentEventIndex - 1,
			At:         now,
		})
		return
	}

	state.CurrentEventIndex = found + 1
	state.ProcessedEvents = prior.ProcessedEvents
	state.SkippedEvents = prior.SkippedEvents
	state.FailedEvents = prior.FailedEvents
	state.TotalMatches = prior.TotalMatches
	state.ProcessedMatches = prior.ProcessedMatches

	t.logger.WithFields(logrus.Fields{
		"season": t.seasonKey,
		"region": t.regionID,
		"cursor": state.CurrentEventIndex,
		"total":  state.TotalEvents,
	}).Info("Resuming crawl")
}

// Next returns the event at the cursor, or false when the crawl is complete
func (t *Tracker) Next() (models.Event, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == nil || t.state.CurrentEventIndex >= t.state.TotalEvents {
		return models.Event{}, false
	}
	return t.state.Events[t.state.CurrentEventIndex], true
}

// MarkProcessed records a fully handled event, folds its row counts into the
// match counters and checkpoints
func (t *Tracker) MarkProcessed(ctx context.Context, event models.Event, summary models.EventSummary) error {
	return t.mark(ctx, event, func(s *models.CrawlState, o models.EventOutcome) {
		o.Summary = &summary
		s.ProcessedEvents = append(s.ProcessedEvents, o)
		s.TotalMatches += summary.Rows
		s.ProcessedMatches += summary.Rated
	})
}

// MarkSkipped records an event that was intentionally not fetched and checkpoints
func (t *Tracker) MarkSkipped(ctx context.Context, event models.Event, reason string) error {
	return t.mark(ctx, event, func(s *models.CrawlState, o models.EventOutcome) {
		o.Reason = reason
		s.SkippedEvents = append(s.SkippedEvents, o)
	})
}

// MarkFailed records an event whose rows could not be fetched and checkpoints
func (t *Tracker) MarkFailed(ctx context.Context, event models.Event, cause error) error {
	return t.mark(ctx, event, func(s *models.CrawlState, o models.EventOutcome) {
		msg := "unknown error"
		if cause != nil {
			msg = cause.Error()
		}
		o.Reason = msg
		s.FailedEvents = append(s.FailedEvents, o)
		s.Errors = append(s.Errors, models.ErrorRecord{
			Type:       models.ErrorTypeNavigation,
			Context:    event.Text,
			Message:    msg,
			EventIndex: event.Index,
			At:         o.At,
		})
	})
}

func (t *Tracker) mark(ctx context.Context, event models.Event, apply func(*models.CrawlState, models.EventOutcome)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == nil {
		return ErrNotInitialized
	}
	cursor := t.state.CurrentEventIndex
	if cursor >= t.state.TotalEvents {
		return fmt.Errorf("%w: crawl already complete", ErrOutOfOrder)
	}
	current := t.state.Events[cursor]
	if current.Index != event.Index || !current.SameAs(event) {
		return fmt.Errorf("%w: got %d %q, cursor at %d %q", ErrOutOfOrder, event.Index, event.Text, cursor, current.Text)
	}

	apply(t.state, models.EventOutcome{
		Index:    event.Index,
		Text:     event.Text,
		DateText: event.DateText,
		At:       t.now(),
	})
	t.state.CurrentEventIndex++

	return t.persist(ctx)
}

// RecordError appends an error; it is persisted with the next checkpoint
func (t *Tracker) RecordError(rec models.ErrorRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == nil {
		return
	}
	if rec.At.IsZero() {
		rec.At = t.now()
	}
	t.state.Errors = append(t.state.Errors, rec)
}

// Checkpoint persists the current state without an event outcome
func (t *Tracker) Checkpoint(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == nil {
		return ErrNotInitialized
	}
	return t.persist(ctx)
}

// IsComplete reports whether every event has an outcome
func (t *Tracker) IsComplete() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state != nil && t.state.CurrentEventIndex >= t.state.TotalEvents
}

// Stats returns current progress
func (t *Tracker) Stats() models.CrawlStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == nil {
		return models.CrawlStats{PercentComplete: 100}
	}
	return t.state.Stats()
}

// State returns a copy of the current state
func (t *Tracker) State() *models.CrawlState {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == nil {
		return nil
	}
	return t.state.Clone()
}

func (t *Tracker) persist(ctx context.Context) error {
	t.state.UpdatedAt = t.now()
	if err := t.store.Save(ctx, t.state.Clone()); err != nil {
		return fmt.Errorf("failed to checkpoint crawl state: %w", err)
	}
	return nil
}
