package models

import "time"

// ErrorType categorizes errors recorded during a crawl
type ErrorType string

const (
	ErrorTypeParse             ErrorType = "ParseError"
	ErrorTypeDuplicate         ErrorType = "DuplicateMatch"
	ErrorTypeNavigation        ErrorType = "NavigationError"
	ErrorTypeRatingPersistence ErrorType = "RatingPersistenceError"
	ErrorTypeStateCorruption   ErrorType = "StateCorruption"
	ErrorTypeResumeAmbiguity   ErrorType = "ResumeAmbiguity"
)

// ErrorRecord is one recorded crawl error
type ErrorRecord struct {
	Type       ErrorType `json:"type"`
	Context    string    `json:"context"`
	Message    string    `json:"message"`
	EventIndex int       `json:"event_index"`
	At         time.Time `json:"at"`
}

// EventSummary counts what happened to the rows of one event.
// Rows always equals Rated + Duplicates + ParseErrors + PersistenceErrors.
type EventSummary struct {
	Groups            int           `json:"groups"`
	Rows              int           `json:"rows"`
	Rated             int           `json:"rated"`
	Duplicates        int           `json:"duplicates"`
	ParseErrors       int           `json:"parse_errors"`
	PersistenceErrors int           `json:"persistence_errors"`
	Duration          time.Duration `json:"duration"`
}

// EventOutcome records the terminal state of an event
type EventOutcome struct {
	Index    int           `json:"index"`
	Text     string        `json:"text"`
	DateText string        `json:"date_text"`
	Reason   string        `json:"reason,omitempty"`
	Summary  *EventSummary `json:"summary,omitempty"`
	At       time.Time     `json:"at"`
}

// CrawlState is the persisted progress of a crawl over one season and region
type CrawlState struct {
	SeasonKey         string         `json:"season_key"`
	RegionID          string         `json:"region_id"`
	TotalEvents       int            `json:"total_events"`
	Events            []Event        `json:"events"`
	CurrentEventIndex int            `json:"current_event_index"`
	ProcessedEvents   []EventOutcome `json:"processed_events"`
	SkippedEvents     []EventOutcome `json:"skipped_events"`
	FailedEvents      []EventOutcome `json:"failed_events"`
	TotalMatches      int            `json:"total_matches"`
	ProcessedMatches  int            `json:"processed_matches"`
	Errors            []ErrorRecord  `json:"errors"`
	StartedAt         time.Time      `json:"started_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// NewCrawlState creates an empty state for a season and region
func NewCrawlState(seasonKey, regionID string, now time.Time) *CrawlState {
	return &CrawlState{
		SeasonKey:       seasonKey,
		RegionID:        regionID,
		Events:          []Event{},
		ProcessedEvents: []EventOutcome{},
		SkippedEvents:   []EventOutcome{},
		FailedEvents:    []EventOutcome{},
		Errors:          []ErrorRecord{},
		StartedAt:       now,
		UpdatedAt:       now,
	}
}

// Clone returns a deep copy of the state
func (s *CrawlState) Clone() *CrawlState {
	c := *s
	c.Events = append([]Event(nil), s.Events...)
	c.ProcessedEvents = cloneOutcomes(s.ProcessedEvents)
	c.SkippedEvents = cloneOutcomes(s.SkippedEvents)
	c.FailedEvents = cloneOutcomes(s.FailedEvents)
	c.Errors = append([]ErrorRecord(nil), s.Errors...)
	return &c
}

func cloneOutcomes(in []EventOutcome) []EventOutcome {
	out := make([]EventOutcome, len(in))
	for i, o := range in {
		out[i] = o
		if o.Summary != nil {
			s := *o.Summary
			out[i].Summary = &s
		}
	}
	return out
}

// CountErrors returns the number of recorded errors per type
func (s *CrawlState) CountErrors() map[ErrorType]int {
	counts := make(map[ErrorType]int)
	for _, e := range s.Errors {
		counts[e.Type]++
	}
	return counts
}

// CrawlStats summarizes crawl progress
type CrawlStats struct {
	TotalEvents      int     `json:"total_events"`
	Processed        int     `json:"processed"`
	Skipped          int     `json:"skipped"`
	Failed           int     `json:"failed"`
	Remaining        int     `json:"remaining"`
	PercentComplete  float64 `json:"percent_complete"`
	TotalMatches     int     `json:"total_matches"`
	ProcessedMatches int     `json:"processed_matches"`
	Errors           int     `json:"errors"`
}

// Stats computes progress figures for the state
func (s *CrawlState) Stats() CrawlStats {
	remaining := s.TotalEvents - s.CurrentEventIndex
	if remaining < 0 {
		remaining = 0
	}
	percent := 100.0
	if s.TotalEvents > 0 {
		percent = float64(s.CurrentEventIndex) / float64(s.TotalEvents) * 100
		if percent > 100 {
			percent = 100
		}
	}
	return CrawlStats{
		TotalEvents:      s.TotalEvents,
		Processed:        len(s.ProcessedEvents),
		Skipped:          len(s.SkippedEvents),
		Failed:           len(s.FailedEvents),
		Remaining:        remaining,
		PercentComplete:  percent,
		TotalMatches:     s.TotalMatches,
		ProcessedMatches: s.ProcessedMatches,
		Errors:           len(s.Errors),
	}
}
