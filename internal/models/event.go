package models

import "time"

// Event represents one competition discovered on the results site
type Event struct {
	Index      int        `json:"index"`
	Text       string     `json:"text"`
	DateText   string     `json:"date_text"`
	ParsedDate *time.Time `json:"parsed_date,omitempty"`
	Locator    string     `json:"locator,omitempty"`
}

// SameAs reports whether two events describe the same competition.
// Indexes are ignored because they change whenever the event list is re-sorted.
func (e Event) SameAs(other Event) bool {
	return e.Text == other.Text && e.DateText == other.DateText
}

// HasDate checks if the event date could be parsed
func (e Event) HasDate() bool {
	return e.ParsedDate != nil
}

// IsFuture checks if the event starts after the given day
func (e Event) IsFuture(now time.Time) bool {
	if e.ParsedDate == nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return e.ParsedDate.UTC().After(today)
}
