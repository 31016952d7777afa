package navigation

import (
	"regexp"
	"strings"
	"time"
)

var dateLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
	"Jan 2 2006",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
}

// Multi-day events such as "Dec 6 - 7, 2024" or "12/6/2024 - 12/7/2024"
var (
	monthRange = regexp.MustCompile(`^([A-Za-z]+\.? \d{1,2})\s*-\s*(?:[A-Za-z]+\.? )?\d{1,2},? (\d{4})$`)
	rangeSplit = regexp.MustCompile(`\s+-\s+`)
)

// ParseEventDate parses the date text of an event. Multi-day events resolve
// to their first day. It returns nil when no known layout matches.
func ParseEventDate(text string) *time.Time {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	candidates := []string{text}
	if m := monthRange.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1]+", "+m[2])
	}
	if parts := rangeSplit.Split(text, 2); len(parts) == 2 {
		candidates = append(candidates, parts[0])
	}

	for _, candidate := range candidates {
		candidate = strings.Replace(candidate, ".", "", 1)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return &t
			}
		}
	}
	return nil
}
