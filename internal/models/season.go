package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// seasonRolloverMonth is the first month that belongs to the next season year
const seasonRolloverMonth = time.July

// SeasonYear returns the season year a match counts toward.
// Seasons span two calendar years and are named by the later one, so a
// December 2024 match belongs to 2025. Without a date the year comes from
// the season key ("2024-25" or "2025").
func SeasonYear(eventDate *time.Time, seasonKey string) (int, error) {
	if eventDate != nil {
		year := eventDate.Year()
		if eventDate.Month() >= seasonRolloverMonth {
			year++
		}
		return year, nil
	}
	return SeasonYearFromKey(seasonKey)
}

// SeasonYearFromKey parses a season key of the form "2024-25", "2024-2025" or "2025"
func SeasonYearFromKey(seasonKey string) (int, error) {
	key := strings.TrimSpace(seasonKey)
	start, rest, ranged := strings.Cut(key, "-")
	year, err := strconv.Atoi(strings.TrimSpace(start))
	if err != nil || year < 1900 {
		return 0, fmt.Errorf("invalid season key %q", seasonKey)
	}
	if !ranged {
		return year, nil
	}
	if strings.TrimSpace(rest) == "" {
		return 0, fmt.Errorf("invalid season key %q", seasonKey)
	}
	return year + 1, nil
}
