// Package parser turns free-text match result rows into structured records.
package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/yourusername/mat-rankings/internal/models"
)

// minTextLength is the shortest row that can hold a match description
const minTextLength = 10

// roundSeparator splits an optional tournament round from the match text
const roundSeparator = " - "

var (
	// Winner (School) over Loser (School) (Result)
	fullShape = regexp.MustCompile(`^(.+?)\s*\(([^()]*)\)\s+over\s+(.+?)\s*\(([^()]*)\)\s*\(([^()]+)\)\s*$`)
	// Winner (School) over Loser (School) Result
	looseShape = regexp.MustCompile(`^(.+?)\s*\(([^()]*)\)\s+over\s+(.+?)\s*\(([^()]*)\)\s+(\S.*?)\s*$`)

	timePattern  = regexp.MustCompile(`\d{1,2}:\d{2}`)
	scorePattern = regexp.MustCompile(`\d+\s*-\s*\d+`)
	spaces       = regexp.MustCompile(`\s+`)
)

// Parse extracts a match from a result row. It returns nil when the text
// does not describe a match; it never fails loudly.
func Parse(rawText, weightClass string, eventDate *time.Time) *models.MatchRecord {
	text := spaces.ReplaceAllString(strings.TrimSpace(rawText), " ")
	if len(text) < minTextLength {
		return nil
	}

	round, body := splitRound(text)

	m := fullShape.FindStringSubmatch(body)
	if m == nil {
		m = looseShape.FindStringSubmatch(body)
	}
	if m == nil {
		return nil
	}

	winnerFirst, winnerLast := splitName(m[1])
	loserFirst, loserLast := splitName(m[3])

	return &models.MatchRecord{
		WeightClass: strings.TrimSpace(weightClass),
		Winner: models.Wrestler{
			FirstName: winnerFirst,
			LastName:  winnerLast,
			School:    strings.TrimSpace(m[2]),
		},
		Loser: models.Wrestler{
			FirstName: loserFirst,
			LastName:  loserLast,
			School:    strings.TrimSpace(m[4]),
		},
		Result:          ParseResult(m[5]),
		TournamentRound: round,
		EventDate:       eventDate,
		RawText:         text,
	}
}

// splitRound separates "Champ. Round 1 - rest" into its round prefix and body.
// The separator only counts when it precedes the first school.
func splitRound(text string) (string, string) {
	idx := strings.Index(text, roundSeparator)
	if idx <= 0 {
		return "", text
	}
	if paren := strings.Index(text, "("); paren >= 0 && paren < idx {
		return "", text
	}
	return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+len(roundSeparator):])
}

// splitName splits on the first space. Missing parts become "Unknown".
func splitName(name string) (string, string) {
	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	if first == "" {
		first = models.UnknownName
	}
	if last == "" {
		last = models.UnknownName
	}
	return first, last
}

// ParseResult classifies a result token such as "Fall 1:30", "TF 17-2 4:10",
// "MD 12-3" or "Dec 5-3". Unrecognized tokens are treated as decisions.
func ParseResult(token string) models.MatchResult {
	raw := strings.TrimSpace(token)
	upper := strings.ToUpper(raw)
	result := models.MatchResult{Type: models.ResultDecision, Raw: raw}

	switch {
	case strings.HasPrefix(upper, "FALL"):
		result.Type = models.ResultFall
		result.Time = timePattern.FindString(raw)
	case strings.HasPrefix(upper, "TF"):
		result.Type = models.ResultTechFall
		result.Score = findScore(raw)
		result.Time = timePattern.FindString(raw)
	case strings.HasPrefix(upper, "MD"):
		result.Type = models.ResultMajorDecision
		result.Score = findScore(raw)
	case strings.HasPrefix(upper, "DEC"):
		result.Score = findScore(raw)
	case strings.Contains(upper, "FORFEIT"), strings.Contains(upper, "DEFAULT"):
		// decision without a score
	}

	return result
}

func findScore(s string) string {
	score := scorePattern.FindString(s)
	return strings.ReplaceAll(score, " ", "")
}
