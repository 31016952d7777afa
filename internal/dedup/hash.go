// Package dedup keeps a match from being rated more than once.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/yourusername/mat-rankings/internal/models"
)

const unknownDate = "unknown"

// ComputeHash returns the content hash that identifies a match.
// Names are case-folded so the same bout scraped with different casing collides.
func ComputeHash(record *models.MatchRecord) string {
	date := unknownDate
	if record.EventDate != nil {
		date = record.EventDate.Format("2006-01-02")
	}

	parts := []string{
		normalize(record.Winner.FirstName),
		normalize(record.Winner.LastName),
		normalize(record.Loser.FirstName),
		normalize(record.Loser.LastName),
		normalize(record.WeightClass),
		string(record.Result.Type),
		date,
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
