package dedup

import (
	"context"
	"fmt"
)

// Outcome is the result of a durable duplicate check
type Outcome int

const (
	// OutcomeNew means the match has never been rated
	OutcomeNew Outcome = iota
	// OutcomeDuplicate means audits already exist for the match
	OutcomeDuplicate
)

func (o Outcome) String() string {
	if o == OutcomeDuplicate {
		return "duplicate"
	}
	return "new"
}

// HashLookup reports whether a match hash has been persisted
type HashLookup interface {
	ExistsByHash(ctx context.Context, matchHash string) (bool, error)
}

// Checker consults persisted audits before a match is rated.
// The unique index on audits remains the final guard against races.
type Checker struct {
	lookup HashLookup
}

// NewChecker creates a checker backed by the given lookup
func NewChecker(lookup HashLookup) *Checker {
	return &Checker{lookup: lookup}
}

// CheckAndReserve returns OutcomeDuplicate when the hash already has audits
func (c *Checker) CheckAndReserve(ctx context.Context, matchHash string) (Outcome, error) {
	exists, err := c.lookup.ExistsByHash(ctx, matchHash)
	if err != nil {
		return OutcomeNew, fmt.Errorf("failed to check match hash: %w", err)
	}
	if exists {
		return OutcomeDuplicate, nil
	}
	return OutcomeNew, nil
}
