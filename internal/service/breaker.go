package service

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// FailureBreaker stops a run after too many events in a row failed to load.
// A site outage would otherwise mark every remaining event of the season failed.
type FailureBreaker struct {
	mu          sync.Mutex
	max         int
	consecutive int
	open        bool
	reason      string
	logger      *logrus.Logger
}

// NewFailureBreaker creates a breaker that opens after max consecutive failures.
// max <= 0 disables it.
func NewFailureBreaker(max int, logger *logrus.Logger) *FailureBreaker {
	return &FailureBreaker{max: max, logger: logger}
}

// RecordFailure counts a failed event and opens the breaker at the threshold
func (b *FailureBreaker) RecordFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max <= 0 || b.open {
		return
	}
	b.consecutive++
	if b.consecutive < b.max {
		return
	}

	b.open = true
	b.reason = fmt.Sprintf("%d consecutive events failed, last: %v", b.consecutive, err)
	b.logger.WithFields(logrus.Fields{
		"consecutive_failures": b.consecutive,
		"max_allowed":          b.max,
	}).Error("Failure breaker open; stopping run")
}

// RecordSuccess resets the failure streak
func (b *FailureBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive = 0
}

// IsOpen reports whether the run should stop
func (b *FailureBreaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// Reason describes why the breaker opened
func (b *FailureBreaker) Reason() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reason
}
