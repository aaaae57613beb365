package monitor

import (
	"sync"

	"healther/app/internal/models"
)

// Transition describes how a watcher's status moved between two checks
type Transition struct {
	From models.HealthStatus
	To   models.HealthStatus
	// Failures is the number of consecutive non-healthy checks, including
	// this one
	Failures int
}

// Changed reports whether the status differs from the previous check.
// The first check of a watcher is not a change.
func (t Transition) Changed() bool {
	return t.From != "" && t.From != t.To
}

// Recovered reports whether the watcher became healthy again
func (t Transition) Recovered() bool {
	return t.Changed() && t.To == models.StatusHealthy
}

type state struct {
	status   models.HealthStatus
	failures int
}

// Tracker remembers the last status and consecutive failures per watcher.
// It is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	states map[string]state
}

// NewTracker creates a new tracker.
func NewTracker() *Tracker {
	return &Tracker{
		states: make(map[string]state),
	}
}

// Observe records the status of a check for watcherID and returns the
// transition from the previous one.
func (t *Tracker) Observe(watcherID string, status models.HealthStatus) Transition {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.states[watcherID]
	next := state{status: status}
	if status != models.StatusHealthy {
		next.failures = prev.failures + 1
	}
	t.states[watcherID] = next
	return Transition{From: prev.status, To: status, Failures: next.failures}
}

// Failures returns the consecutive failure count of watcherID.
func (t *Tracker) Failures(watcherID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[watcherID].failures
}

// Forget drops the state of a deleted watcher.
func (t *Tracker) Forget(watcherID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, watcherID)
}
