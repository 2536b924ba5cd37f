package milestones

import "sync"

// UpdateTracker remembers in-flight and failed milestone updates so pages
// can render loading and error states. Each Begin hands out a generation
// number; a Finish for an older generation can never clobber the outcome
// of a newer request for the same milestone.
type UpdateTracker struct {
	mu      sync.Mutex
	entries map[int64]*trackerEntry
}

type trackerEntry struct {
	started  uint64
	finished uint64
	lastErr  string
}

func NewUpdateTracker() *UpdateTracker {
	return &UpdateTracker{entries: make(map[int64]*trackerEntry)}
}

// Begin records the start of an update and returns its generation.
func (t *UpdateTracker) Begin(milestoneID int64) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entry(milestoneID)
	e.started++
	return e.started
}

// Finish records the outcome of the update started at gen. Outcomes of
// stale generations only clear the pending count; the error slot belongs
// to the most recent request.
func (t *UpdateTracker) Finish(milestoneID int64, gen uint64, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entry(milestoneID)
	if gen > e.finished {
		e.finished = gen
	}
	if gen == e.started {
		e.lastErr = errMsg
	}
}

// IsPending reports whether an update for the milestone is in flight.
func (t *UpdateTracker) IsPending(milestoneID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[milestoneID]
	return ok && e.started > e.finished
}

// LastError returns the error of the most recently finished update, or
// empty when it succeeded.
func (t *UpdateTracker) LastError(milestoneID int64) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[milestoneID]
	if !ok {
		return ""
	}
	return e.lastErr
}

// ClearError drops a recorded failure, typically after the page showed it.
func (t *UpdateTracker) ClearError(milestoneID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[milestoneID]; ok {
		e.lastErr = ""
	}
}

func (t *UpdateTracker) entry(milestoneID int64) *trackerEntry {
	e, ok := t.entries[milestoneID]
	if !ok {
		e = &trackerEntry{}
		t.entries[milestoneID] = e
	}
	return e
}
