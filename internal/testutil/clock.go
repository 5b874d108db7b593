package testutil

import "sync"

// TimeSource is a deterministic issued-at timestamp source. Each call to Now
// returns the current instant and advances it by a fixed step, so repeated
// mints get distinct but reproducible timestamps.
type TimeSource struct {
	mu   sync.Mutex
	now  int64
	step int64
}

// NewTimeSource creates a source starting at start nanoseconds, advancing by
// step on every read. A zero step freezes time.
func NewTimeSource(start, step int64) *TimeSource {
	return &TimeSource{now: start, step: step}
}

// Now returns the current instant and advances the source.
func (t *TimeSource) Now() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now
	t.now += t.step
	return now
}

// Reset rewinds the source to start.
func (t *TimeSource) Reset(start int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = start
}
