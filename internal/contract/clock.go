package contract

import "sync/atomic"

// Clock is the engine's monotonic logical clock. Every emitted event carries
// a seq from it, so the full history has one total order independent of wall
// time, and a replay reproduces it exactly.
//
// Safe for concurrent use, though the single-writer design means one
// goroutine normally calls Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming from a known position. Used by replay.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the clock's position without advancing it.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
