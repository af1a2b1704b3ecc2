package sync

import "sync/atomic"

// Clock issues monotonically increasing attempt numbers. Every sync
// attempt takes a number at launch; a merge whose number no longer matches
// the clock's current value belongs to a superseded attempt and is
// dropped.
//
// Thread-safety: all methods use atomic operations.
type Clock struct {
	seq atomic.Int64
}

// Next increments and returns the next attempt number. The first call
// returns 1.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the most recently issued attempt number without
// incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
