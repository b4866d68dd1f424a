// Package counter provides the concurrent counters shared between execution
// contexts during a run.
//
// # Memory ordering
//
// Every operation is a sync/atomic operation, which the Go memory model
// defines as sequentially consistent. An increment made by a goroutine is
// therefore visible to any goroutine whose later Load observes it, and in
// particular to the single reader that runs after all writers have joined
// through a sync.WaitGroup or errgroup.Group: the join establishes a
// happens-before edge from every increment to that read.
package counter

import "sync/atomic"

// Counter is a lock-free int64 accumulator.
type Counter struct {
	v atomic.Int64
}

// Add adds delta and returns the new value.
func (c *Counter) Add(delta int64) int64 {
	return c.v.Add(delta)
}

// Inc adds one and returns the new value.
func (c *Counter) Inc() int64 {
	return c.v.Add(1)
}

// Load returns the current value.
func (c *Counter) Load() int64 {
	return c.v.Load()
}

// Budget hands out the indices 0..limit-1 exactly once each across any number
// of concurrent claimers.
type Budget struct {
	next  atomic.Int64
	limit int64
}

// NewBudget returns a Budget allowing limit claims. A non-positive limit
// yields a Budget that is already exhausted.
func NewBudget(limit int64) *Budget {
	if limit < 0 {
		limit = 0
	}
	return &Budget{limit: limit}
}

// Claim reserves the next index. ok is false once every index has been handed
// out; the caller must then stop asking for work.
func (b *Budget) Claim() (index int64, ok bool) {
	// Increment-then-check: the add is the claim, so two callers can never
	// receive the same index even when both race past the limit.
	index = b.next.Add(1) - 1
	if index >= b.limit {
		return 0, false
	}
	return index, true
}

// Claimed reports how many indices have been handed out so far.
func (b *Budget) Claimed() int64 {
	n := b.next.Load()
	if n > b.limit {
		return b.limit
	}
	return n
}

// Limit returns the configured number of claims.
func (b *Budget) Limit() int64 {
	return b.limit
}
