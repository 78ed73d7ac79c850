package core

// search_limiter.go bounds how many searches run at once.
//
// Every search re-reads the therapy table, usually over the network, so a
// burst of requests turns into a burst of fetches against the sheet host.
// The limiter is a semaphore: a search waits up to maxWait for a slot and
// fails with ErrTooManySearches if none frees up. WaitForDrain supports
// graceful shutdown.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManySearches is returned when no search slot frees up in time.
var ErrTooManySearches = errors.New("too many concurrent searches")

// DefaultMaxConcurrentSearches is the slot count used when none is given.
const DefaultMaxConcurrentSearches = 8

// DefaultMaxSearchWait is how long a search waits for a slot by default.
const DefaultMaxSearchWait = 5 * time.Second

// SearchLimiter restricts concurrent searches to a fixed number of slots.
type SearchLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewSearchLimiter allows at most maxConcurrent simultaneous searches.
// Non-positive arguments select the defaults.
func NewSearchLimiter(maxConcurrent int, maxWait time.Duration) *SearchLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentSearches
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxSearchWait
	}
	return &SearchLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting up to maxWait. The caller must Release a
// slot it acquired. A cancelled ctx returns ctx.Err(), even when a slot is free.
func (l *SearchLimiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.TryAcquire() {
		return nil
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManySearches
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *SearchLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *SearchLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// ActiveCount returns the number of searches holding a slot.
func (l *SearchLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// MaxConcurrent returns the slot count.
func (l *SearchLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Available returns the number of free slots.
func (l *SearchLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no search holds a slot or ctx is done.
func (l *SearchLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SearchLimiterStatus is a point-in-time view of the limiter.
type SearchLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state, reported by /healthz.
func (l *SearchLimiter) Status() SearchLimiterStatus {
	return SearchLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: l.MaxConcurrent(),
	}
}
