package ratelimit

import (
	"sync"
	"time"
)

// Limiter enforces an advisory inter-request delay toward the scraped site.
// The delay starts at the minimum and doubles on each reported failure, up to
// the maximum; successes walk it back down. It is advisory pacing, not a hard
// concurrency gate.
type Limiter struct {
	mu       sync.Mutex
	min      time.Duration
	max      time.Duration
	interval time.Duration
	last     time.Time

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

// New creates a limiter bounded by [min, max]. A non-positive min disables
// the delay entirely.
func New(min, max time.Duration) *Limiter {
	if max < min {
		max = min
	}
	return &Limiter{
		min:      min,
		max:      max,
		interval: min,
		sleep:    time.Sleep,
	}
}

// Wait blocks until the current inter-request interval has elapsed since the
// previous call.
func (l *Limiter) Wait() {
	l.mu.Lock()
	interval := l.interval
	elapsed := time.Since(l.last)
	l.last = time.Now()
	l.mu.Unlock()

	if interval <= 0 || elapsed >= interval {
		return
	}
	l.sleep(interval - elapsed)
}

// Backoff doubles the interval after a failed request, capped at the maximum.
func (l *Limiter) Backoff() {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.interval * 2
	if next > l.max {
		next = l.max
	}
	if next < l.min {
		next = l.min
	}
	l.interval = next
}

// Success decays the interval after a successful request, floored at the
// minimum.
func (l *Limiter) Success() {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.interval * 3 / 4
	if next < l.min {
		next = l.min
	}
	l.interval = next
}

// Interval reports the current delay, mostly for tests and logging.
func (l *Limiter) Interval() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.interval
}
