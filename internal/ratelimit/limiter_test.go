package ratelimit

import (
	"testing"
	"time"
)

func TestBackoffDoublesUpToMax(t *testing.T) {
	l := New(100*time.Millisecond, 500*time.Millisecond)

	if got := l.Interval(); got != 100*time.Millisecond {
		t.Fatalf("initial interval = %v, want 100ms", got)
	}

	l.Backoff()
	if got := l.Interval(); got != 200*time.Millisecond {
		t.Errorf("after 1 backoff = %v, want 200ms", got)
	}

	l.Backoff()
	l.Backoff()
	if got := l.Interval(); got != 500*time.Millisecond {
		t.Errorf("interval should cap at max, got %v", got)
	}
}

func TestSuccessDecaysTowardMin(t *testing.T) {
	l := New(100*time.Millisecond, 1600*time.Millisecond)
	l.Backoff()
	l.Backoff() // 400ms

	l.Success() // 300ms
	if got := l.Interval(); got != 300*time.Millisecond {
		t.Errorf("after success = %v, want 300ms", got)
	}

	for i := 0; i < 10; i++ {
		l.Success()
	}
	if got := l.Interval(); got != 100*time.Millisecond {
		t.Errorf("interval should floor at min, got %v", got)
	}
}

func TestWaitSleepsRemainingInterval(t *testing.T) {
	l := New(50*time.Millisecond, 50*time.Millisecond)

	var slept time.Duration
	l.sleep = func(d time.Duration) { slept += d }

	l.Wait() // first call: nothing to wait for
	l.Wait() // second call immediately after should sleep ~50ms
	if slept < 40*time.Millisecond || slept > 50*time.Millisecond {
		t.Errorf("slept %v, want close to 50ms", slept)
	}
}

func TestZeroMinDisablesDelay(t *testing.T) {
	l := New(0, 0)
	l.sleep = func(time.Duration) { t.Error("should not sleep with zero interval") }
	l.Wait()
	l.Wait()
}
