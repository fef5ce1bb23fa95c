package animation

import (
	"sync"
	"time"
)

// Timer measures wall-clock time between ticks. The clock is injectable so
// tests can drive it.
type Timer struct {
	mu      sync.Mutex
	now     func() time.Time
	last    time.Time
	started bool
}

// NewTimer returns a timer reading now, or time.Now when now is nil.
func NewTimer(now func() time.Time) *Timer {
	if now == nil {
		now = time.Now
	}
	return &Timer{now: now}
}

// Delta returns the seconds elapsed since the previous call. The first call
// after creation or Reset has no reference point and returns 0.
func (t *Timer) Delta() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if !t.started {
		t.last, t.started = now, true
		return 0
	}
	dt := now.Sub(t.last).Seconds()
	t.last = now
	if dt < 0 {
		return 0
	}
	return dt
}

// Reset forgets the last tick, so the next Delta returns 0.
func (t *Timer) Reset() {
	t.mu.Lock()
	t.started = false
	t.mu.Unlock()
}
