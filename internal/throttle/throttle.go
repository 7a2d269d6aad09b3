// Package throttle suppresses repeated triggers of the same operation.
package throttle

import (
	"sync"
	"time"
)

// Throttle admits a trigger only if at least window has passed since the
// last admitted one. Different call sites may pass different windows; they
// all measure against the same timestamp. Suppressed triggers are dropped,
// not deferred.
type Throttle struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func New() *Throttle {
	return NewWithClock(time.Now)
}

func NewWithClock(now func() time.Time) *Throttle {
	return &Throttle{now: now}
}

func (t *Throttle) Allow(window time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < window {
		return false
	}
	t.last = now
	return true
}

// Last returns when a trigger was last admitted, zero if never.
func (t *Throttle) Last() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
