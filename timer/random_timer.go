// Package timer provides the two timer flavors spec.md §4.3 requires:
// a resettable randomized single-shot election timer and a periodic
// heartbeat timer. Neither touches caller state directly — each only
// invokes a callback exactly once (or per tick), so the caller can post
// a self-addressed message into the single worker's inbox instead of
// mutating state from the timer's own goroutine (spec.md §5, §9).
package timer

import (
	"math/rand"
	"sync"
	"time"
)

// RandomTimer fires callback once after an interval drawn uniformly
// from [lower, upper]. Reset draws a fresh interval and restarts the
// wait; Stop cancels it. It generalizes the teacher's
// ElectionTimeout()/time.NewTimer(...).C one-shot pattern into a
// reusable, stoppable-across-role-transitions type (spec.md §4.1.1:
// "Interval is re-drawn on every reset").
type RandomTimer struct {
	lower, upper time.Duration
	callback     func()

	mu    sync.Mutex
	timer *time.Timer
}

// NewRandomTimer constructs a RandomTimer and starts it immediately.
func NewRandomTimer(lower, upper time.Duration, callback func()) *RandomTimer {
	t := &RandomTimer{lower: lower, upper: upper, callback: callback}
	t.timer = time.AfterFunc(randomInterval(lower, upper), callback)
	return t
}

// Reset cancels any pending fire and schedules a new one with a freshly
// drawn interval.
func (t *RandomTimer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timer.Stop()
	t.timer.Reset(randomInterval(t.lower, t.upper))
}

// Stop cancels the timer. It is safe to call Stop more than once and
// safe to call it during a role transition before the new role's timers
// start (spec.md §5: "role transitions must cancel the departing role's
// active timer before starting the new role's timer").
func (t *RandomTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timer.Stop()
}

func randomInterval(lower, upper time.Duration) time.Duration {
	if upper <= lower {
		return lower
	}
	span := upper - lower
	return lower + time.Duration(rand.Int63n(int64(span)))
}
