package eviction

import (
	"time"

	"github.com/jonboulle/clockwork"
)

/*
This file decides WHEN an idle cache entry is removed.

An entry is never evicted for lack of space. It is evicted once nobody has been
subscribed to it for a configured amount of time. The Timer below is that
"idle clock", one per entry.
*/

/*
Timer is a single-shot idle timer owned by one cache entry.

Lifecycle:
----------
- Arm when the last subscriber leaves
- Cancel when a subscriber arrives before it fires
- Fired is consulted by the owner when the callback reports back

A Timer is driven only from the goroutine that owns the entry. The callback
passed to Arm runs on the clock's goroutine and receives just a generation
number, so a firing that raced a Cancel or a re-Arm is recognised as stale.
*/
type Timer struct {
	clock clockwork.Clock
	timer clockwork.Timer
	gen   uint64
	armed bool
}

// NewTimer returns a disarmed timer driven by clock.
func NewTimer(clock clockwork.Clock) *Timer {
	return &Timer{clock: clock}
}

// Arm schedules fire after d, replacing any pending schedule.
func (t *Timer) Arm(d time.Duration, fire func(gen uint64)) {
	t.stop()
	t.gen++
	t.armed = true

	gen := t.gen
	t.timer = t.clock.AfterFunc(d, func() { fire(gen) })
}

// Cancel disarms the timer. A callback already on its way is invalidated.
func (t *Timer) Cancel() {
	if !t.armed {
		return
	}
	t.stop()
	t.gen++
	t.armed = false
}

// Fired reports whether gen is the live schedule, and disarms the timer when it is.
func (t *Timer) Fired(gen uint64) bool {
	if !t.armed || gen != t.gen {
		return false
	}
	t.armed = false
	t.timer = nil
	return true
}

// Armed reports whether a firing is pending.
func (t *Timer) Armed() bool {
	return t.armed
}

func (t *Timer) stop() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
