// This file defines the periodic reload of entries that still have readers.
// The goal of refresh is: "Keep data fresh while somebody is watching it"

package refresh

import (
	"time"

	"github.com/jonboulle/clockwork"
)

/*
Ticker is the repeating reload timer of one cache entry.

It only runs while the entry has at least one subscriber and the cache was
configured to reload on expiry. Every tick asks the owner to refetch; the owner
skips the tick when a fetch is already in flight.

Like eviction.Timer, a Ticker is driven only from the goroutine that owns the
entry. Each tick reports a generation number and the owner calls Tick to both
validate it and schedule the next one.
*/
type Ticker struct {
	clock    clockwork.Clock
	timer    clockwork.Timer
	interval time.Duration
	fire     func(gen uint64)
	gen      uint64
	running  bool
}

// NewTicker returns a stopped ticker driven by clock.
func NewTicker(clock clockwork.Clock) *Ticker {
	return &Ticker{clock: clock}
}

// Start begins ticking every interval. Starting a running ticker is a no-op.
func (t *Ticker) Start(interval time.Duration, fire func(gen uint64)) {
	t.StartAfter(interval, interval, fire)
}

/*
StartAfter is Start with a shorter first period.

The first tick fires after first (a negative value fires at once), the
following ones every interval. It lets a ticker started for a value loaded a
while ago keep the value's original schedule.
*/
func (t *Ticker) StartAfter(first, interval time.Duration, fire func(gen uint64)) {
	if t.running || interval <= 0 {
		return
	}
	t.interval = interval
	t.fire = fire
	t.running = true
	t.gen++
	t.schedule(max(first, 0))
}

/*
Tick validates a firing reported by the callback.

It returns false for stale generations (the ticker was stopped or restarted in
the meantime). For a live generation it schedules the next tick and returns true.
*/
func (t *Ticker) Tick(gen uint64) bool {
	if !t.running || gen != t.gen {
		return false
	}
	t.schedule(t.interval)
	return true
}

// Stop halts the ticker. A callback already on its way is invalidated.
func (t *Ticker) Stop() {
	if !t.running {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.running = false
	t.gen++
}

// Running reports whether the ticker is active.
func (t *Ticker) Running() bool {
	return t.running
}

func (t *Ticker) schedule(after time.Duration) {
	gen, fire := t.gen, t.fire
	t.timer = t.clock.AfterFunc(after, func() { fire(gen) })
}
