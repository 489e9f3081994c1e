// Package debounce gates fetches so bursts of load requests do not hammer the loader.
package debounce

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Gate is awaited before every fetch. Returning an error fails the fetch.
type Gate interface {
	Wait(ctx context.Context) error
}

// GateFunc adapts a function to the Gate interface.
type GateFunc func(ctx context.Context) error

func (f GateFunc) Wait(ctx context.Context) error { return f(ctx) }

// Config is the debounce setting of a cache.
type Config struct {
	// Gate is awaited before invoking the loader. Nil means no gate.
	Gate Gate

	// MinLoadTime holds back a completed fetch until at least this long after it started,
	// so a loading state does not flicker.
	MinLoadTime time.Duration
}

// Enabled reports whether the config does anything.
func (c Config) Enabled() bool {
	return c.Gate != nil || c.MinLoadTime > 0
}

// Delay is a fixed wait before every fetch.
type Delay struct {
	Window time.Duration
	Clock  clockwork.Clock
}

// Wait blocks for Window or until ctx is done.
func (d Delay) Wait(ctx context.Context) error {
	if d.Window <= 0 {
		return ctx.Err()
	}
	clock := d.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	select {
	case <-clock.After(d.Window):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trailing coalesces bursts of fetches: every waiter is released together once
// no new waiter has arrived for the length of the window.
type Trailing struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	window  time.Duration
	timer   clockwork.Timer
	gen     uint64
	release chan struct{}
}

// NewTrailing creates a trailing-edge gate. A nil clock means the real clock.
func NewTrailing(window time.Duration, clock clockwork.Clock) *Trailing {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Trailing{clock: clock, window: window}
}

// Wait joins the current burst and blocks until it is released.
func (d *Trailing) Wait(ctx context.Context) error {
	d.mu.Lock()
	if d.release == nil {
		d.release = make(chan struct{})
	}
	release := d.release

	// Every arrival pushes the window out.
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.window, func() { d.fire(gen) })
	d.mu.Unlock()

	select {
	case <-release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fire is called when the debounce window expires.
func (d *Trailing) fire(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// A later arrival re-armed the window.
	if gen != d.gen {
		return
	}
	d.releaseLocked()
}

// Flush releases every pending waiter immediately.
func (d *Trailing) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.releaseLocked()
}

func (d *Trailing) releaseLocked() {
	if d.release != nil {
		close(d.release)
		d.release = nil
	}
	d.timer = nil
}
