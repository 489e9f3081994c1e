package engine

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/krisalay/loading-cache/debounce"
	"github.com/krisalay/loading-cache/expiration"
	"github.com/krisalay/loading-cache/types"
	"go.trai.ch/zerr"
)

/*
Engine is the "brain" of the cache system.
It is responsible for the behavior of a single entry, NOT for storage or fan-out.
This acts as the policy layer.

It decides:
- When a cached value is stale
- How a fetch attempt begins and how a newer one supersedes it
- How the outcome of a fetch changes the entry
- How the loader is called (debounce gate, minimum load time)
- How metrics are recorded

It does NOT:
- Store entries
- Handle sharding
- Deliver values to subscribers
- Own timers

Every method that takes an entry must be called from the goroutine that owns it.
Fetch is the exception: it touches no entry and runs on its own goroutine.
*/
type Engine[T any] struct {

	// Expiration decides when a loaded value stops being served.
	Expiration expiration.Strategy

	// Loader is how the cache talks to the outside world.
	Loader types.Loader[T]

	// Debounce gates fetches and stretches fast ones.
	Debounce debounce.Config

	// Metrics records fetch lifecycle events.
	Metrics types.Metrics

	// Clock is the time source for staleness and minimum load time.
	Clock clockwork.Clock
}

/*
New creates an Engine.
Nil collaborators are replaced with neutral defaults.
*/
func New[T any](
	exp expiration.Strategy,
	loader types.Loader[T],
	deb debounce.Config,
	metrics types.Metrics,
	clock clockwork.Clock,
) *Engine[T] {
	if exp == nil {
		exp = expiration.Never{}
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Engine[T]{
		Expiration: exp,
		Loader:     loader,
		Debounce:   deb,
		Metrics:    metrics,
		Clock:      clock,
	}
}

/*
IsExpired reports whether the entry may not serve its value.

BEHAVIOR:
---------
- A failed fetch leaves the entry expired until the next success
- Otherwise the Expiration strategy judges the age of the value
- The first time age-based staleness is noticed the entry is marked expired
*/
func (e *Engine[T]) IsExpired(ent *types.Entry[T]) bool {
	if ent.Expired {
		return true
	}
	if ent.LoadedAt.IsZero() {
		return false
	}
	if e.Expiration.IsExpired(ent.LoadedAt, e.Clock.Now()) {
		ent.Expired = true
		e.Metrics.Expire()
		return true
	}
	return false
}

// NeedsFetch reports whether a new subscriber must wait for a fetch.
func (e *Engine[T]) NeedsFetch(ent *types.Entry[T]) bool {
	if ent.Loading {
		return false
	}
	return ent.LoadedAt.IsZero() || e.IsExpired(ent)
}

// ReloadInterval is the period of the reload timer.
func (e *Engine[T]) ReloadInterval() time.Duration {
	return e.Expiration.Interval()
}

/*
Begin starts a new fetch attempt on the entry.

Any fetch already in flight is canceled and its eventual result will be
discarded by Settle. The returned context is derived from parent and is
canceled when the attempt is superseded, aborted, or settled.
*/
func (e *Engine[T]) Begin(parent context.Context, ent *types.Entry[T]) (context.Context, uint64) {
	if ent.Cancel != nil {
		ent.Cancel()
	}
	ent.Attempt++

	ctx, cancel := context.WithCancel(parent)
	ent.Cancel = cancel
	ent.Loading = true

	e.Metrics.Fetch()
	return ctx, ent.Attempt
}

/*
Settle applies the outcome of a fetch attempt.

It returns false when the attempt is no longer current (a newer attempt began
or the entry was deleted) and leaves the entry untouched.

On success the value and load time are stored and the entry is fresh.
On failure the entry is marked expired; the error is never cached.
*/
func (e *Engine[T]) Settle(ent *types.Entry[T], attempt uint64, value T, err error) bool {
	if ent.Deleted || attempt != ent.Attempt || !ent.Loading {
		e.Metrics.Discarded()
		return false
	}

	ent.Cancel()
	ent.Cancel = nil
	ent.Loading = false

	if err != nil {
		ent.Expired = true
		e.Metrics.FetchFailed()
		return true
	}

	ent.Value = value
	ent.LoadedAt = e.Clock.Now()
	ent.Expired = false
	return true
}

// Abort cancels the fetch in flight, if any, and invalidates its attempt.
func (e *Engine[T]) Abort(ent *types.Entry[T]) {
	if ent.Cancel != nil {
		ent.Cancel()
		ent.Cancel = nil
	}
	if ent.Loading {
		ent.Attempt++
		ent.Loading = false
	}
}

/*
Fetch runs the loader pipeline for one attempt:

 1. await the debounce gate
 2. call the loader
 3. hold the result back until MinLoadTime has passed since step 1

A panicking loader is reported as an error.
*/
func (e *Engine[T]) Fetch(ctx context.Context, key string) (value T, err error) {
	var zero T
	defer zerr.Defer(func(perr error) {
		value, err = zero, zerr.With(perr, "key", key)
	})

	started := e.Clock.Now()

	if gate := e.Debounce.Gate; gate != nil {
		if err := gate.Wait(ctx); err != nil {
			return zero, err
		}
	}

	value, err = e.Loader.Load(ctx, key)

	if rest := e.Debounce.MinLoadTime - e.Clock.Since(started); rest > 0 {
		select {
		case <-e.Clock.After(rest):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
	return value, err
}
