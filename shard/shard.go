package shard

import (
	"context"

	"github.com/krisalay/loading-cache/types"
)

/*
This file defines what a "Shard" is. A shard is a small, independent piece of the cache.
Instead of one big lock, every key is owned by exactly one shard and every
state change for that key happens on the shard's loop goroutine. Keys in
different shards never wait for each other.

A shard has two goroutines:
- loop: owns the entries. Every mutation runs here, one at a time.
- dispatch: calls observers. The loop hands it ready-made deliveries in order.

Observers therefore never run while the loop is busy, and they may call back
into the cache, because the loop never waits on the dispatcher.
*/
type Shard[E any] struct {

	// Store holds the entries of this shard. It is written only from the loop,
	// but its copy-on-write snapshots can be read from anywhere.
	Store ShardStore[E]

	loop     *Worker
	dispatch *Worker
}

// NewShard starts a shard. onPanic receives panics recovered on either goroutine.
func NewShard[E any](onPanic func(error)) *Shard[E] {
	return &Shard[E]{
		Store:    NewCOWStore[E](),
		loop:     NewWorker(onPanic),
		dispatch: NewWorker(onPanic),
	}
}

// Post queues fn on the loop without waiting. It returns false once the shard is closed.
func (s *Shard[E]) Post(fn func()) bool {
	return s.loop.Submit(fn)
}

/*
Do runs fn on the loop and waits for it to finish.

If ctx is done first Do returns ctx.Err(), but fn still runs later.
It must not be called from the loop itself.
*/
func (s *Shard[E]) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !s.loop.Submit(func() {
		defer close(done)
		fn()
	}) {
		return types.ErrClosed
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Deliver queues fn on the dispatcher, behind every delivery queued before it.
func (s *Shard[E]) Deliver(fn func()) {
	s.dispatch.Submit(fn)
}

/*
Close drains and stops the loop, then drains and stops the dispatcher, so every
delivery produced by the loop's final work still reaches its observer.
*/
func (s *Shard[E]) Close() {
	s.loop.Close()
	s.dispatch.Close()
}
