package types

import "sync/atomic"

/*
Observer receives the stream of a cache key.

Next delivers a value. ok is false for an "absent" notification, which the
cache emits when a reload starts and the cache is configured to announce it.
Error and Complete are terminal: after either one the observer receives nothing
further on that subscription.

Callbacks for one shard are delivered sequentially from a dedicated goroutine,
in the order the cache produced them. Callbacks may call back into the cache.
*/
type Observer[T any] interface {
	Next(value T, ok bool)
	Error(err error)
	Complete()
}

// ObserverFuncs builds an Observer from optional callbacks.
type ObserverFuncs[T any] struct {
	OnNext     func(value T, ok bool)
	OnError    func(err error)
	OnComplete func()
}

func (o ObserverFuncs[T]) Next(value T, ok bool) {
	if o.OnNext != nil {
		o.OnNext(value, ok)
	}
}

func (o ObserverFuncs[T]) Error(err error) {
	if o.OnError != nil {
		o.OnError(err)
	}
}

func (o ObserverFuncs[T]) Complete() {
	if o.OnComplete != nil {
		o.OnComplete()
	}
}

/*
Subscriber is one registration of an Observer on a key.

The same Observer registered twice yields two Subscribers, and removal is by
Subscriber identity. Once closed (unsubscribed, errored or completed) it drops
every further event.
*/
type Subscriber[T any] struct {
	observer Observer[T]
	closed   atomic.Bool
}

// NewSubscriber wraps obs.
func NewSubscriber[T any](obs Observer[T]) *Subscriber[T] {
	return &Subscriber[T]{observer: obs}
}

// Close marks the subscriber closed. It reports whether this call closed it.
func (s *Subscriber[T]) Close() bool {
	return s.closed.CompareAndSwap(false, true)
}

// Closed reports whether the subscriber still accepts events.
func (s *Subscriber[T]) Closed() bool {
	return s.closed.Load()
}

// Next forwards a value unless the subscriber is closed.
func (s *Subscriber[T]) Next(value T, ok bool) {
	if !s.Closed() {
		s.observer.Next(value, ok)
	}
}

// Error closes the subscriber and forwards err.
func (s *Subscriber[T]) Error(err error) {
	if s.Close() {
		s.observer.Error(err)
	}
}

// Complete closes the subscriber and forwards completion.
func (s *Subscriber[T]) Complete() {
	if s.Close() {
		s.observer.Complete()
	}
}
