package types

import "sync"

// Subscription is the handle returned by a load. Unsubscribe is idempotent.
type Subscription struct {
	key         string
	unsubscribe func()
	once        sync.Once
}

// NewSubscription returns a handle that runs unsubscribe at most once.
func NewSubscription(key string, unsubscribe func()) *Subscription {
	return &Subscription{key: key, unsubscribe: unsubscribe}
}

// Key returns the subscribed key.
func (s *Subscription) Key() string {
	return s.key
}

// Unsubscribe detaches the observer. Events already queued for it are dropped.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.unsubscribe)
}

// LoadOptions tune a single load.
type LoadOptions struct {
	// Force starts a fresh fetch even when a valid value is cached.
	Force bool
}

// LoadOption mutates LoadOptions.
type LoadOption func(*LoadOptions)

// ForceReload makes the load bypass the cached value.
func ForceReload() LoadOption {
	return func(o *LoadOptions) { o.Force = true }
}

// Result is the settled outcome of a reload. OK is false for "absent".
type Result[T any] struct {
	Key   string
	Value T
	OK    bool
}
