package types

import (
	"context"
	"time"

	"github.com/krisalay/loading-cache/eviction"
	"github.com/krisalay/loading-cache/refresh"
)

// Status is the lifecycle state of a key as observed from outside the cache.
type Status int

const (
	// StatusEmpty means the key has no entry.
	StatusEmpty Status = iota
	// StatusLoading means a fetch is in flight.
	StatusLoading
	// StatusLoaded means the entry holds a fresh value.
	StatusLoaded
	// StatusExpired means the last fetch failed or the value outlived its expiry.
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusExpired:
		return "expired"
	default:
		return "empty"
	}
}

/*
Entry is the per-key state record.

Entries are owned by exactly one shard loop and are only ever read or mutated
from that loop's goroutine. Nothing outside the cache package holds on to them.

Value is meaningful only when LoadedAt is set and Expired is false.
*/
type Entry[T any] struct {
	Key      string
	Value    T
	LoadedAt time.Time // zero => never loaded
	Loading  bool
	Expired  bool

	// Subscribers in insertion order. The same observer may appear more than once.
	Subscribers []*Subscriber[T]

	// Attempt identifies the newest fetch. Results carrying an older attempt are dropped.
	Attempt uint64
	Cancel  context.CancelFunc

	// Waiters are pending Reload calls, settled by the next fetch completion.
	Waiters []chan<- Result[T]

	Eviction *eviction.Timer
	Reload   *refresh.Ticker

	// Deleted is set once the entry has left its shard.
	Deleted bool
}

// HasValue reports whether Value may be handed out.
func (e *Entry[T]) HasValue() bool {
	return !e.LoadedAt.IsZero() && !e.Expired
}

// Status derives the lifecycle state.
func (e *Entry[T]) Status() Status {
	switch {
	case e.Loading:
		return StatusLoading
	case e.HasValue():
		return StatusLoaded
	default:
		return StatusExpired
	}
}

// ClearValue drops the cached value while keeping LoadedAt for staleness bookkeeping.
func (e *Entry[T]) ClearValue() {
	var zero T
	e.Value = zero
	e.Expired = true
}

// EntryStats is a point-in-time copy of an entry's bookkeeping.
type EntryStats struct {
	Key         string
	Status      Status
	Subscribers int
	LoadedAt    time.Time
	Attempts    uint64
	IdleTimer   bool
	ReloadTimer bool
}

// Stats snapshots the entry.
func (e *Entry[T]) Stats() EntryStats {
	return EntryStats{
		Key:         e.Key,
		Status:      e.Status(),
		Subscribers: len(e.Subscribers),
		LoadedAt:    e.LoadedAt,
		Attempts:    e.Attempt,
		IdleTimer:   e.Eviction != nil && e.Eviction.Armed(),
		ReloadTimer: e.Reload != nil && e.Reload.Running(),
	}
}
