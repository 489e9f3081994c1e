// Package tracking keeps a set of caches that can be bulk-reloaded together.
package tracking

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Reloader refreshes every key of one cache.
type Reloader interface {
	ReloadKeys(ctx context.Context) error
}

// ReloaderFunc adapts a function to the Reloader interface.
type ReloaderFunc func(ctx context.Context) error

func (f ReloaderFunc) ReloadKeys(ctx context.Context) error { return f(ctx) }

// ID identifies one tracked cache.
type ID uint64

type member struct {
	name     string
	reloader Reloader
}

/*
Tracker is an explicitly owned set of caches.

A cache joins when it is created with tracking enabled and leaves when it is
closed or when the tracker is cleared.

The tracker holds a strong reference to every member. A tracked cache that is
dropped without Close stays alive and keeps being reloaded by ReloadAll, so
Close is what ends its membership. A cache that is never closed also keeps its
shard goroutines running, which a weak reference here would not release.
*/
type Tracker struct {
	mu      sync.Mutex
	next    ID
	members map[ID]member
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{members: make(map[ID]member)}
}

// Track adds a cache and returns the ID to untrack it with.
func (t *Tracker) Track(name string, r Reloader) ID {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	t.members[t.next] = member{name: name, reloader: r}
	return t.next
}

// Untrack removes a cache. Unknown IDs are ignored.
func (t *Tracker) Untrack(id ID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.members, id)
}

/*
ReloadAll reloads every key of every tracked cache in parallel and returns once
all of them have settled. An empty tracker returns immediately.

Fetch failures do not fail the call: a failed key simply settles as absent.
Only cancellation or a closed cache surface as an error.
*/
func (t *Tracker) ReloadAll(ctx context.Context) error {
	t.mu.Lock()
	reloaders := make([]Reloader, 0, len(t.members))
	for _, m := range t.members {
		reloaders = append(reloaders, m.reloader)
	}
	t.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, r := range reloaders {
		g.Go(func() error {
			return r.ReloadKeys(ctx)
		})
	}
	return g.Wait()
}

// Clear forgets every tracked cache. The caches themselves keep working.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.members = make(map[ID]member)
}

// Len returns the number of tracked caches.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.members)
}

// Names returns the sorted names of the tracked caches.
func (t *Tracker) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(t.members))
	for _, m := range t.members {
		names = append(names, m.name)
	}
	sort.Strings(names)
	return names
}
