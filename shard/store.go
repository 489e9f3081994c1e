package shard

import "sync/atomic"

/*
This file defines how entries are stored inside a shard. This is NOT a normal map.
- Only the shard loop writes, so writers never contend
- Anyone may list keys or count entries without going through the loop

To achieve this, we use a technique called: "Copy-On-Write" (COW)
*/

// ShardStore is the interface used by a shard to store and retrieve entries.
type ShardStore[E any] interface {

	// Get retrieves an entry by key.
	Get(string) (E, bool)

	// Put inserts or replaces an entry.
	Put(string, E)

	// Delete removes an entry.
	Delete(string)

	// Keys returns the keys of one consistent snapshot.
	Keys() []string

	// Size returns how many entries are stored.
	Size() int64
}

/*
cowStore is a Copy-On-Write implementation of ShardStore.

- Readers always see an immutable snapshot
- Writers create a NEW copy of the map
- The new map replaces the old one atomically
*/
type cowStore[E any] struct {
	data atomic.Pointer[map[string]E]
	size atomic.Int64
}

func NewCOWStore[E any]() *cowStore[E] {
	s := &cowStore[E]{}
	m := make(map[string]E)
	s.data.Store(&m)
	return s
}

// Get retrieves an entry from the store.
func (s *cowStore[E]) Get(key string) (E, bool) {
	ent, ok := (*s.data.Load())[key]
	return ent, ok
}

// Put inserts or updates an entry in the store. This is where copy-on-write happens.
func (s *cowStore[E]) Put(key string, ent E) {
	old := *s.data.Load()

	n := make(map[string]E, len(old)+1)
	for k, v := range old {
		n[k] = v
	}
	n[key] = ent

	s.data.Store(&n)
	s.size.Store(int64(len(n)))
}

// Delete removes an entry from the store. Just like Put, this uses copy-on-write.
func (s *cowStore[E]) Delete(key string) {
	old := *s.data.Load()
	if _, ok := old[key]; !ok {
		return
	}

	n := make(map[string]E, len(old))
	for k, v := range old {
		if k != key {
			n[k] = v
		}
	}

	s.data.Store(&n)
	s.size.Store(int64(len(n)))
}

// Keys lists the keys of the current snapshot, in no particular order.
func (s *cowStore[E]) Keys() []string {
	m := *s.data.Load()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// Size returns how many entries are in the store.
func (s *cowStore[E]) Size() int64 {
	return s.size.Load()
}
