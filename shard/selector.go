package shard

import "github.com/cespare/xxhash/v2"

/*
This file decides HOW a cache key is assigned to a shard.

The assignment must be stable: every operation on a key has to reach the same
shard loop, because that loop is what serializes the key's state changes.
*/

// Selector maps a key to a shard index in [0, n).
type Selector interface {
	Select(key string, n int) int
}

// HashSelector spreads keys by their xxhash digest.
type HashSelector struct{}

// Select chooses the shard for a given key.
func (HashSelector) Select(key string, n int) int {
	if n <= 1 {
		return 0
	}
	return int(xxhash.Sum64String(key) % uint64(n))
}
