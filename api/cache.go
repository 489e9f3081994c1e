package cache

import (
	"context"

	"github.com/krisalay/loading-cache/types"
)

/*
Cache defines the PUBLIC API of our loading cache.
This is a contract that guarantees certain behaviors, without exposing internals.
All of the details like (sharding, fan-out, expiration, idle eviction, reload
scheduling, and fetch de-duplication) are hidden behind this interface.
*/
type Cache[T any] interface {

	/*
		Load subscribes an observer to a key.

		BEHAVIOR:
		-------------------
		1. Key unknown:
		   - Create the entry and start ONE fetch
		   - The observer receives the value when the fetch completes

		2. Fetch already in flight:
		   - Join it, no new fetch

		3. Fresh value cached:
		   - Deliver it to this observer only, no fetch

		4. Value expired, last fetch failed, or types.ForceReload given:
		   - Start a new fetch, never deliver the stale value

		The observer keeps receiving every later value of the key (reloads)
		until it unsubscribes, the key is deleted (Complete), or a fetch
		fails (Error).
	*/
	Load(ctx context.Context, key string, obs types.Observer[T], opts ...types.LoadOption) (*types.Subscription, error)

	/*
		Reload refetches a key and returns the outcome.

		BEHAVIOR:
		---------
		- Unknown key: returns absent, no fetch
		- Known key without subscribers: deletes it, returns absent, no fetch
		- Otherwise: supersedes any fetch in flight and returns the new value,
		  or absent if the fetch fails

		The error is only ever cancellation or a closed cache.
	*/
	Reload(ctx context.Context, key string) (T, bool, error)

	// ReloadAll reloads every key in parallel. An empty cache returns immediately.
	ReloadAll(ctx context.Context) ([]types.Result[T], error)

	// ReloadAllMatching reloads the keys accepted by match, or every key when match is nil.
	ReloadAllMatching(ctx context.Context, match func(key string) bool) ([]types.Result[T], error)

	/*
		Delete removes a key immediately.

		BEHAVIOR:
		---------
		- Every subscriber receives Complete
		- The fetch in flight and both timers are canceled
		- Pending reloads of the key settle as absent
	*/
	Delete(ctx context.Context, key string) error

	// Peek returns the cached value without subscribing. Expired values are never returned.
	Peek(ctx context.Context, key string) (T, bool, error)

	// Stats returns bookkeeping for a key, false if the key is unknown.
	Stats(ctx context.Context, key string) (types.EntryStats, bool, error)

	// Keys lists the cached keys in sorted order.
	Keys() []string

	// Len counts the cached keys.
	Len() int

	// Close deletes every key and stops the cache. Calling it again is a no-op.
	Close() error
}
