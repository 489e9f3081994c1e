package cache

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/apex/log"
	"github.com/jonboulle/clockwork"
	api "github.com/krisalay/loading-cache/api"
	"github.com/krisalay/loading-cache/engine"
	"github.com/krisalay/loading-cache/expiration"
	"github.com/krisalay/loading-cache/shard"
	"github.com/krisalay/loading-cache/tracking"
	"github.com/krisalay/loading-cache/types"
	"golang.org/x/sync/errgroup"
)

var _ api.Cache[string] = (*Registry[string])(nil)

type entryShard[T any] = shard.Shard[*types.Entry[T]]

/*
Registry is the main cache implementation.
This struct is the orchestrator that connects:
- shards (one loop per shard serializes each key's state)
- the engine (staleness, fetch attempts, loader pipeline)
- the subscriber multiplexer (multiplexer.go)
- idle eviction and reload timers
- metrics, logging and the tracker

Observers are called on a shard's dispatcher goroutine and may call any
Registry method except Close.
*/
type Registry[T any] struct {
	opts Options

	// shards are the owners of the entries. Each shard is an independent mini-cache.
	shards []*entryShard[T]

	// engine contains the "rules" of the cache: expiry, fetch attempts, the loader.
	engine *engine.Engine[T]

	// selector decides which shard a key belongs to.
	selector shard.Selector

	log     log.Interface
	metrics types.Metrics
	clock   clockwork.Clock

	// ctx is the parent of every fetch; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	closed    atomic.Bool
	closeOnce sync.Once

	trackID tracking.ID
}

// New creates a Registry that fetches through loader.
func New[T any](loader types.Loader[T], opts Options) (*Registry[T], error) {
	if loader == nil {
		return nil, types.ErrNilLoader
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry[T]{
		opts:     opts,
		engine:   engine.New(expiration.New(opts.Expiry), loader, opts.Debounce, opts.Metrics, opts.Clock),
		selector: shard.HashSelector{},
		log:      opts.Logger.WithField("cache", opts.Name),
		metrics:  opts.Metrics,
		clock:    opts.Clock,
		ctx:      ctx,
		cancel:   cancel,
	}

	onPanic := func(err error) {
		r.log.WithError(err).Error("recovered panic in cache callback")
	}
	r.shards = make([]*entryShard[T], opts.Shards)
	for i := range r.shards {
		r.shards[i] = shard.NewShard[*types.Entry[T]](onPanic)
	}

	if opts.Tracked {
		r.trackID = opts.Tracker.Track(opts.Name, r)
	}

	r.log.WithFields(log.Fields{
		"timeout":          opts.Timeout,
		"expiry":           opts.Expiry,
		"reload_on_expire": opts.ReloadOnExpire,
		"shards":           opts.Shards,
		"tracked":          opts.Tracked,
	}).Debug("cache created")

	return r, nil
}

// Name returns the configured cache name.
func (r *Registry[T]) Name() string {
	return r.opts.Name
}

func (r *Registry[T]) shardFor(key string) *entryShard[T] {
	return r.shards[r.selector.Select(key, len(r.shards))]
}

func (r *Registry[T]) check(key string) error {
	if key == "" {
		return types.ErrEmptyKey
	}
	if r.closed.Load() {
		return types.ErrClosed
	}
	return nil
}

/*
Load subscribes obs to key.

It returns once the subscription is registered. The first value may arrive
before or after Load returns.
*/
func (r *Registry[T]) Load(
	ctx context.Context,
	key string,
	obs types.Observer[T],
	opts ...types.LoadOption,
) (*types.Subscription, error) {
	if err := r.check(key); err != nil {
		return nil, err
	}
	if obs == nil {
		return nil, types.ErrNilObserver
	}

	var lo types.LoadOptions
	for _, opt := range opts {
		opt(&lo)
	}

	sub := types.NewSubscriber(obs)
	sh := r.shardFor(key)

	if err := sh.Do(ctx, func() { r.attach(sh, key, sub, lo.Force) }); err != nil {
		// The attach may still run; make sure it does not leave an orphan behind.
		sub.Close()
		sh.Post(func() { r.detach(sh, key, sub) })
		return nil, err
	}

	return types.NewSubscription(key, func() {
		sub.Close()
		_ = sh.Do(context.Background(), func() { r.detach(sh, key, sub) })
	}), nil
}

// Reload refetches key. See api.Cache for the full contract.
func (r *Registry[T]) Reload(ctx context.Context, key string) (T, bool, error) {
	var zero T
	if err := r.check(key); err != nil {
		return zero, false, err
	}

	// Buffered so the loop never blocks settling it.
	result := make(chan types.Result[T], 1)
	sh := r.shardFor(key)

	if err := sh.Do(ctx, func() { r.reload(sh, key, result) }); err != nil {
		return zero, false, err
	}

	select {
	case res := <-result:
		return res.Value, res.OK, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

// ReloadAll reloads every key in parallel.
func (r *Registry[T]) ReloadAll(ctx context.Context) ([]types.Result[T], error) {
	return r.reloadKeys(ctx, r.Keys())
}

// ReloadAllMatching reloads every key accepted by match. A nil match accepts every key.
func (r *Registry[T]) ReloadAllMatching(ctx context.Context, match func(key string) bool) ([]types.Result[T], error) {
	keys := r.Keys()
	if match != nil {
		keys = slices.DeleteFunc(keys, func(k string) bool { return !match(k) })
	}
	return r.reloadKeys(ctx, keys)
}

// ReloadKeys reloads every key and discards the results. It makes a Registry a tracking.Reloader.
func (r *Registry[T]) ReloadKeys(ctx context.Context) error {
	_, err := r.ReloadAll(ctx)
	return err
}

func (r *Registry[T]) reloadKeys(ctx context.Context, keys []string) ([]types.Result[T], error) {
	results := make([]types.Result[T], len(keys))
	if len(keys) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		g.Go(func() error {
			v, ok, err := r.Reload(gctx, key)
			if err != nil {
				return err
			}
			results[i] = types.Result[T]{Key: key, Value: v, OK: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.log.WithField("keys", len(keys)).Debug("bulk reload settled")
	return results, nil
}

// Delete removes key, completing its subscribers.
func (r *Registry[T]) Delete(ctx context.Context, key string) error {
	if err := r.check(key); err != nil {
		return err
	}

	sh := r.shardFor(key)
	return sh.Do(ctx, func() {
		if ent, ok := sh.Store.Get(key); ok {
			r.remove(sh, ent)
		}
	})
}

// Peek returns the cached value of key, if it is fresh.
func (r *Registry[T]) Peek(ctx context.Context, key string) (T, bool, error) {
	var (
		value T
		ok    bool
	)
	if err := r.check(key); err != nil {
		return value, false, err
	}

	sh := r.shardFor(key)
	err := sh.Do(ctx, func() {
		ent, found := sh.Store.Get(key)
		if found && ent.HasValue() && !r.engine.IsExpired(ent) {
			value, ok = ent.Value, true
		}
	})
	return value, ok, err
}

// Stats returns the bookkeeping of key.
func (r *Registry[T]) Stats(ctx context.Context, key string) (types.EntryStats, bool, error) {
	var (
		stats types.EntryStats
		ok    bool
	)
	if err := r.check(key); err != nil {
		return stats, false, err
	}

	sh := r.shardFor(key)
	err := sh.Do(ctx, func() {
		if ent, found := sh.Store.Get(key); found {
			// Age-based staleness is only noticed when someone looks.
			r.engine.IsExpired(ent)
			stats, ok = ent.Stats(), true
		}
	})
	return stats, ok, err
}

// Keys lists the cached keys in sorted order.
func (r *Registry[T]) Keys() []string {
	var keys []string
	for _, sh := range r.shards {
		keys = append(keys, sh.Store.Keys()...)
	}
	slices.Sort(keys)
	return keys
}

// Len counts the cached keys.
func (r *Registry[T]) Len() int {
	var n int64
	for _, sh := range r.shards {
		n += sh.Store.Size()
	}
	return int(n)
}

/*
Close gracefully shuts down the cache.

Every key is deleted (subscribers receive Complete, pending reloads settle as
absent), fetches in flight are canceled, the cache leaves its tracker, and the
shard goroutines stop once their last deliveries are made.

Close must not be called from an observer callback.
*/
func (r *Registry[T]) Close() error {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		if r.opts.Tracked {
			r.opts.Tracker.Untrack(r.trackID)
		}

		for _, sh := range r.shards {
			_ = sh.Do(context.Background(), func() { r.removeAll(sh) })
			sh.Close()
		}
		r.cancel()

		r.log.Debug("cache closed")
	})
	return nil
}
