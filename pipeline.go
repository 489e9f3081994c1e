package cache

import (
	"fmt"

	"github.com/apex/log"
	"github.com/krisalay/loading-cache/types"
	"go.trai.ch/zerr"
)

/*
startFetch begins a fetch attempt for the entry, superseding any attempt in flight.

The loader runs on its own goroutine. Its outcome is posted back to the shard
loop, where complete decides whether it is still wanted.
*/
func (r *Registry[T]) startFetch(sh *entryShard[T], ent *types.Entry[T]) {
	if r.opts.BroadcastAbsentOnReload && !ent.LoadedAt.IsZero() {
		ent.ClearValue()
		var zero T
		r.broadcast(sh, ent, zero, false)
	}

	ctx, attempt := r.engine.Begin(r.ctx, ent)
	key := ent.Key
	logger := r.log.WithFields(log.Fields{"key": key, "attempt": attempt})
	logger.Debug("fetch started")

	go func() {
		value, err := r.engine.Fetch(ctx, key)
		if !sh.Post(func() { r.complete(sh, ent, attempt, value, err) }) {
			logger.Debug("fetch finished after close")
		}
	}()
}

// complete applies a fetch outcome and fans it out.
func (r *Registry[T]) complete(sh *entryShard[T], ent *types.Entry[T], attempt uint64, value T, err error) {
	logger := r.log.WithFields(log.Fields{"key": ent.Key, "attempt": attempt})

	if !r.engine.Settle(ent, attempt, value, err) {
		logger.Debug("discarded superseded fetch result")
		return
	}

	if err != nil {
		fetchErr := zerr.With(fmt.Errorf("%w: %w", types.ErrFetchFailed, err), "key", ent.Key)
		logger.WithField("subscribers", len(ent.Subscribers)).WithError(err).Warn("fetch failed")

		var zero T
		r.settle(ent, zero, false)
		r.fail(sh, ent, fetchErr)
		return
	}

	logger.WithField("subscribers", len(ent.Subscribers)).Debug("fetch succeeded")
	r.settle(ent, value, true)
	r.broadcast(sh, ent, value, true)
	r.ensureReload(sh, ent)
}
