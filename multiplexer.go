package cache

import (
	"slices"

	"github.com/apex/log"
	"github.com/krisalay/loading-cache/eviction"
	"github.com/krisalay/loading-cache/refresh"
	"github.com/krisalay/loading-cache/types"
)

// Everything in this file runs on the loop of the shard that owns the entry.

func (r *Registry[T]) newEntry(key string) *types.Entry[T] {
	return &types.Entry[T]{
		Key:      key,
		Eviction: eviction.NewTimer(r.clock),
		Reload:   refresh.NewTicker(r.clock),
	}
}

/*
attach registers sub on key.

	unknown key          -> create entry, fetch
	fetch in flight      -> join it (a still-fresh value is delivered meanwhile)
	fresh value          -> deliver it to sub only
	stale, failed, force -> fetch again, the stale value is not delivered
*/
func (r *Registry[T]) attach(sh *entryShard[T], key string, sub *types.Subscriber[T], force bool) {
	if r.closed.Load() {
		sh.Deliver(sub.Complete)
		return
	}

	ent, ok := sh.Store.Get(key)
	if !ok {
		ent = r.newEntry(key)
		sh.Store.Put(key, ent)
		r.log.WithField("key", key).Debug("entry created")
	}

	ent.Eviction.Cancel()
	ent.Subscribers = append(ent.Subscribers, sub)
	r.metrics.Subscribed()
	r.checkLeak(ent)

	switch {
	case force || r.engine.NeedsFetch(ent):
		r.metrics.Miss()
		r.startFetch(sh, ent)
	case ent.HasValue() && !r.engine.IsExpired(ent):
		r.metrics.Hit()
		value := ent.Value
		sh.Deliver(func() { sub.Next(value, true) })
		r.ensureReload(sh, ent)
	default:
		r.metrics.Miss()
	}
}

func (r *Registry[T]) checkLeak(ent *types.Entry[T]) {
	n := len(ent.Subscribers)
	if n <= r.opts.LeakThreshold {
		return
	}
	r.metrics.LeakWarning()
	r.log.WithFields(log.Fields{
		"key":         ent.Key,
		"subscribers": n,
		"threshold":   r.opts.LeakThreshold,
	}).Warn("subscriber count above leak threshold")
}

// detach removes sub from key. Unknown subscribers are ignored.
func (r *Registry[T]) detach(sh *entryShard[T], key string, sub *types.Subscriber[T]) {
	ent, ok := sh.Store.Get(key)
	if !ok {
		return
	}
	i := slices.Index(ent.Subscribers, sub)
	if i < 0 {
		return
	}

	ent.Subscribers = slices.Delete(ent.Subscribers, i, i+1)
	r.metrics.Unsubscribed()

	if len(ent.Subscribers) == 0 {
		r.idle(sh, ent)
	}
}

/*
reload refetches a watched key. A key nobody watches is deleted instead and the
reload settles as absent right away, without calling the loader.
*/
func (r *Registry[T]) reload(sh *entryShard[T], key string, result chan<- types.Result[T]) {
	ent, ok := sh.Store.Get(key)
	if !ok {
		result <- types.Result[T]{Key: key}
		return
	}

	if len(ent.Subscribers) == 0 {
		r.log.WithField("key", key).Debug("reload of unwatched key deletes it")
		r.remove(sh, ent)
		result <- types.Result[T]{Key: key}
		return
	}

	ent.Waiters = append(ent.Waiters, result)
	r.startFetch(sh, ent)
}

// idle stops reloading an entry nobody watches and starts its eviction countdown.
func (r *Registry[T]) idle(sh *entryShard[T], ent *types.Entry[T]) {
	ent.Reload.Stop()
	ent.Eviction.Arm(r.opts.Timeout, func(gen uint64) {
		sh.Post(func() { r.evict(sh, ent, gen) })
	})
}

func (r *Registry[T]) evict(sh *entryShard[T], ent *types.Entry[T], gen uint64) {
	if ent.Deleted || !ent.Eviction.Fired(gen) || len(ent.Subscribers) > 0 {
		return
	}

	r.metrics.Eviction()
	r.log.WithField("key", ent.Key).Debug("idle entry evicted")
	r.remove(sh, ent)
}

// remove deletes the entry and completes every subscriber.
func (r *Registry[T]) remove(sh *entryShard[T], ent *types.Entry[T]) {
	r.engine.Abort(ent)
	ent.Eviction.Cancel()
	ent.Reload.Stop()
	ent.Deleted = true
	sh.Store.Delete(ent.Key)

	var zero T
	r.settle(ent, zero, false)

	subs := ent.Subscribers
	ent.Subscribers = nil
	for _, s := range subs {
		r.metrics.Unsubscribed()
		sh.Deliver(s.Complete)
	}
}

func (r *Registry[T]) removeAll(sh *entryShard[T]) {
	for _, key := range sh.Store.Keys() {
		if ent, ok := sh.Store.Get(key); ok {
			r.remove(sh, ent)
		}
	}
}

/*
broadcast delivers a value to the subscribers present right now. Subscribers
that join later are not included, and one that leaves before its turn is
skipped by its own closed flag without affecting the others.
*/
func (r *Registry[T]) broadcast(sh *entryShard[T], ent *types.Entry[T], value T, ok bool) {
	for _, s := range ent.Subscribers {
		sh.Deliver(func() { s.Next(value, ok) })
	}
}

// fail delivers err to every subscriber and detaches them all.
func (r *Registry[T]) fail(sh *entryShard[T], ent *types.Entry[T], err error) {
	subs := ent.Subscribers
	if len(subs) == 0 {
		return
	}
	ent.Subscribers = nil

	for _, s := range subs {
		r.metrics.Unsubscribed()
		sh.Deliver(func() { s.Error(err) })
	}
	r.idle(sh, ent)
}

// settle resolves every pending Reload of the entry.
func (r *Registry[T]) settle(ent *types.Entry[T], value T, ok bool) {
	for _, w := range ent.Waiters {
		w <- types.Result[T]{Key: ent.Key, Value: value, OK: ok}
	}
	ent.Waiters = nil
}

/*
ensureReload starts the reload timer when the entry qualifies for one.
The first tick comes when the current value expires, not a full interval
from now.
*/
func (r *Registry[T]) ensureReload(sh *entryShard[T], ent *types.Entry[T]) {
	if !r.opts.ReloadOnExpire || len(ent.Subscribers) == 0 || ent.Reload.Running() {
		return
	}
	interval := r.engine.ReloadInterval()
	first := ent.LoadedAt.Add(interval).Sub(r.clock.Now())
	ent.Reload.StartAfter(first, interval, func(gen uint64) {
		sh.Post(func() { r.tick(sh, ent, gen) })
	})
}

func (r *Registry[T]) tick(sh *entryShard[T], ent *types.Entry[T], gen uint64) {
	if ent.Deleted || !ent.Reload.Tick(gen) || ent.Loading {
		return
	}

	r.metrics.Refresh()
	r.startFetch(sh, ent)
}
