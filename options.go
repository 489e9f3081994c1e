package cache

import (
	"time"

	"github.com/apex/log"
	"github.com/jonboulle/clockwork"
	"github.com/krisalay/loading-cache/debounce"
	"github.com/krisalay/loading-cache/tracking"
	"github.com/krisalay/loading-cache/types"
	"go.trai.ch/zerr"
)

const (
	DefaultName          = "default"
	DefaultTimeout       = time.Minute
	DefaultLeakThreshold = 50
	DefaultShards        = 1
)

/*
Options configures a Registry. Every field has a usable zero value; defaults
are applied field by field by New.
*/
type Options struct {

	// Name labels the cache in logs, metrics and the tracker.
	Name string

	// Timeout is how long an entry without subscribers survives before it is purged.
	Timeout time.Duration

	// Expiry is how long a loaded value stays fresh. Zero means forever.
	Expiry time.Duration

	// ReloadOnExpire refetches every Expiry while a key has subscribers.
	ReloadOnExpire bool

	// BroadcastAbsentOnReload notifies subscribers with an absent value when a reload starts.
	BroadcastAbsentOnReload bool

	// Tracked adds the cache to Tracker so it takes part in bulk reloads.
	Tracked bool
	Tracker *tracking.Tracker

	// LeakThreshold is the per-key subscriber count above which a leak warning is raised.
	LeakThreshold int

	// Debounce gates fetches.
	Debounce debounce.Config

	// Shards is the number of independent loops keys are spread over.
	Shards int

	Logger  log.Interface
	Metrics types.Metrics
	Clock   clockwork.Clock
}

// Validate reports the first configuration error.
func (o Options) Validate() error {
	switch {
	case o.Timeout < 0:
		return zerr.With(zerr.Wrap(types.ErrInvalidOption, "negative timeout"), "timeout", o.Timeout)
	case o.Expiry < 0:
		return zerr.With(zerr.Wrap(types.ErrInvalidOption, "negative expiry"), "expiry", o.Expiry)
	case o.LeakThreshold < 0:
		return zerr.With(zerr.Wrap(types.ErrInvalidOption, "negative leak threshold"), "leak_threshold", o.LeakThreshold)
	case o.Shards < 0:
		return zerr.With(zerr.Wrap(types.ErrInvalidOption, "negative shard count"), "shards", o.Shards)
	case o.Debounce.MinLoadTime < 0:
		return zerr.With(zerr.Wrap(types.ErrInvalidOption, "negative min load time"), "min_load_time", o.Debounce.MinLoadTime)
	case o.ReloadOnExpire && o.Expiry == 0:
		return zerr.With(zerr.Wrap(types.ErrReloadWithoutExpiry, "invalid options"), "cache", o.Name)
	case o.Tracked && o.Tracker == nil:
		return zerr.With(zerr.Wrap(types.ErrTrackerRequired, "invalid options"), "cache", o.Name)
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = DefaultName
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.LeakThreshold == 0 {
		o.LeakThreshold = DefaultLeakThreshold
	}
	if o.Shards == 0 {
		o.Shards = DefaultShards
	}
	if o.Logger == nil {
		o.Logger = log.Log
	}
	if o.Metrics == nil {
		o.Metrics = types.NoopMetrics{}
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	return o
}
