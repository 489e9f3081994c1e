package types

// This file defines how the cache reports what it is doing.

//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle. The cache calls these
methods from its shard loops, so implementations must be safe for concurrent use
and must not block.
*/
type Metrics interface {

	// Hit is called when a new subscriber is served the cached value.
	Hit()

	// Miss is called when a new subscriber has to wait for a fetch.
	Miss()

	// Eviction is called when an idle entry is purged by its timer.
	Eviction()

	// Expire is called when a cached value is found past its expiry.
	Expire()

	// Refresh is called when the reload timer starts a fetch.
	Refresh()

	// Fetch is called every time the loader is invoked.
	Fetch()

	// FetchFailed is called when the loader returns an error.
	FetchFailed()

	// Discarded is called when a superseded fetch result is thrown away.
	Discarded()

	// Subscribed and Unsubscribed track the live subscriber count.
	Subscribed()
	Unsubscribed()

	// LeakWarning is called when a key's subscriber count crosses the leak threshold.
	LeakWarning()
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

The cache always holds a non-nil Metrics, so users that do not care about
metrics get this one.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()          {}
func (NoopMetrics) Miss()         {}
func (NoopMetrics) Eviction()     {}
func (NoopMetrics) Expire()       {}
func (NoopMetrics) Refresh()      {}
func (NoopMetrics) Fetch()        {}
func (NoopMetrics) FetchFailed()  {}
func (NoopMetrics) Discarded()    {}
func (NoopMetrics) Subscribed()   {}
func (NoopMetrics) Unsubscribed() {}
func (NoopMetrics) LeakWarning()  {}
