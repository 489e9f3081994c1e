// This file defines when a cached value stops being served.

package expiration

import "time"

/*
Strategy is the interface that all expiration rules must follow. Instead of
hard-coding staleness checks into the cache, we define a strategy so expiration
behavior can be swapped easily.

A strategy only judges. It never removes anything: a stale entry stays in the
cache (so its subscribers stay attached) and is refetched on the next access.
*/
type Strategy interface {

	// IsExpired reports whether a value loaded at loadedAt is stale at now.
	IsExpired(loadedAt, now time.Time) bool

	// Interval is the period of the reload timer, or 0 when values never go stale.
	Interval() time.Duration
}

// Never is the strategy for caches without an expiry.
type Never struct{}

func (Never) IsExpired(time.Time, time.Time) bool { return false }
func (Never) Interval() time.Duration            { return 0 }

// New returns ExpireAfterWrite for a positive ttl and Never otherwise.
func New(ttl time.Duration) Strategy {
	if ttl <= 0 {
		return Never{}
	}
	return &ExpireAfterWrite{TTL: ttl}
}
