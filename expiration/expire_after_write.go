package expiration

import "time"

/*
ExpireAfterWrite implements "expire after write": a value is good for TTL after
it was loaded, no matter how often it is read. Reads never push the deadline.
Only a successful fetch resets it.
*/
type ExpireAfterWrite struct {

	// TTL (Time-To-Live) defines how long a loaded value stays valid.
	TTL time.Duration
}

// IsExpired checks whether the value is stale at this moment.
// A value that was never loaded is not "expired", it is simply missing.
func (e *ExpireAfterWrite) IsExpired(loadedAt, now time.Time) bool {
	return !loadedAt.IsZero() && !now.Before(loadedAt.Add(e.TTL))
}

// Interval returns TTL, so the reload timer refetches right as values go stale.
func (e *ExpireAfterWrite) Interval() time.Duration {
	return e.TTL
}
