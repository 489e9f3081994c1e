package eviction_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/krisalay/loading-cache/eviction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFired(t *testing.T, ch <-chan uint64) uint64 {
	t.Helper()
	select {
	case gen := <-ch:
		return gen
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
		return 0
	}
}

func TestTimer_FiresAfterDuration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := eviction.NewTimer(clock)
	fired := make(chan uint64, 1)

	timer.Arm(time.Minute, func(gen uint64) { fired <- gen })
	require.True(t, timer.Armed())

	clock.BlockUntil(1)
	clock.Advance(59 * time.Second)
	select {
	case <-fired:
		t.Fatal("fired early")
	default:
	}

	clock.Advance(time.Second)
	gen := waitFired(t, fired)

	assert.True(t, timer.Fired(gen))
	assert.False(t, timer.Armed())
	assert.False(t, timer.Fired(gen), "a generation is only honoured once")
}

func TestTimer_CancelInvalidatesPendingFiring(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := eviction.NewTimer(clock)
	fired := make(chan uint64, 1)

	timer.Arm(time.Second, func(gen uint64) { fired <- gen })
	clock.Advance(time.Second)
	gen := waitFired(t, fired)

	// The owner processes a Cancel before it gets to the firing.
	timer.Cancel()
	assert.False(t, timer.Fired(gen))
	assert.False(t, timer.Armed())
}

func TestTimer_RearmSupersedesOldSchedule(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := eviction.NewTimer(clock)
	fired := make(chan uint64, 2)

	timer.Arm(time.Second, func(gen uint64) { fired <- gen })
	clock.Advance(time.Second)
	stale := waitFired(t, fired)

	timer.Arm(time.Second, func(gen uint64) { fired <- gen })
	assert.False(t, timer.Fired(stale))

	clock.Advance(time.Second)
	assert.True(t, timer.Fired(waitFired(t, fired)))
}

func TestTimer_CancelStopsClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := eviction.NewTimer(clock)

	timer.Arm(time.Second, func(uint64) { t.Error("canceled timer fired") })
	timer.Cancel()
	timer.Cancel()

	clock.Advance(time.Hour)
	time.Sleep(10 * time.Millisecond)
}
