package refresh_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/krisalay/loading-cache/refresh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextTick(t *testing.T, ch <-chan uint64) uint64 {
	t.Helper()
	select {
	case gen := <-ch:
		return gen
	case <-time.After(time.Second):
		t.Fatal("ticker did not fire")
		return 0
	}
}

func TestTicker_Repeats(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticker := refresh.NewTicker(clock)
	ticks := make(chan uint64, 4)

	ticker.Start(10*time.Second, func(gen uint64) { ticks <- gen })
	require.True(t, ticker.Running())

	for i := 0; i < 3; i++ {
		clock.BlockUntil(1)
		clock.Advance(10 * time.Second)
		require.True(t, ticker.Tick(nextTick(t, ticks)), "tick %d", i)
	}
}

func TestTicker_StopInvalidatesTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticker := refresh.NewTicker(clock)
	ticks := make(chan uint64, 1)

	ticker.Start(time.Second, func(gen uint64) { ticks <- gen })
	clock.Advance(time.Second)
	gen := nextTick(t, ticks)

	ticker.Stop()
	assert.False(t, ticker.Tick(gen))
	assert.False(t, ticker.Running())
}

func TestTicker_StartIsIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticker := refresh.NewTicker(clock)
	ticks := make(chan uint64, 4)

	ticker.Start(time.Second, func(gen uint64) { ticks <- gen })
	ticker.Start(time.Second, func(gen uint64) { ticks <- gen })

	clock.Advance(time.Second)
	require.True(t, ticker.Tick(nextTick(t, ticks)))
	select {
	case <-ticks:
		t.Fatal("second Start scheduled a duplicate timer")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestTicker_ZeroIntervalNeverStarts(t *testing.T) {
	ticker := refresh.NewTicker(clockwork.NewFakeClock())
	ticker.Start(0, func(uint64) {})
	assert.False(t, ticker.Running())
}

func TestTicker_StartAfterShortensFirstPeriod(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticker := refresh.NewTicker(clock)
	ticks := make(chan uint64, 4)

	ticker.StartAfter(time.Second, 10*time.Second, func(gen uint64) { ticks <- gen })
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	require.True(t, ticker.Tick(nextTick(t, ticks)))

	clock.BlockUntil(1)
	clock.Advance(9 * time.Second)
	select {
	case <-ticks:
		t.Fatal("later ticks use the full interval")
	case <-time.After(20 * time.Millisecond):
	}
	clock.Advance(time.Second)
	require.True(t, ticker.Tick(nextTick(t, ticks)))
}

func TestTicker_StartAfterOverdueFiresAtOnce(t *testing.T) {
	ticker := refresh.NewTicker(clockwork.NewFakeClock())
	ticks := make(chan uint64, 1)

	ticker.StartAfter(-time.Minute, time.Second, func(gen uint64) { ticks <- gen })
	assert.True(t, ticker.Tick(nextTick(t, ticks)))
}
