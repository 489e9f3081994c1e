package types_test

import (
	"errors"
	"testing"
	"time"

	"github.com/krisalay/loading-cache/types"
	"github.com/stretchr/testify/assert"
)

type counting struct {
	next, errs, done int
}

func (c *counting) Next(string, bool) { c.next++ }
func (c *counting) Error(error)       { c.errs++ }
func (c *counting) Complete()         { c.done++ }

func TestSubscriber_TerminalEventsCloseIt(t *testing.T) {
	obs := &counting{}
	sub := types.NewSubscriber[string](obs)

	sub.Next("a", true)
	sub.Error(errors.New("boom"))
	sub.Error(errors.New("again"))
	sub.Complete()
	sub.Next("b", true)

	assert.Equal(t, counting{next: 1, errs: 1}, *obs)
	assert.True(t, sub.Closed())
}

func TestSubscriber_CloseDropsEvents(t *testing.T) {
	obs := &counting{}
	sub := types.NewSubscriber[string](obs)

	assert.True(t, sub.Close())
	assert.False(t, sub.Close())
	sub.Next("a", true)
	sub.Complete()

	assert.Equal(t, counting{}, *obs)
}

func TestSubscription_UnsubscribeOnce(t *testing.T) {
	calls := 0
	s := types.NewSubscription("k", func() { calls++ })
	s.Unsubscribe()
	s.Unsubscribe()

	assert.Equal(t, "k", s.Key())
	assert.Equal(t, 1, calls)
}

func TestEntry_Status(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		entry types.Entry[string]
		want  types.Status
	}{
		{name: "never loaded", entry: types.Entry[string]{}, want: types.StatusExpired},
		{name: "loading", entry: types.Entry[string]{Loading: true}, want: types.StatusLoading},
		{name: "loaded", entry: types.Entry[string]{LoadedAt: now}, want: types.StatusLoaded},
		{name: "expired", entry: types.Entry[string]{LoadedAt: now, Expired: true}, want: types.StatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.Status())
		})
	}
}

func TestEntry_ClearValue(t *testing.T) {
	e := types.Entry[string]{Key: "k", Value: "v", LoadedAt: time.Now()}
	e.ClearValue()

	assert.False(t, e.HasValue())
	assert.Empty(t, e.Value)
	assert.False(t, e.LoadedAt.IsZero())
	assert.Equal(t, "expired", e.Status().String())
}
