package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/krisalay/loading-cache/debounce"
	"github.com/krisalay/loading-cache/engine"
	"github.com/krisalay/loading-cache/expiration"
	"github.com/krisalay/loading-cache/types"
	"github.com/krisalay/loading-cache/types/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func constLoader(v string) types.Loader[string] {
	return types.LoaderFunc[string](func(context.Context, string) (string, error) { return v, nil })
}

func TestEngine_BeginSettleSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	metrics := mocks.NewMockMetrics(ctrl)
	clock := clockwork.NewFakeClock()
	e := engine.New(expiration.New(time.Minute), constLoader("v"), debounce.Config{}, metrics, clock)

	ent := &types.Entry[string]{Key: "k"}

	metrics.EXPECT().Fetch()
	ctx, attempt := e.Begin(context.Background(), ent)
	require.True(t, ent.Loading)
	assert.Equal(t, uint64(1), attempt)

	require.True(t, e.Settle(ent, attempt, "v", nil))
	assert.Equal(t, "v", ent.Value)
	assert.Equal(t, clock.Now(), ent.LoadedAt)
	assert.False(t, ent.Loading)
	assert.True(t, ent.HasValue())
	assert.ErrorIs(t, ctx.Err(), context.Canceled, "settling releases the attempt context")
}

func TestEngine_SettleFailureMarksExpired(t *testing.T) {
	ctrl := gomock.NewController(t)
	metrics := mocks.NewMockMetrics(ctrl)
	e := engine.New[string](nil, constLoader("v"), debounce.Config{}, metrics, clockwork.NewFakeClock())

	ent := &types.Entry[string]{Key: "k"}
	metrics.EXPECT().Fetch()
	metrics.EXPECT().FetchFailed()

	_, attempt := e.Begin(context.Background(), ent)
	require.True(t, e.Settle(ent, attempt, "", errors.New("boom")))
	assert.True(t, ent.Expired)
	assert.False(t, ent.Loading)
	assert.Equal(t, types.StatusExpired, ent.Status())
}

func TestEngine_SupersededAttemptIsDiscarded(t *testing.T) {
	ctrl := gomock.NewController(t)
	metrics := mocks.NewMockMetrics(ctrl)
	e := engine.New[string](nil, constLoader("v"), debounce.Config{}, metrics, clockwork.NewFakeClock())

	ent := &types.Entry[string]{Key: "k"}
	metrics.EXPECT().Fetch().Times(2)
	metrics.EXPECT().Discarded()

	oldCtx, old := e.Begin(context.Background(), ent)
	_, current := e.Begin(context.Background(), ent)
	assert.ErrorIs(t, oldCtx.Err(), context.Canceled)

	assert.False(t, e.Settle(ent, old, "late", nil))
	assert.True(t, ent.Loading)
	assert.True(t, e.Settle(ent, current, "fresh", nil))
	assert.Equal(t, "fresh", ent.Value)
}

func TestEngine_AbortInvalidatesAttempt(t *testing.T) {
	ctrl := gomock.NewController(t)
	metrics := mocks.NewMockMetrics(ctrl)
	e := engine.New[string](nil, constLoader("v"), debounce.Config{}, metrics, clockwork.NewFakeClock())

	ent := &types.Entry[string]{Key: "k"}
	metrics.EXPECT().Fetch()
	metrics.EXPECT().Discarded()

	ctx, attempt := e.Begin(context.Background(), ent)
	e.Abort(ent)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.False(t, e.Settle(ent, attempt, "v", nil))
}

func TestEngine_IsExpired(t *testing.T) {
	ctrl := gomock.NewController(t)
	metrics := mocks.NewMockMetrics(ctrl)
	clock := clockwork.NewFakeClock()
	e := engine.New(expiration.New(time.Second), constLoader("v"), debounce.Config{}, metrics, clock)

	ent := &types.Entry[string]{Key: "k", Value: "v", LoadedAt: clock.Now()}
	assert.False(t, e.IsExpired(ent))
	assert.False(t, e.NeedsFetch(ent))

	clock.Advance(time.Second)
	metrics.EXPECT().Expire().Times(1)
	assert.True(t, e.IsExpired(ent))
	assert.True(t, e.IsExpired(ent), "already marked, counted once")
	assert.True(t, e.NeedsFetch(ent))

	ent.Loading = true
	assert.False(t, e.NeedsFetch(ent), "a fetch in flight is joined")
}

func TestEngine_FetchHonoursGateAndMinLoadTime(t *testing.T) {
	clock := clockwork.NewFakeClock()
	gateOpened := make(chan struct{})
	gate := debounce.GateFunc(func(context.Context) error {
		close(gateOpened)
		return nil
	})
	e := engine.New(nil, constLoader("v"), debounce.Config{Gate: gate, MinLoadTime: time.Second}, nil, clock)

	type result struct {
		v   string
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := e.Fetch(context.Background(), "k")
		done <- result{v, err}
	}()

	<-gateOpened
	clock.BlockUntil(1)
	select {
	case <-done:
		t.Fatal("fetch completed before the minimum load time")
	default:
	}

	clock.Advance(time.Second)
	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, "v", r.v)
	case <-time.After(time.Second):
		t.Fatal("fetch did not complete")
	}
}

func TestEngine_FetchGateError(t *testing.T) {
	called := false
	loader := types.LoaderFunc[string](func(context.Context, string) (string, error) {
		called = true
		return "v", nil
	})
	gateErr := errors.New("gate closed")
	e := engine.New[string](nil, loader, debounce.Config{
		Gate: debounce.GateFunc(func(context.Context) error { return gateErr }),
	}, nil, nil)

	_, err := e.Fetch(context.Background(), "k")
	require.ErrorIs(t, err, gateErr)
	assert.False(t, called)
}

func TestEngine_FetchRecoversLoaderPanic(t *testing.T) {
	loader := types.LoaderFunc[int](func(context.Context, string) (int, error) {
		panic("loader exploded")
	})
	e := engine.New[int](nil, loader, debounce.Config{}, nil, nil)

	v, err := e.Fetch(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loader exploded")
	assert.Zero(t, v)
}
