package cache_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/apex/log"
	cache "github.com/krisalay/loading-cache"
	"github.com/stretchr/testify/require"
)

//
// ================= TEST LOADER =================
//

type reply struct {
	value string
	err   error
}

// pendingCall is one loader invocation waiting for the test to answer it.
type pendingCall struct {
	key   string
	ctx   context.Context
	reply chan reply
}

func (c *pendingCall) resolve(v string) { c.reply <- reply{value: v} }
func (c *pendingCall) reject(err error) { c.reply <- reply{err: err} }

// stubLoader either hands every call to the test (calls) or answers it with respond.
type stubLoader struct {
	calls   chan *pendingCall
	respond func(key string) (string, error)
	count   atomic.Int32
}

func newStubLoader() *stubLoader {
	return &stubLoader{calls: make(chan *pendingCall, 64)}
}

func autoLoader(respond func(key string) (string, error)) *stubLoader {
	l := newStubLoader()
	l.respond = respond
	return l
}

func (l *stubLoader) Load(ctx context.Context, key string) (string, error) {
	l.count.Add(1)
	if l.respond != nil {
		return l.respond(key)
	}

	c := &pendingCall{key: key, ctx: ctx, reply: make(chan reply, 1)}
	l.calls <- c
	select {
	case r := <-c.reply:
		return r.value, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (l *stubLoader) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case c := <-l.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("loader was not called")
		return nil
	}
}

func (l *stubLoader) assertIdle(t *testing.T) {
	t.Helper()
	select {
	case c := <-l.calls:
		t.Fatalf("unexpected loader call for %q", c.key)
	case <-time.After(30 * time.Millisecond):
	}
}

//
// ================= TEST OBSERVER =================
//

type event struct {
	value string
	ok    bool
	err   error
	done  bool
}

type recorder struct {
	mu     sync.Mutex
	events []event
	onNext func(value string, ok bool)
}

func (r *recorder) Next(value string, ok bool) {
	r.mu.Lock()
	r.events = append(r.events, event{value: value, ok: ok})
	hook := r.onNext
	r.mu.Unlock()
	if hook != nil {
		hook(value, ok)
	}
}

func (r *recorder) Error(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{err: err})
}

func (r *recorder) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{done: true})
}

func (r *recorder) snapshot() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event(nil), r.events...)
}

// wait blocks until at least n events arrived and returns them.
func (r *recorder) wait(t *testing.T, n int) []event {
	t.Helper()
	require.Eventually(t, func() bool { return len(r.snapshot()) >= n }, 2*time.Second, time.Millisecond,
		"expected %d events", n)
	return r.snapshot()
}

func (r *recorder) values() []string {
	var out []string
	for _, e := range r.snapshot() {
		if e.ok {
			out = append(out, e.value)
		}
	}
	return out
}

func value(v string) event { return event{value: v, ok: true} }

//
// ================= TEST LOGGER =================
//

type logCapture struct {
	mu      sync.Mutex
	entries []log.Entry
}

func (c *logCapture) HandleLog(e *log.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, *e)
	return nil
}

func (c *logCapture) messages(level log.Level) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, e := range c.entries {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

//
// ================= HELPER: CREATE CACHE =================
//

func newTestCache(t *testing.T, loader *stubLoader, opts cache.Options) *cache.Registry[string] {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = &log.Logger{Handler: &logCapture{}, Level: log.DebugLevel}
	}
	c, err := cache.New[string](loader, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func subscribe(t *testing.T, c *cache.Registry[string], key string) (*recorder, func()) {
	t.Helper()
	rec := &recorder{}
	sub, err := c.Load(context.Background(), key, rec)
	require.NoError(t, err)
	return rec, sub.Unsubscribe
}
