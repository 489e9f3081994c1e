package commands

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	cache "github.com/krisalay/loading-cache"
	"github.com/krisalay/loading-cache/metrics"
	"github.com/krisalay/loading-cache/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
)

type demoOptions struct {
	expiry  time.Duration
	latency time.Duration
	shards  int
	wait    time.Duration
}

func (c *CLI) newDemoCmd() *cobra.Command {
	o := demoOptions{}
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk through the cache lifecycle against an in-memory store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runDemo(cmd.Context(), cmd.OutOrStdout(), o)
		},
	}

	cmd.Flags().DurationVar(&o.expiry, "expiry", 300*time.Millisecond, "Age after which a value is reloaded")
	cmd.Flags().DurationVar(&o.latency, "latency", 50*time.Millisecond, "Simulated store latency")
	cmd.Flags().IntVar(&o.shards, "shards", 4, "Number of shards")
	cmd.Flags().DurationVar(&o.wait, "wait", 5*time.Second, "Give up on a step after this long")

	return cmd
}

// ================= BACKING STORE =================

type demoStore struct {
	mu      sync.RWMutex
	data    map[string]string
	latency time.Duration
	out     io.Writer
}

func (s *demoStore) Load(ctx context.Context, key string) (string, error) {
	_, _ = fmt.Fprintln(s.out, "STORE  → load:", key)
	select {
	case <-time.After(s.latency):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", zerr.With(zerr.New("no such record"), "key", key)
	}
	return v, nil
}

func (s *demoStore) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// syncWriter serializes writes from observer goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}

// ================= DEMO =================

func (c *CLI) runDemo(ctx context.Context, w io.Writer, o demoOptions) error {
	out := &syncWriter{w: w}
	events := make(chan string, 256)
	emit := func(ev string) {
		select {
		case events <- ev:
		default:
		}
	}
	drain := func() {
		for {
			select {
			case <-events:
			default:
				return
			}
		}
	}

	printer := func(name string) types.Observer[string] {
		return types.ObserverFuncs[string]{
			OnNext: func(v string, ok bool) {
				if !ok {
					v = "<absent>"
				}
				_, _ = fmt.Fprintf(out, "%-6s → %s\n", name, v)
				emit(v)
			},
			OnError: func(err error) {
				_, _ = fmt.Fprintf(out, "%-6s → error: %v\n", name, err)
				emit("error")
			},
			OnComplete: func() {
				_, _ = fmt.Fprintf(out, "%-6s → complete\n", name)
				emit("complete")
			},
		}
	}
	awaitValue := func(want string, n int) error {
		timeout := time.After(o.wait)
		for i := 0; i < n; {
			select {
			case ev := <-events:
				if want == "" || ev == want {
					i++
				}
			case <-timeout:
				return zerr.With(zerr.New("demo step timed out"), "expected", n)
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}
	await := func(n int) error { return awaitValue("", n) }

	_, _ = fmt.Fprintln(out, "\n==================== SYSTEM BOOT ====================")
	_, _ = fmt.Fprintln(out, "SHARDS          :", o.shards)
	_, _ = fmt.Fprintln(out, "EXPIRY          :", o.expiry)
	_, _ = fmt.Fprintln(out, "RELOAD ON EXPIRE: true")

	store := &demoStore{data: map[string]string{"a": "alpha", "b": "beta"}, latency: o.latency, out: out}

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg, "loadcache")

	c1, err := cache.New[string](store, cache.Options{
		Name:           "demo",
		Expiry:         o.expiry,
		ReloadOnExpire: true,
		Shards:         o.shards,
		Logger:         c.log,
		Metrics:        m.For("demo"),
	})
	if err != nil {
		return err
	}
	defer c1.Close()

	// ====================================================
	_, _ = fmt.Fprintln(out, "\n==================== 1) MISS, ONE FETCH FOR THREE ====================")
	for i := 1; i <= 3; i++ {
		if _, err := c1.Load(ctx, "a", printer(fmt.Sprintf("SUB-%d", i))); err != nil {
			return err
		}
	}
	if err := await(3); err != nil {
		return err
	}

	// ====================================================
	_, _ = fmt.Fprintln(out, "\n==================== 2) HIT ====================")
	if _, err := c1.Load(ctx, "a", printer("SUB-4")); err != nil {
		return err
	}
	if err := await(1); err != nil {
		return err
	}

	// ====================================================
	_, _ = fmt.Fprintln(out, "\n==================== 3) EXPIRY RELOAD ====================")
	store.Put("a", "alpha-2")
	_, _ = fmt.Fprintln(out, "STORE  → a updated, waiting for reload")
	if err := awaitValue("alpha-2", 4); err != nil {
		return err
	}

	// ====================================================
	_, _ = fmt.Fprintln(out, "\n==================== 4) DELETE ====================")
	drain()
	if err := c1.Delete(ctx, "a"); err != nil {
		return err
	}
	if err := awaitValue("complete", 4); err != nil {
		return err
	}

	// ====================================================
	_, _ = fmt.Fprintln(out, "\n==================== 5) EXPLICIT RELOAD ====================")
	sub, err := c1.Load(ctx, "b", printer("SUB-B"))
	if err != nil {
		return err
	}
	if err := await(1); err != nil {
		return err
	}
	store.Put("b", "beta-2")
	v, ok, err := c1.Reload(ctx, "b")
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "CACHE  → reload b = %s (present: %t)\n", v, ok)
	if err := await(1); err != nil {
		return err
	}
	sub.Unsubscribe()

	// ====================================================
	_, _ = fmt.Fprintln(out, "\n==================== 6) FAILURE ====================")
	if _, err := c1.Load(ctx, "missing", printer("SUB-X")); err != nil {
		return err
	}
	if err := await(1); err != nil {
		return err
	}

	// ====================================================
	if err := printMetrics(out, reg); err != nil {
		return err
	}

	// ====================================================
	_, _ = fmt.Fprintln(out, "\n==================== SHUTDOWN ====================")
	if err := c1.Close(); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "SYSTEM → cache closed cleanly")
	return nil
}

func printMetrics(out io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, "\n==================== METRICS ====================")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			v := m.GetCounter().GetValue()
			if gauge := m.GetGauge(); gauge != nil {
				v = gauge.GetValue()
			}
			_, _ = fmt.Fprintf(out, "%-36s: %s\n", mf.GetName(), humanize.Commaf(v))
		}
	}
	return nil
}
