package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	"github.com/dustin/go-humanize"
	cache "github.com/krisalay/loading-cache"
	"github.com/krisalay/loading-cache/types"
	"golang.org/x/sync/errgroup"
)

// ================= BACKING STORE =================

// slowStore answers every key after latency and counts calls.
type slowStore struct {
	latency time.Duration
	calls   atomic.Int64
}

func (s *slowStore) Load(ctx context.Context, key string) (int, error) {
	s.calls.Add(1)
	select {
	case <-time.After(s.latency):
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	return len(key), nil
}

// ================= BENCHMARK =================

func main() {
	var (
		shards      = flag.Int("shards", 8, "number of shards")
		keys        = flag.Int("keys", 1000, "distinct keys")
		goroutines  = flag.Int("goroutines", 200, "concurrent subscribers")
		opsPerG     = flag.Int("ops", 5000, "subscriptions per goroutine")
		latency     = flag.Duration("latency", time.Millisecond, "simulated loader latency")
		expiry      = flag.Duration("expiry", 0, "value expiry (0 never expires)")
		perKeyLimit = flag.Int("leak-threshold", 1000, "per-key subscriber warning threshold")
	)
	flag.Parse()

	if err := run(*shards, *keys, *goroutines, *opsPerG, *latency, *expiry, *perKeyLimit); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}

func run(shards, keys, goroutines, opsPerG int, latency, expiry time.Duration, leak int) error {
	ctx := context.Background()

	fmt.Println("\n================ LOADING CACHE BENCHMARK =================")
	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Shards       :", shards)
	fmt.Println("Keys         :", humanize.Comma(int64(keys)))
	fmt.Println("Goroutines   :", goroutines)
	fmt.Println("Ops/Goroutine:", humanize.Comma(int64(opsPerG)))
	fmt.Println("Latency      :", latency)
	fmt.Println("---------------------------------")

	store := &slowStore{latency: latency}
	c, err := cache.New[int](store, cache.Options{
		Name:          "benchmark",
		Expiry:        expiry,
		Shards:        shards,
		LeakThreshold: leak,
		Logger:        &log.Logger{Handler: discard.Default, Level: log.ErrorLevel},
	})
	if err != nil {
		return err
	}
	defer c.Close()

	// ---------------- Cold fan-out ----------------
	fmt.Println("Cold fan-out: every goroutine subscribes to every key once...")
	start := time.Now()
	var delivered atomic.Int64
	if err := fanOut(ctx, c, goroutines, keys, keys, &delivered); err != nil {
		return err
	}
	cold := time.Since(start)
	coldFetches := store.calls.Load()

	// ---------------- Warm load ----------------
	fmt.Println("Warm load: subscribing against cached values...")
	delivered.Store(0)
	start = time.Now()
	if err := fanOut(ctx, c, goroutines, opsPerG, keys, &delivered); err != nil {
		return err
	}
	warm := time.Since(start)
	warmOps := int64(goroutines) * int64(opsPerG)

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Cold subscriptions : %s\n", humanize.Comma(int64(goroutines)*int64(keys)))
	fmt.Printf("Cold fetches       : %s\n", humanize.Comma(coldFetches))
	fmt.Printf("Cold time          : %v\n", cold)
	fmt.Printf("Warm operations    : %s\n", humanize.Comma(warmOps))
	fmt.Printf("Warm fetches       : %s\n", humanize.Comma(store.calls.Load()-coldFetches))
	fmt.Printf("Warm time          : %v\n", warm)
	fmt.Printf("Values delivered   : %s\n", humanize.Comma(delivered.Load()))
	fmt.Printf("Throughput         : %s ops/sec\n", humanize.CommafWithDigits(float64(warmOps)/warm.Seconds(), 2))
	fmt.Printf("Cached keys        : %s\n", humanize.Comma(int64(c.Len())))
	fmt.Println("=========================================")

	return nil
}

// fanOut runs goroutines workers, each subscribing ops times and waiting for the first value.
func fanOut(ctx context.Context, c *cache.Registry[int], goroutines, ops, keys int, delivered *atomic.Int64) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < goroutines; i++ {
		g.Go(func() error {
			got := make(chan struct{}, 1)
			signal := func() {
				select {
				case got <- struct{}{}:
				default:
				}
			}
			obs := types.ObserverFuncs[int]{
				OnNext: func(int, bool) {
					delivered.Add(1)
					signal()
				},
				OnError: func(error) { signal() },
			}
			for j := 0; j < ops; j++ {
				key := "key-" + strconv.Itoa((i+j)%keys)
				sub, err := c.Load(ctx, key, obs)
				if err != nil {
					return err
				}
				select {
				case <-got:
				case <-ctx.Done():
					return ctx.Err()
				}
				sub.Unsubscribe()
			}
			return nil
		})
	}
	return g.Wait()
}
