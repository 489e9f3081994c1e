package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	cache "github.com/krisalay/loading-cache"
	"github.com/krisalay/loading-cache/config"
	"github.com/krisalay/loading-cache/httploader"
	"github.com/krisalay/loading-cache/metrics"
	"github.com/krisalay/loading-cache/tracking"
	"github.com/krisalay/loading-cache/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
)

type fetchOptions struct {
	configPath  string
	registry    string
	url         string
	path        string
	retryMax    int
	expiry      time.Duration
	watch       time.Duration
	reloadEvery time.Duration
	metricsAddr string
}

func (c *CLI) newFetchCmd() *cobra.Command {
	o := fetchOptions{}
	cmd := &cobra.Command{
		Use:   "fetch [keys...]",
		Short: "Load keys through an HTTP-backed cache and print every value received",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFetch(cmd.Context(), cmd.OutOrStdout(), o, args)
		},
	}

	cmd.Flags().StringVarP(&o.configPath, "config", "c", "", "Path to a loadcache.yaml file")
	cmd.Flags().StringVarP(&o.registry, "registry", "r", "", "Registry to use from the config file")
	cmd.Flags().StringVar(&o.url, "url", "", "URL template, {key} is replaced by the key")
	cmd.Flags().StringVar(&o.path, "path", "", "gjson path selecting the value in the response")
	cmd.Flags().IntVar(&o.retryMax, "retry-max", 0, "Retries per request (0 for the default)")
	cmd.Flags().DurationVar(&o.expiry, "expiry", 0, "Reload values this often while watching")
	cmd.Flags().DurationVarP(&o.watch, "watch", "w", 0, "Keep the subscriptions open this long")
	cmd.Flags().DurationVar(&o.reloadEvery, "reload-every", 0, "Reload every tracked cache this often while watching")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	return cmd
}

/*
resolve builds the cache options and loader settings from the flags.

BEHAVIOR:
- With --config, the named registry (or the only one) is used, and --url/--path override its http section.
- Without --config, --url is required.
- --expiry turns on reload-on-expire.
- --reload-every puts the cache in the tracker, whatever the config says.
*/
func (o fetchOptions) resolve(tracker *tracking.Tracker) (cache.Options, httploader.Config, error) {
	var (
		opts cache.Options
		hc   httploader.Config
	)

	if o.configPath != "" {
		f, err := config.Load(o.configPath)
		if err != nil {
			return opts, hc, err
		}
		name := o.registry
		if name == "" {
			names := f.Names()
			if len(names) != 1 {
				return opts, hc, zerr.With(zerr.Wrap(types.ErrInvalidOption, "pick a registry with --registry"), "registries", names)
			}
			name = names[0]
		}
		reg, ok := f.Registries[name]
		if !ok {
			return opts, hc, zerr.With(zerr.Wrap(types.ErrInvalidOption, "unknown registry"), "registry", name)
		}
		opts = reg.Options(name, tracker)
		hc, _ = reg.Loader()
	} else {
		opts.Name = "fetch"
	}

	if o.url != "" {
		hc.URL = o.url
	}
	if o.path != "" {
		hc.Path = o.path
	}
	if o.retryMax != 0 {
		hc.RetryMax = o.retryMax
	}
	if hc.URL == "" {
		return opts, hc, zerr.Wrap(types.ErrInvalidOption, "no url: pass --url or an http section in the config")
	}
	if o.expiry > 0 {
		opts.Expiry = o.expiry
		opts.ReloadOnExpire = true
	}
	if o.reloadEvery > 0 {
		opts.Tracked = true
		opts.Tracker = tracker
	}
	return opts, hc, nil
}

func (c *CLI) runFetch(ctx context.Context, w io.Writer, o fetchOptions, args []string) error {
	keys := unique(args)
	w = &syncWriter{w: w}
	tracker := tracking.New()
	opts, hc, err := o.resolve(tracker)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg, "loadcache")
	if o.metricsAddr != "" {
		srv := metrics.NewServer(o.metricsAddr, reg)
		srv.StartAsync()
		defer srv.Stop()
		c.log.WithField("addr", o.metricsAddr).Info("serving metrics")
	}

	loader, err := httploader.New[any](hc, c.log)
	if err != nil {
		return err
	}

	opts.Logger = c.log
	opts.Metrics = m.For(opts.Name)
	r, err := cache.New[any](loader, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	var (
		mu       sync.Mutex
		first    = make(map[string]bool, len(keys))
		failures []error
		settled  = make(chan struct{}, len(keys))
	)
	markFirst := func(key string) {
		mu.Lock()
		defer mu.Unlock()
		if !first[key] {
			first[key] = true
			settled <- struct{}{}
		}
	}

	for _, key := range keys {
		obs := types.ObserverFuncs[any]{
			OnNext: func(v any, ok bool) {
				if !ok {
					_, _ = fmt.Fprintf(w, "%s\t<reloading>\n", key)
					return
				}
				raw, err := json.Marshal(v)
				if err != nil {
					raw = []byte(fmt.Sprint(v))
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\n", key, raw)
				markFirst(key)
			},
			OnError: func(err error) {
				_, _ = fmt.Fprintf(w, "%s\terror: %v\n", key, err)
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
				markFirst(key)
			},
		}
		if _, err := r.Load(ctx, key, obs); err != nil {
			return err
		}
	}

	for range keys {
		select {
		case <-settled:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if o.watch > 0 {
		c.log.WithField("for", o.watch).Debug("watching")
		if err := c.watch(ctx, tracker, o); err != nil {
			return err
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(failures) > 0 {
		err := zerr.With(zerr.Wrap(failures[0], "fetch"), "failed", len(failures))
		return zerr.With(err, "keys", len(keys))
	}
	return nil
}

// watch waits out the --watch window, bulk-reloading the tracker every --reload-every.
func (c *CLI) watch(ctx context.Context, tracker *tracking.Tracker, o fetchOptions) error {
	done := time.After(o.watch)
	var tick <-chan time.Time
	if o.reloadEvery > 0 {
		t := time.NewTicker(o.reloadEvery)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-tick:
			if err := tracker.ReloadAll(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return zerr.Wrap(err, "reload tracked caches")
			}
			c.log.WithField("caches", tracker.Len()).Debug("reloaded")
		case <-done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func unique(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
