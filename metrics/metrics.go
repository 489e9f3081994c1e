// Package metrics provides Prometheus metrics for loading caches.
package metrics

import (
	"net/http"

	"github.com/krisalay/loading-cache/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors shared by every cache of a process.
// Each collector is labelled with the cache name.
type Metrics struct {
	// Read path
	Hits   *prometheus.CounterVec
	Misses *prometheus.CounterVec

	// Fetch path
	Fetches       *prometheus.CounterVec
	FetchFailures *prometheus.CounterVec
	Discarded     *prometheus.CounterVec
	Refreshes     *prometheus.CounterVec

	// Lifecycle
	Evictions   *prometheus.CounterVec
	Expirations *prometheus.CounterVec

	// Subscribers
	Subscribers  *prometheus.GaugeVec
	LeakWarnings *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg under namespace.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	counter := func(name, help string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, []string{"cache"})
	}

	return &Metrics{
		Hits:          counter("hits_total", "Subscriptions served from a fresh cached value"),
		Misses:        counter("misses_total", "Subscriptions that had to wait for a fetch"),
		Fetches:       counter("fetches_total", "Loader invocations"),
		FetchFailures: counter("fetch_failures_total", "Loader invocations that returned an error"),
		Discarded:     counter("discarded_total", "Fetch results dropped because a newer fetch superseded them"),
		Refreshes:     counter("refreshes_total", "Fetches started by the reload timer"),
		Evictions:     counter("evictions_total", "Idle entries purged by their eviction timer"),
		Expirations:   counter("expirations_total", "Cached values found past their expiry"),
		LeakWarnings:  counter("leak_warnings_total", "Subscriptions that pushed a key above the leak threshold"),

		Subscribers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Current number of live subscriptions",
		}, []string{"cache"}),
	}
}

// For returns the types.Metrics sink of one cache.
func (m *Metrics) For(cache string) types.Metrics {
	return &cacheMetrics{
		hits:          m.Hits.WithLabelValues(cache),
		misses:        m.Misses.WithLabelValues(cache),
		fetches:       m.Fetches.WithLabelValues(cache),
		fetchFailures: m.FetchFailures.WithLabelValues(cache),
		discarded:     m.Discarded.WithLabelValues(cache),
		refreshes:     m.Refreshes.WithLabelValues(cache),
		evictions:     m.Evictions.WithLabelValues(cache),
		expirations:   m.Expirations.WithLabelValues(cache),
		leakWarnings:  m.LeakWarnings.WithLabelValues(cache),
		subscribers:   m.Subscribers.WithLabelValues(cache),
	}
}

type cacheMetrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	fetches       prometheus.Counter
	fetchFailures prometheus.Counter
	discarded     prometheus.Counter
	refreshes     prometheus.Counter
	evictions     prometheus.Counter
	expirations   prometheus.Counter
	leakWarnings  prometheus.Counter
	subscribers   prometheus.Gauge
}

func (c *cacheMetrics) Hit()          { c.hits.Inc() }
func (c *cacheMetrics) Miss()         { c.misses.Inc() }
func (c *cacheMetrics) Eviction()     { c.evictions.Inc() }
func (c *cacheMetrics) Expire()       { c.expirations.Inc() }
func (c *cacheMetrics) Refresh()      { c.refreshes.Inc() }
func (c *cacheMetrics) Fetch()        { c.fetches.Inc() }
func (c *cacheMetrics) FetchFailed()  { c.fetchFailures.Inc() }
func (c *cacheMetrics) Discarded()    { c.discarded.Inc() }
func (c *cacheMetrics) Subscribed()   { c.subscribers.Inc() }
func (c *cacheMetrics) Unsubscribed() { c.subscribers.Dec() }
func (c *cacheMetrics) LeakWarning()  { c.leakWarnings.Inc() }

// Server runs an HTTP server exposing the /metrics endpoint of a gatherer.
type Server struct {
	server *http.Server
}

// NewServer creates a metrics server on addr.
func NewServer(addr string, g prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Handler exposes the server's mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		_ = s.server.ListenAndServe()
	}()
}

// Stop closes the server.
func (s *Server) Stop() error {
	return s.server.Close()
}
