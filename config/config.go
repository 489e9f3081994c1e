package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	cache "github.com/krisalay/loading-cache"
	"github.com/krisalay/loading-cache/debounce"
	"github.com/krisalay/loading-cache/httploader"
	"github.com/krisalay/loading-cache/tracking"
	"github.com/krisalay/loading-cache/types"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// File is the structure of a loadcache.yaml file.
type File struct {
	Registries map[string]Registry `yaml:"registries"`
}

// Registry is the configuration of one named cache.
type Registry struct {
	Timeout                 Duration `yaml:"timeout"`
	Expiry                  Duration `yaml:"expiry"`
	ReloadOnExpire          bool     `yaml:"reload_on_expire"`
	BroadcastAbsentOnReload bool     `yaml:"broadcast_absent_on_reload"`
	Tracked                 bool     `yaml:"tracked"`
	LeakThreshold           int      `yaml:"leak_threshold"`
	Shards                  int      `yaml:"shards"`
	Debounce                Debounce `yaml:"debounce"`
	HTTP                    *HTTP    `yaml:"http"`
}

type Debounce struct {
	Window      Duration `yaml:"window"`
	MinLoadTime Duration `yaml:"min_load_time"`
}

// HTTP configures the loader used by the fetch command.
type HTTP struct {
	URL          string            `yaml:"url"`
	Path         string            `yaml:"path"`
	Header       map[string]string `yaml:"header"`
	RetryMax     int               `yaml:"retry_max"`
	RetryWaitMin Duration          `yaml:"retry_wait_min"`
	RetryWaitMax Duration          `yaml:"retry_wait_max"`
}

// Duration is a time.Duration written as a Go duration string ("150ms", "1m").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "invalid duration"), "line", node.Line)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(fmt.Errorf("%w: %w", types.ErrConfigReadFailed, err), "path", path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return f, nil
}

/*
Parse decodes a config document.

BEHAVIOR:
- Unknown keys are rejected.
- An empty document yields a File with no registries.
- Every registry is validated as cache.Options so mistakes surface before a cache is built.
*/
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, zerr.Wrap(types.ErrConfigParseFailed, err.Error())
	}

	probe := tracking.New()
	for _, name := range f.Names() {
		opts := f.Registries[name].Options(name, probe)
		if err := opts.Validate(); err != nil {
			return nil, zerr.With(zerr.Wrap(types.ErrConfigParseFailed, err.Error()), "registry", name)
		}
	}
	return &f, nil
}

// Names returns the registry names in sorted order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Registries))
	for name := range f.Registries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

/*
Options converts the registry settings to cache.Options named name.
tracker is only used when the registry is tracked. Logger, Metrics and Clock
are left for the caller to fill in.
*/
func (r Registry) Options(name string, tracker *tracking.Tracker) cache.Options {
	opts := cache.Options{
		Name:                    name,
		Timeout:                 time.Duration(r.Timeout),
		Expiry:                  time.Duration(r.Expiry),
		ReloadOnExpire:          r.ReloadOnExpire,
		BroadcastAbsentOnReload: r.BroadcastAbsentOnReload,
		Tracked:                 r.Tracked,
		LeakThreshold:           r.LeakThreshold,
		Shards:                  r.Shards,
		Debounce: debounce.Config{
			MinLoadTime: time.Duration(r.Debounce.MinLoadTime),
		},
	}
	if r.Debounce.Window > 0 {
		opts.Debounce.Gate = debounce.Delay{Window: time.Duration(r.Debounce.Window)}
	}
	if r.Tracked {
		opts.Tracker = tracker
	}
	return opts
}

// Loader returns the HTTP loader settings, or false if none are configured.
func (r Registry) Loader() (httploader.Config, bool) {
	if r.HTTP == nil {
		return httploader.Config{}, false
	}
	return httploader.Config{
		URL:          r.HTTP.URL,
		Path:         r.HTTP.Path,
		Header:       r.HTTP.Header,
		RetryMax:     r.HTTP.RetryMax,
		RetryWaitMin: time.Duration(r.HTTP.RetryWaitMin),
		RetryWaitMax: time.Duration(r.HTTP.RetryWaitMax),
	}, true
}
