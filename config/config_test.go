package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/krisalay/loading-cache/config"
	"github.com/krisalay/loading-cache/debounce"
	"github.com/krisalay/loading-cache/tracking"
	"github.com/krisalay/loading-cache/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_File(t *testing.T) {
	f, err := config.Load(filepath.Join("testdata", "loadcache.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"flags", "users"}, f.Names())

	tracker := tracking.New()
	opts := f.Registries["users"].Options("users", tracker)
	assert.Equal(t, "users", opts.Name)
	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.Equal(t, 5*time.Minute, opts.Expiry)
	assert.True(t, opts.ReloadOnExpire)
	assert.True(t, opts.Tracked)
	assert.Same(t, tracker, opts.Tracker)
	assert.Equal(t, 20, opts.LeakThreshold)
	assert.Equal(t, 4, opts.Shards)
	assert.Equal(t, 200*time.Millisecond, opts.Debounce.MinLoadTime)
	assert.Equal(t, debounce.Delay{Window: 50 * time.Millisecond}, opts.Debounce.Gate)
	require.NoError(t, opts.Validate())

	hc, ok := f.Registries["users"].Loader()
	require.True(t, ok)
	assert.Equal(t, "https://jsonplaceholder.typicode.com/users/{key}", hc.URL)
	assert.Equal(t, "name", hc.Path)
	assert.Equal(t, 2, hc.RetryMax)
	assert.Equal(t, 10*time.Millisecond, hc.RetryWaitMin)
	assert.Equal(t, time.Second, hc.RetryWaitMax)

	flags := f.Registries["flags"].Options("flags", tracker)
	assert.True(t, flags.BroadcastAbsentOnReload)
	assert.False(t, flags.Tracked)
	assert.Nil(t, flags.Tracker)
	assert.Nil(t, flags.Debounce.Gate)
	_, ok = f.Registries["flags"].Loader()
	assert.False(t, ok)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.True(t, errors.Is(err, types.ErrConfigReadFailed))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{name: "empty document", doc: ""},
		{name: "minimal", doc: "registries:\n  a: {}\n"},
		{name: "unknown key", doc: "registries:\n  a:\n    ttl: 1m\n", wantErr: types.ErrConfigParseFailed},
		{name: "bad duration", doc: "registries:\n  a:\n    expiry: soon\n", wantErr: types.ErrConfigParseFailed},
		{
			name:    "reload without expiry",
			doc:     "registries:\n  a:\n    reload_on_expire: true\n",
			wantErr: types.ErrConfigParseFailed,
		},
		{name: "negative shards", doc: "registries:\n  a:\n    shards: -1\n", wantErr: types.ErrConfigParseFailed},
		{name: "not yaml", doc: "registries: [", wantErr: types.ErrConfigParseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := config.Parse([]byte(tt.doc))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, f)
		})
	}
}

func TestDuration_RoundTrip(t *testing.T) {
	d := config.Duration(1500 * time.Millisecond)
	out, err := d.MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "1.5s", out)
}
