package httploader

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/krisalay/loading-cache/types"
	"github.com/tidwall/gjson"
	"go.trai.ch/zerr"
)

// KeyPlaceholder is replaced by the escaped cache key in Config.URL.
const KeyPlaceholder = "{key}"

const (
	DefaultRetryMax     = 3
	DefaultRetryWaitMin = 100 * time.Millisecond
	DefaultRetryWaitMax = 2 * time.Second
)

/*
Config describes where and how a key is fetched.

BEHAVIOR:
- URL must contain KeyPlaceholder unless every key maps to the same document.
- Path, when set, is a gjson path selecting the part of the response decoded into the value.
- Retry settings left at zero take the package defaults. A negative RetryMax disables retries.
*/
type Config struct {
	URL          string
	Path         string
	Header       map[string]string
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

/*
Loader fetches JSON documents over HTTP and decodes them into T.
It satisfies types.Loader[T].
*/
type Loader[T any] struct {
	cfg    Config
	client *retryablehttp.Client
}

var _ types.Loader[string] = (*Loader[string])(nil)

// New builds a Loader. logger may be nil.
func New[T any](cfg Config, logger log.Interface) (*Loader[T], error) {
	if cfg.URL == "" {
		return nil, zerr.With(zerr.Wrap(types.ErrInvalidOption, "http loader needs a url"), "url", cfg.URL)
	}
	if _, err := url.Parse(strings.ReplaceAll(cfg.URL, KeyPlaceholder, "k")); err != nil {
		return nil, zerr.With(zerr.Wrap(types.ErrInvalidOption, err.Error()), "url", cfg.URL)
	}

	client := retryablehttp.NewClient()
	switch {
	case cfg.RetryMax < 0:
		client.RetryMax = 0
	case cfg.RetryMax == 0:
		client.RetryMax = DefaultRetryMax
	default:
		client.RetryMax = cfg.RetryMax
	}
	client.RetryWaitMin = orDefault(cfg.RetryWaitMin, DefaultRetryWaitMin)
	client.RetryWaitMax = orDefault(cfg.RetryWaitMax, DefaultRetryWaitMax)
	client.ErrorHandler = keepLastResponse
	if logger == nil {
		client.Logger = nil
	} else {
		client.Logger = leveled{logger}
	}

	return &Loader[T]{cfg: cfg, client: client}, nil
}

// URLFor returns the request URL for key.
func (l *Loader[T]) URLFor(key string) string {
	return strings.ReplaceAll(l.cfg.URL, KeyPlaceholder, url.PathEscape(key))
}

/*
Load performs a GET for key and decodes the body.

BEHAVIOR:
- Transport errors and 5xx responses are retried by the client before giving up.
- Any non-2xx final response returns ErrUnexpectedStatus with the status attached.
- With Path set, a missing path returns ErrPathNotFound.
*/
func (l *Loader[T]) Load(ctx context.Context, key string) (T, error) {
	var zero T

	target := l.URLFor(key)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return zero, zerr.With(zerr.Wrap(err, "failed to create request"), "url", target)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range l.cfg.Header {
		req.Header.Set(k, v)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return zero, zerr.With(zerr.Wrap(err, "failed to execute request"), "url", target)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := zerr.With(zerr.Wrap(types.ErrUnexpectedStatus, resp.Status), "status", resp.StatusCode)
		return zero, zerr.With(err, "url", target)
	}

	var doc bytes.Buffer
	if _, err := doc.ReadFrom(resp.Body); err != nil {
		return zero, zerr.With(zerr.Wrap(err, "failed to read response"), "url", target)
	}

	raw := doc.Bytes()
	if l.cfg.Path != "" {
		res := gjson.GetBytes(raw, l.cfg.Path)
		if !res.Exists() {
			return zero, zerr.With(zerr.Wrap(types.ErrPathNotFound, "decode"), "path", l.cfg.Path)
		}
		raw = []byte(res.Raw)
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, zerr.With(zerr.Wrap(err, "failed to decode response"), "url", target)
	}
	return v, nil
}

// keepLastResponse hands the final response back once retries are exhausted,
// so its status can be reported.
func keepLastResponse(resp *http.Response, err error, _ int) (*http.Response, error) {
	if resp != nil {
		return resp, nil
	}
	return nil, err
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// leveled adapts an apex logger to retryablehttp.LeveledLogger.
type leveled struct {
	log log.Interface
}

func (l leveled) Error(msg string, kv ...interface{}) { l.log.WithFields(fields(kv)).Error(msg) }
func (l leveled) Info(msg string, kv ...interface{})  { l.log.WithFields(fields(kv)).Debug(msg) }
func (l leveled) Debug(msg string, kv ...interface{}) { l.log.WithFields(fields(kv)).Debug(msg) }
func (l leveled) Warn(msg string, kv ...interface{})  { l.log.WithFields(fields(kv)).Warn(msg) }

func fields(kv []interface{}) log.Fields {
	f := make(log.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[k] = kv[i+1]
	}
	return f
}
