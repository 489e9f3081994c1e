package types

import "go.trai.ch/zerr"

var (
	// ErrEmptyKey is returned when an operation is called with an empty key.
	ErrEmptyKey = zerr.New("cache key must not be empty")

	// ErrClosed is returned by operations on a closed cache.
	ErrClosed = zerr.New("cache is closed")

	// ErrNilLoader is returned when a cache is created without a loader.
	ErrNilLoader = zerr.New("loader must not be nil")

	// ErrNilObserver is returned when a load is requested without an observer.
	ErrNilObserver = zerr.New("observer must not be nil")

	// ErrReloadWithoutExpiry is returned when reload-on-expire is enabled without an expiry.
	ErrReloadWithoutExpiry = zerr.New("reload on expire requires a positive expiry")

	// ErrTrackerRequired is returned when a cache is marked tracked but no tracker is given.
	ErrTrackerRequired = zerr.New("tracked cache requires a tracker")

	// ErrInvalidOption is returned when an option holds an out-of-range value.
	ErrInvalidOption = zerr.New("invalid cache option")

	// ErrFetchFailed wraps a loader error delivered to subscribers.
	ErrFetchFailed = zerr.New("fetch failed")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config")

	// ErrConfigParseFailed is returned when the config file is not valid.
	ErrConfigParseFailed = zerr.New("failed to parse config")

	// ErrUnexpectedStatus is returned by the HTTP loader for a non-2xx response.
	ErrUnexpectedStatus = zerr.New("unexpected response status")

	// ErrPathNotFound is returned by the HTTP loader when the configured path is missing.
	ErrPathNotFound = zerr.New("response path not found")
)
