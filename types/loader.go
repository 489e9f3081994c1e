package types

import "context"

/*
Loader is the contract between the cache and wherever the data really lives.

Load is called when:
  - the first subscriber for a key arrives
  - the cached value has expired or a previous fetch failed
  - a reload is requested explicitly or by the reload timer

The context is canceled when a newer fetch for the same key supersedes this
one, or when the key is deleted. Loaders should honour it, but a result that
arrives late is simply discarded.

The cache never retries a failed Load. Retry belongs to the loader (see the
httploader package for an HTTP loader with a retry policy).
*/
type Loader[T any] interface {
	Load(ctx context.Context, key string) (T, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc[T any] func(ctx context.Context, key string) (T, error)

// Load calls f(ctx, key).
func (f LoaderFunc[T]) Load(ctx context.Context, key string) (T, error) {
	return f(ctx, key)
}
