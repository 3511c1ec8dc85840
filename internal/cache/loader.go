package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds a shared load once it no longer follows the
// caller that started it.
const DefaultLoadTimeout = time.Minute

// Loader fronts a Cache with a load function so concurrent misses for the same
// key share one load.
type Loader[T any] struct {
	cache   Cache[T]
	group   singleflight.Group
	timeout time.Duration
}

func NewLoader[T any](c Cache[T]) *Loader[T] {
	return &Loader[T]{cache: c, timeout: DefaultLoadTimeout}
}

// Get returns the cached value for key, calling load on a miss. Failed loads
// are not cached.
//
// The shared load keeps the values of the first caller's context but not its
// cancellation, so one caller going away does not fail the others. Each
// caller stops waiting when its own ctx is done.
func (l *Loader[T]) Get(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := l.cache.Get(key); ok {
		return v, nil
	}

	ch := l.group.DoChan(key, func() (any, error) {
		if v, ok := l.cache.Get(key); ok {
			return v, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()

		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		l.cache.Set(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Forget drops the cached value for key.
func (l *Loader[T]) Forget(key string) {
	l.cache.Delete(key)
}
