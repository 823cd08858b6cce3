package query

import (
	"context"
	"fmt"
)

// Get is the typed form of Cache.Fetch. It returns the fetched value, the
// fetch error, ErrDisabled for a disabled query with nothing cached, or the
// caller's context error.
func Get[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error), opts ...Option) (T, error) {
	var zero T
	snap, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	}, opts...)
	if err != nil {
		return zero, err
	}
	if snap.Err != nil && snap.Status == StatusError {
		return zero, snap.Err
	}
	if snap.Data == nil {
		if snap.Err != nil {
			return zero, snap.Err
		}
		return zero, ErrDisabled
	}
	v, ok := snap.Data.(T)
	if !ok {
		return zero, fmt.Errorf("query %s: cached %T, want %T", key, snap.Data, zero)
	}
	return v, nil
}
