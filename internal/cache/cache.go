// Package cache provides the read-through cache used by the services.
// Every backend is fail-open: a lookup that cannot be served is a miss.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Result is the outcome of a lookup. Anything other than a hit must be
// treated as a miss; Err is set when the backend itself failed.
type Result struct {
	Value []byte
	Hit   bool
	Err   error
}

// Hit wraps a cached value.
func Hit(v []byte) Result { return Result{Value: v, Hit: true} }

// Miss reports an absent key.
func Miss() Result { return Result{} }

// Failed reports a backend failure, which callers handle as a miss.
func Failed(err error) Result { return Result{Err: err} }

// Label names the result for logs and metrics.
func (r Result) Label() string {
	switch {
	case r.Hit:
		return "hit"
	case r.Err != nil:
		return "error"
	default:
		return "miss"
	}
}

// Cache is a key/value store with per-entry expiry.
type Cache interface {
	Get(ctx context.Context, key string) Result
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// GetJSON looks key up and decodes a hit into dst. An undecodable value is a failed lookup.
func GetJSON(ctx context.Context, c Cache, key string, dst any) Result {
	res := c.Get(ctx, key)
	if !res.Hit {
		return res
	}
	if err := json.Unmarshal(res.Value, dst); err != nil {
		return Failed(fmt.Errorf("decode %s: %w", key, err))
	}
	return res
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key, b, ttl)
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) Result { return Miss() }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) Delete(context.Context, ...string) error { return nil }
