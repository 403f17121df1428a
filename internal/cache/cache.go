// Package cache stores display metadata (variant names, dealer names) that
// rarely changes. Stock quantities and order status never go through it.
package cache

import (
	"context"
	"time"
)

type Cache interface {
	// Get decodes the cached value into dst and reports whether it was found.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
