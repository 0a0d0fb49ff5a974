package repository

import (
	"context"
	"time"
)

// KeyValueStore is the durable backing of client-scoped state.
// Set overwrites (last write wins); ttl <= 0 means no expiry.
// Get reports a missing key as ok=false with a nil error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
