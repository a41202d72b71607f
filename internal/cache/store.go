package cache

import (
	"context"
	"time"
)

// Store is the key/value contract the editorial cache runs on.
// Implemented by the in-process map (dev), Redis (prod) and SQLite
// (single-host persistent) backends.
//
// Get returns (value, true, nil) on a hit and (nil, false, nil) on a
// clean miss; an error means the backend itself failed and the caller
// decides whether to degrade. FlushAll empties the namespace this store
// owns and nothing else.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushAll(ctx context.Context) error
}
