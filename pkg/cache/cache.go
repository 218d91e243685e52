// Package cache stores per-file extraction results between runs.
//
// Entries are keyed by content: [ExtractionKey] hashes the extraction
// strategy together with the file bytes, so an edited file can never hit a
// stale entry and a renamed file still hits. Three backends implement
// [Cache]:
//
//   - [NullCache] never stores anything (the default)
//   - [FileCache] keeps one JSON file per entry under a local directory
//   - [RedisCache] shares entries through a Redis server
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
//
// Get reports a miss with ok=false and a nil error. Implementations must be
// safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names a cache implementation.
type Backend string

const (
	BackendNone  Backend = "none"
	BackendFile  Backend = "file"
	BackendRedis Backend = "redis"
)

// Backends lists the accepted backend names.
var Backends = []string{string(BackendNone), string(BackendFile), string(BackendRedis)}

// DefaultTTL is how long extraction entries live.
const DefaultTTL = 30 * 24 * time.Hour

// NullCache is the "none" backend: every Get misses and writes are dropped,
// so each run extracts every module from scratch.
type NullCache struct{}

func NewNullCache() *NullCache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error                     { return nil }
func (*NullCache) Close() error                                             { return nil }

var _ Cache = (*NullCache)(nil)
