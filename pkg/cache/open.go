package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/SebastianScherer88/graphit/pkg/errors"
)

// Config selects and configures a backend.
type Config struct {
	Backend   Backend
	Dir       string // file backend; empty uses DefaultDir
	RedisAddr string // redis backend; empty uses DefaultRedisAddr
}

// Open returns the cache described by cfg. An empty backend is "none".
func Open(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return NewNullCache(), nil
	case BackendFile:
		dir := cfg.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return NewFileCache(dir)
	case BackendRedis:
		return NewRedisCache(ctx, cfg.RedisAddr)
	default:
		return nil, errors.New(errors.ErrCodeInvalidCache, "unknown cache backend %q (want one of %v)", cfg.Backend, Backends)
	}
}

// GetJSON decodes a cached JSON value into v. Undecodable entries are
// deleted and reported as a miss.
func GetJSON(ctx context.Context, c Cache, key string, v any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		_ = c.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

// SetJSON encodes v as JSON and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode cache entry")
	}
	return c.Set(ctx, key, data, ttl)
}
