package vendors

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const listCacheKey = "storefront:vendors:active"

// RedisCachedDirectory caches ListActive of an inner directory in Redis so
// a fleet of directory replicas shares one store read per TTL. Redis errors
// fall through to the inner directory.
type RedisCachedDirectory struct {
	inner Directory
	rdb   *redis.Client
	ttl   time.Duration
	log   *zap.SugaredLogger
}

func NewRedisCachedDirectory(inner Directory, rdb *redis.Client, ttl time.Duration, log *zap.SugaredLogger) *RedisCachedDirectory {
	return &RedisCachedDirectory{inner: inner, rdb: rdb, ttl: ttl, log: log}
}

func (c *RedisCachedDirectory) ListActive(ctx context.Context) ([]VendorConfig, error) {
	raw, err := c.rdb.Get(ctx, listCacheKey).Bytes()
	switch {
	case err == nil:
		vs, derr := DecodeDirectory(raw)
		if derr == nil {
			return vs, nil
		}
		c.log.Warnw("vendor cache decode", "err", derr)
	case !errors.Is(err, redis.Nil):
		c.log.Warnw("vendor cache get", "err", err)
	}

	vs, err := c.inner.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := EncodeDirectory(&buf, vs); err == nil {
		if err := c.rdb.Set(ctx, listCacheKey, buf.Bytes(), c.ttl).Err(); err != nil {
			c.log.Warnw("vendor cache set", "err", err)
		}
	}
	return vs, nil
}

// GetByPath is not cached; it delegates when the inner directory supports it.
func (c *RedisCachedDirectory) GetByPath(ctx context.Context, path string) (VendorConfig, error) {
	if f, ok := c.inner.(Finder); ok {
		return f.GetByPath(ctx, path)
	}
	return VendorConfig{}, ErrNotFound
}
