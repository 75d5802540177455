package directory

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/pkg/config"
	"storefront/pkg/vendors"
)

// NewStore picks the vendor store: Postgres when a pool is present, the
// in-memory directory otherwise, fronted by Redis when a client is present.
func NewStore(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, rdb *redis.Client, log *zap.SugaredLogger) (vendors.Directory, error) {
	var dir vendors.Directory
	if pool != nil {
		if err := vendors.EnsureSchema(ctx, pool); err != nil {
			return nil, err
		}
		if err := vendors.SeedFromEnv(ctx, pool, os.Getenv("VENDOR_SEED_JSON")); err != nil {
			log.Warnw("vendor seed", "err", err)
		}
		dir = vendors.NewPostgresDirectory(pool, log)
	} else {
		dir = vendors.NewMemoryDirectoryFromEnv(log)
	}
	if rdb != nil {
		dir = vendors.NewRedisCachedDirectory(dir, rdb, cfg.DirectoryRedisTTL, log)
	}
	return dir, nil
}
