package vendors

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgDirectory implements Directory backed by PostgreSQL.
type pgDirectory struct {
	dbPool *pgxpool.Pool      // Connection pool to PostgreSQL
	log    *zap.SugaredLogger // Logger for diagnostic output
}

// NewPostgresDirectory constructs a PostgreSQL-backed vendor directory.
func NewPostgresDirectory(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Directory {
	return &pgDirectory{dbPool: dbPool, log: log}
}

// EnsureSchema creates the vendors table if it does not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vendors (
  path text PRIMARY KEY,
  store_name text,
  custom_domain text UNIQUE,
  is_active boolean NOT NULL DEFAULT true,
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
ALTER TABLE vendors ADD COLUMN IF NOT EXISTS store_name text;
ALTER TABLE vendors ADD COLUMN IF NOT EXISTS custom_domain text;
ALTER TABLE vendors ADD COLUMN IF NOT EXISTS is_active boolean NOT NULL DEFAULT true;
CREATE INDEX IF NOT EXISTS vendors_active_idx ON vendors(is_active, created_at);
`)
	return err
}

// SeedFromEnv ingests initial vendors. Format is the same as the memory
// directory (VENDOR_SEED_JSON).
func SeedFromEnv(ctx context.Context, dbPool *pgxpool.Pool, jsonSeed string) error {
	entries, err := parseSeed(jsonSeed)
	if err != nil {
		return err
	}
	for _, e := range entries {
		var domain *string
		if d := NormalizeDomain(e.Domain); d != "" {
			domain = &d
		}
		if _, err := dbPool.Exec(ctx, `INSERT INTO vendors(path,store_name,custom_domain,is_active)
		  VALUES ($1,$2,$3,$4)
		  ON CONFLICT (path) DO UPDATE SET store_name=EXCLUDED.store_name,custom_domain=EXCLUDED.custom_domain,is_active=EXCLUDED.is_active,updated_at=NOW()`,
			e.Path, e.StoreName, domain, e.active()); err != nil {
			return fmt.Errorf("seed vendor %s: %w", e.Path, err)
		}
	}
	return nil
}

// ListActive returns active vendors ordered by registration time.
func (p *pgDirectory) ListActive(ctx context.Context) ([]VendorConfig, error) {
	rows, err := p.dbPool.Query(ctx, `SELECT path,COALESCE(store_name,''),COALESCE(custom_domain,''),is_active FROM vendors WHERE is_active ORDER BY created_at, path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []VendorConfig
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetByPath fetches a single vendor regardless of its active flag.
func (p *pgDirectory) GetByPath(ctx context.Context, path string) (VendorConfig, error) {
	row := p.dbPool.QueryRow(ctx, `SELECT path,COALESCE(store_name,''),COALESCE(custom_domain,''),is_active FROM vendors WHERE path=$1`, path)
	v, err := scanVendor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return VendorConfig{}, ErrNotFound
	}
	return v, err
}

func scanVendor(row pgx.Row) (VendorConfig, error) {
	var v VendorConfig
	var domain string
	if err := row.Scan(&v.Path, &v.StoreName, &domain, &v.IsActive); err != nil {
		return VendorConfig{}, err
	}
	v.Domains = DomainVariants(domain)
	return v, nil
}
