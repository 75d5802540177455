package routing

import (
	"context"
	"fmt"

	"storefront/pkg/vendors"
)

// LocalFetcher reads a directory served by this same process, without a
// network round trip. The request origin is ignored.
type LocalFetcher struct {
	dir vendors.Directory
}

func NewLocalFetcher(dir vendors.Directory) *LocalFetcher {
	return &LocalFetcher{dir: dir}
}

func (f *LocalFetcher) Fetch(ctx context.Context, _ string) ([]vendors.VendorConfig, error) {
	vs, err := f.dir.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return vs, nil
}

func (f *LocalFetcher) UsesOrigin() bool { return false }
