package routing

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"storefront/pkg/vendors"
)

type fakeFetcher struct {
	mu      sync.Mutex
	vendors []vendors.VendorConfig
	err     error
	origins []string
	calls   atomic.Int32

	started chan struct{} // signalled when a fetch begins, if set
	gate    chan struct{} // fetch blocks until closed, if set
	panics  bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, origin string) ([]vendors.VendorConfig, error) {
	f.calls.Add(1)
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.panics {
		panic("directory exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.origins = append(f.origins, origin)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.vendors, nil
}

func (f *fakeFetcher) set(vs []vendors.VendorConfig, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vendors, f.err = vs, err
}

func vendor(path, domain string) vendors.VendorConfig {
	return vendors.VendorConfig{Path: path, Domains: vendors.DomainVariants(domain), IsActive: true}
}

func query(t *testing.T, raw string) url.Values {
	t.Helper()
	q, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return q
}
