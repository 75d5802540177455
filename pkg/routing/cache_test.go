package routing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/vendors"
)

const origin = "https://acme.com"

func newTestCache(f Fetcher, mock *clock.Mock, policy FailurePolicy, dedup bool) *Cache {
	return NewCache(f, CacheOptions{
		TTL:      5 * time.Minute,
		Policy:   policy,
		MaxStale: 30 * time.Minute,
		Dedup:    dedup,
		Clock:    mock,
	})
}

func TestCacheServesSnapshotWithinTTL(t *testing.T) {
	mock := clock.NewMock()
	f := &fakeFetcher{vendors: []vendors.VendorConfig{vendor("acme", "acme.com")}}
	c := newTestCache(f, mock, FailErase, true)

	assert.Equal(t, 0, c.Snapshot().Len())

	first := c.Get(context.Background(), origin)
	require.Equal(t, int32(1), f.calls.Load())
	got, ok := Resolve("acme.com", first)
	require.True(t, ok)
	assert.Equal(t, "acme", got)
	assert.Equal(t, mock.Now(), first.FetchedAt)

	// The directory changes, but the cache keeps answering from the same snapshot.
	f.set([]vendors.VendorConfig{vendor("globex", "acme.com")}, nil)
	mock.Add(4*time.Minute + 59*time.Second)
	second := c.Get(context.Background(), origin)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), f.calls.Load())
	got, _ = Resolve("acme.com", second)
	assert.Equal(t, "acme", got)
}

func TestCacheRefetchesOnceAfterTTL(t *testing.T) {
	mock := clock.NewMock()
	f := &fakeFetcher{vendors: []vendors.VendorConfig{vendor("acme", "acme.com")}}
	c := newTestCache(f, mock, FailErase, false)

	c.Get(context.Background(), origin)
	f.set([]vendors.VendorConfig{vendor("globex", "acme.com")}, nil)
	mock.Add(5 * time.Minute)

	snap := c.Get(context.Background(), origin)
	assert.Equal(t, int32(2), f.calls.Load())
	got, _ := Resolve("acme.com", snap)
	assert.Equal(t, "globex", got)

	c.Get(context.Background(), origin)
	assert.Equal(t, int32(2), f.calls.Load())
	assert.Equal(t, []string{origin, origin}, f.origins)
}

func TestCacheFailureErases(t *testing.T) {
	mock := clock.NewMock()
	f := &fakeFetcher{vendors: []vendors.VendorConfig{vendor("acme", "acme.com")}}
	c := newTestCache(f, mock, FailErase, true)

	require.Equal(t, 1, c.Get(context.Background(), origin).Len())

	f.set(nil, errors.New("connection refused"))
	mock.Add(5 * time.Minute)
	snap := c.Get(context.Background(), origin)
	assert.Equal(t, 0, snap.Len())
	assert.Equal(t, mock.Now(), snap.FetchedAt)

	// Empty until the next successful fetch; no refetch inside the TTL.
	f.set([]vendors.VendorConfig{vendor("acme", "acme.com")}, nil)
	mock.Add(time.Minute)
	assert.Equal(t, 0, c.Get(context.Background(), origin).Len())
	assert.Equal(t, int32(2), f.calls.Load())

	mock.Add(4 * time.Minute)
	assert.Equal(t, 1, c.Get(context.Background(), origin).Len())
	assert.Equal(t, int32(3), f.calls.Load())
}

func TestCacheFailureRetainsUntilMaxStale(t *testing.T) {
	mock := clock.NewMock()
	f := &fakeFetcher{vendors: []vendors.VendorConfig{vendor("acme", "acme.com")}}
	c := newTestCache(f, mock, FailRetain, true)

	good := c.Get(context.Background(), origin)
	f.set(nil, errors.New("503"))

	for i := 0; i < 5; i++ {
		mock.Add(5 * time.Minute)
		assert.Same(t, good, c.Get(context.Background(), origin), "attempt %d", i)
	}
	assert.Equal(t, int32(6), f.calls.Load())

	// 30 minutes after the last success the stale snapshot is dropped.
	mock.Add(5 * time.Minute)
	assert.Equal(t, 0, c.Get(context.Background(), origin).Len())
}

func TestCacheRetainWithNothingToRetain(t *testing.T) {
	mock := clock.NewMock()
	f := &fakeFetcher{err: errors.New("down")}
	c := newTestCache(f, mock, FailRetain, false)
	assert.Equal(t, 0, c.Get(context.Background(), origin).Len())
}

func TestCacheDedupsConcurrentRefresh(t *testing.T) {
	mock := clock.NewMock()
	f := &fakeFetcher{
		vendors: []vendors.VendorConfig{vendor("acme", "acme.com")},
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	c := newTestCache(f, mock, FailErase, true)

	const n = 20
	var wg sync.WaitGroup
	results := make([]*vendors.Snapshot, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Get(context.Background(), origin)
		}(i)
	}
	<-f.started
	close(f.gate)
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	for i := range results {
		assert.Equal(t, 1, results[i].Len())
	}
}

func TestCacheWithoutDedupToleratesRedundantFetches(t *testing.T) {
	mock := clock.NewMock()
	f := &fakeFetcher{vendors: []vendors.VendorConfig{vendor("acme", "acme.com")}}
	c := newTestCache(f, mock, FailErase, false)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap := c.Get(context.Background(), origin)
			assert.Equal(t, 1, snap.Len())
		}()
	}
	wg.Wait()

	calls := f.calls.Load()
	assert.GreaterOrEqual(t, calls, int32(1))
	assert.LessOrEqual(t, calls, int32(n))
	assert.Equal(t, 1, c.Snapshot().Len())
}

func TestCacheDedupIgnoresCallerCancellation(t *testing.T) {
	mock := clock.NewMock()
	f := &fakeFetcher{vendors: []vendors.VendorConfig{vendor("acme", "acme.com")}}
	c := newTestCache(f, mock, FailErase, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, 1, c.Get(ctx, origin).Len())
}

func TestCacheMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	mock := clock.NewMock()
	f := &fakeFetcher{vendors: []vendors.VendorConfig{vendor("acme", "acme.com"), vendor("globex", "globex.io")}}
	c := NewCache(f, CacheOptions{Clock: mock, Metrics: m})

	c.Get(context.Background(), origin)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.vendors))

	f.set(nil, errors.New("down"))
	mock.Add(DefaultTTL)
	c.Get(context.Background(), origin)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.vendors))
}

func TestParseFailurePolicy(t *testing.T) {
	assert.Equal(t, FailRetain, ParseFailurePolicy("retain"))
	assert.Equal(t, FailErase, ParseFailurePolicy("erase"))
	assert.Equal(t, FailErase, ParseFailurePolicy(""))
	assert.Equal(t, "retain", FailRetain.String())
	assert.Equal(t, "erase", FailErase.String())
}

func TestCacheLastGoodSurvivesErase(t *testing.T) {
	mock := clock.NewMock()
	f := &fakeFetcher{vendors: []vendors.VendorConfig{vendor("acme", "acme.com")}}
	c := newTestCache(f, mock, FailErase, true)
	assert.Nil(t, c.LastGood())

	good := c.Get(context.Background(), origin)
	f.set(nil, errors.New("down"))
	mock.Add(5 * time.Minute)
	assert.Equal(t, 0, c.Get(context.Background(), origin).Len())
	assert.Same(t, good, c.LastGood())
}
