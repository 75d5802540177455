package routing

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"storefront/pkg/config"
	"storefront/pkg/vendors"
)

// DefaultTTL is how long a snapshot is served without refetching.
const DefaultTTL = 5 * time.Minute

// FailurePolicy decides what a failed fetch does to the cached snapshot.
type FailurePolicy int

const (
	// FailErase replaces the snapshot with an empty one, turning routing
	// off until the next successful fetch.
	FailErase FailurePolicy = iota
	// FailRetain keeps the last successful snapshot while it is younger
	// than MaxStale, then erases.
	FailRetain
)

// ParseFailurePolicy maps the config values to a policy.
func ParseFailurePolicy(s string) FailurePolicy {
	if s == config.FailureRetain {
		return FailRetain
	}
	return FailErase
}

func (p FailurePolicy) String() string {
	if p == FailRetain {
		return config.FailureRetain
	}
	return config.FailureErase
}

// Fetcher pulls the full vendor list from the directory. origin is the
// scheme://host of the request being served.
type Fetcher interface {
	Fetch(ctx context.Context, origin string) ([]vendors.VendorConfig, error)
}

// originBound is implemented by fetchers that may target the request's own
// origin. Fetchers without it are taken to ignore the origin.
type originBound interface {
	UsesOrigin() bool
}

type CacheOptions struct {
	TTL      time.Duration
	Policy   FailurePolicy
	MaxStale time.Duration
	// Dedup collapses concurrent refreshes into one fetch.
	Dedup   bool
	Clock   clock.Clock
	Log     *zap.SugaredLogger
	Metrics *Metrics
}

type cacheEntry struct {
	snap      *vendors.Snapshot
	checkedAt time.Time // last fetch attempt, successful or not
}

// Cache is the process-wide, time-bounded vendor snapshot. Reads are a
// single atomic load; a refresh swaps in a whole new entry.
type Cache struct {
	fetcher Fetcher
	opts    CacheOptions
	cur     atomic.Pointer[cacheEntry]
	good    atomic.Pointer[vendors.Snapshot] // last successful fetch, survives erasure
	group   singleflight.Group
}

func NewCache(f Fetcher, opts CacheOptions) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	c := &Cache{fetcher: f, opts: opts}
	c.cur.Store(&cacheEntry{snap: vendors.EmptySnapshot(time.Time{})})
	return c
}

// Snapshot returns the current snapshot without any I/O.
func (c *Cache) Snapshot() *vendors.Snapshot { return c.cur.Load().snap }

// LastGood returns the snapshot of the last successful fetch, even when a
// later failure erased the current one. Nil before the first success.
func (c *Cache) LastGood() *vendors.Snapshot { return c.good.Load() }

// UsesOrigin reports whether refreshes fetch from the request's origin.
func (c *Cache) UsesOrigin() bool {
	ob, ok := c.fetcher.(originBound)
	return ok && ob.UsesOrigin()
}

// Get returns the cached snapshot, refreshing it first when the TTL has
// elapsed since the last fetch attempt.
func (c *Cache) Get(ctx context.Context, origin string) *vendors.Snapshot {
	e := c.cur.Load()
	if c.fresh(e) {
		return e.snap
	}
	if !c.opts.Dedup {
		return c.refresh(ctx, origin)
	}
	// The shared fetch must not die with whichever request started it.
	ctx = context.WithoutCancel(ctx)
	v, _, _ := c.group.Do("refresh", func() (interface{}, error) {
		if e := c.cur.Load(); c.fresh(e) {
			return e.snap, nil
		}
		return c.refresh(ctx, origin), nil
	})
	return v.(*vendors.Snapshot)
}

func (c *Cache) fresh(e *cacheEntry) bool {
	return c.opts.Clock.Now().Sub(e.checkedAt) < c.opts.TTL
}

func (c *Cache) refresh(ctx context.Context, origin string) *vendors.Snapshot {
	start := c.opts.Clock.Now()
	vs, err := c.fetcher.Fetch(ctx, origin)
	now := c.opts.Clock.Now()

	if err != nil {
		c.opts.Metrics.observeFetch("error", now.Sub(start))
		next := &cacheEntry{snap: vendors.EmptySnapshot(now), checkedAt: now}
		prev := c.cur.Load().snap
		if c.opts.Policy == FailRetain && prev.Len() > 0 && now.Sub(prev.FetchedAt) < c.opts.MaxStale {
			next.snap = prev
		}
		c.opts.Log.Warnw("vendor config fetch failed",
			"err", err, "origin", origin, "policy", c.opts.Policy.String(), "vendors", next.snap.Len())
		c.cur.Store(next)
		c.opts.Metrics.setVendors(next.snap.Len())
		return next.snap
	}

	snap := vendors.NewSnapshot(vs, now)
	c.cur.Store(&cacheEntry{snap: snap, checkedAt: now})
	c.good.Store(snap)
	c.opts.Metrics.observeFetch("ok", now.Sub(start))
	c.opts.Metrics.setVendors(snap.Len())
	c.opts.Log.Debugw("vendor config refreshed", "origin", origin, "vendors", snap.Len())
	return snap
}
