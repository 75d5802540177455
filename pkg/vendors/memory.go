package vendors

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"
)

// MemoryDirectory is an in-process Directory used for dev and tests.
type MemoryDirectory struct {
	mu     sync.RWMutex
	order  []string
	byPath map[string]VendorConfig
	log    *zap.SugaredLogger
}

// NewMemoryDirectory returns a directory holding vs in order.
func NewMemoryDirectory(log *zap.SugaredLogger, vs ...VendorConfig) *MemoryDirectory {
	m := &MemoryDirectory{byPath: map[string]VendorConfig{}, log: log}
	for _, v := range vs {
		m.Upsert(v)
	}
	return m
}

// NewMemoryDirectoryFromEnv seeds from VENDOR_SEED_JSON, or a single dev
// vendor reachable at demo.localhost when unset.
func NewMemoryDirectoryFromEnv(log *zap.SugaredLogger) Directory {
	m := NewMemoryDirectory(log)
	entries, err := parseSeed(os.Getenv("VENDOR_SEED_JSON"))
	if err != nil {
		log.Warnw("vendor seed", "err", err)
	}
	if len(entries) == 0 {
		entries = []SeedEntry{{Path: "demo", Domain: "demo.localhost", StoreName: "Demo Store"}}
	}
	for _, e := range entries {
		m.Upsert(e.config())
	}
	log.Infow("memory vendor directory ready", "vendors", len(m.order))
	return m
}

func (m *MemoryDirectory) Upsert(v VendorConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byPath[v.Path]; !ok {
		m.order = append(m.order, v.Path)
	}
	v.Domains = append([]string(nil), v.Domains...)
	m.byPath[v.Path] = v
}

func (m *MemoryDirectory) ListActive(ctx context.Context) ([]VendorConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]VendorConfig, 0, len(m.order))
	for _, p := range m.order {
		v := m.byPath[p]
		if !v.IsActive {
			continue
		}
		v.Domains = append([]string(nil), v.Domains...)
		out = append(out, v)
	}
	return out, nil
}

func (m *MemoryDirectory) GetByPath(ctx context.Context, path string) (VendorConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.byPath[path]; ok {
		return v, nil
	}
	return VendorConfig{}, ErrNotFound
}
