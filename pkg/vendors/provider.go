package vendors

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrNotFound = errors.New("vendor not found")

// Directory is the read contract of the vendor store.
type Directory interface {
	// ListActive returns every active vendor in a stable order.
	ListActive(ctx context.Context) ([]VendorConfig, error)
}

// Finder is implemented by directories that can look up a single vendor.
type Finder interface {
	// GetByPath returns the vendor (active or not) or ErrNotFound.
	GetByPath(ctx context.Context, path string) (VendorConfig, error)
}

// SeedEntry is one element of VENDOR_SEED_JSON.
//
//	[{"path":"acme","domain":"acme.com","storeName":"Acme","isActive":true}]
type SeedEntry struct {
	Path      string `json:"path"`
	Domain    string `json:"domain"`
	StoreName string `json:"storeName"`
	IsActive  *bool  `json:"isActive"`
}

func (e SeedEntry) active() bool { return e.IsActive == nil || *e.IsActive }

func (e SeedEntry) config() VendorConfig {
	return VendorConfig{
		Path:      e.Path,
		Domains:   DomainVariants(e.Domain),
		IsActive:  e.active(),
		StoreName: e.StoreName,
	}
}

func parseSeed(jsonSeed string) ([]SeedEntry, error) {
	if jsonSeed == "" {
		return nil, nil
	}
	var entries []SeedEntry
	if err := json.Unmarshal([]byte(jsonSeed), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
