package vendors

import (
	"strings"
	"time"
)

// VendorConfig is one active storefront as published by the directory.
type VendorConfig struct {
	Path      string   `json:"path"`                // stable URL segment (/vendor/{path})
	Domains   []string `json:"domains"`             // lowercase hostnames, bare + www. form
	IsActive  bool     `json:"isActive"`            // inactive vendors are never matched
	StoreName string   `json:"storeName,omitempty"` // display only
}

// Snapshot is an immutable, ordered copy of the directory. Order is the
// order vendors appeared in the directory response.
type Snapshot struct {
	FetchedAt time.Time

	vendors []VendorConfig
	index   map[string]int
}

// NewSnapshot copies vs into a new snapshot. A repeated path keeps its first
// position and takes the later value.
func NewSnapshot(vs []VendorConfig, fetchedAt time.Time) *Snapshot {
	s := &Snapshot{
		FetchedAt: fetchedAt,
		vendors:   make([]VendorConfig, 0, len(vs)),
		index:     make(map[string]int, len(vs)),
	}
	for _, v := range vs {
		v.Domains = append([]string(nil), v.Domains...)
		if i, ok := s.index[v.Path]; ok {
			s.vendors[i] = v
			continue
		}
		s.index[v.Path] = len(s.vendors)
		s.vendors = append(s.vendors, v)
	}
	return s
}

// EmptySnapshot is the snapshot held before the first successful fetch.
func EmptySnapshot(at time.Time) *Snapshot { return NewSnapshot(nil, at) }

// Vendors returns the vendors in directory order. Callers must not modify it.
func (s *Snapshot) Vendors() []VendorConfig {
	if s == nil {
		return nil
	}
	return s.vendors
}

func (s *Snapshot) Get(path string) (VendorConfig, bool) {
	if s == nil {
		return VendorConfig{}, false
	}
	i, ok := s.index[path]
	if !ok {
		return VendorConfig{}, false
	}
	return s.vendors[i], true
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.vendors)
}

// NormalizeDomain lowercases d and strips scheme, port, path, trailing dot
// and a leading "www.".
func NormalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	if i := strings.LastIndexByte(d, ':'); i >= 0 && !strings.Contains(d[i:], "]") {
		d = d[:i]
	}
	d = strings.TrimSuffix(d, ".")
	return strings.TrimPrefix(d, "www.")
}

// DomainVariants returns the bare and www. forms of a custom domain, or nil
// when the domain is empty.
func DomainVariants(custom string) []string {
	bare := NormalizeDomain(custom)
	if bare == "" {
		return nil
	}
	return []string{bare, "www." + bare}
}
