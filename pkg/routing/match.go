package routing

import (
	"net"
	"strings"

	"storefront/pkg/vendors"
)

// NormalizeHost strips the port and a trailing dot and lowercases host.
// Malformed values yield whatever is left; an empty result never matches.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	// avoid net.SplitHostPort for value without port
	if strings.IndexByte(host, ':') != -1 {
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
	}
	host = strings.TrimSuffix(host, ".")
	return strings.ToLower(host)
}

// Resolve returns the path of the first active vendor, in snapshot order,
// that lists host among its domains. Domain uniqueness is the directory's
// job; collisions are not detected here.
func Resolve(host string, snap *vendors.Snapshot) (string, bool) {
	host = NormalizeHost(host)
	if host == "" {
		return "", false
	}
	for _, v := range snap.Vendors() {
		if !v.IsActive {
			continue
		}
		for _, d := range v.Domains {
			if strings.EqualFold(d, host) {
				return v.Path, true
			}
		}
	}
	return "", false
}
