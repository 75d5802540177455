package routing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"storefront/pkg/vendors"
)

func TestNormalizeHost(t *testing.T) {
	for in, want := range map[string]string{
		"":                  "",
		"acme.com":          "acme.com",
		"ACME.com":          "acme.com",
		"acme.com:8080":     "acme.com",
		"WWW.Acme.COM.:443": "www.acme.com",
		"127.0.0.1:9090":    "127.0.0.1",
		"[::1]:9090":        "::1",
		" acme.com ":        "acme.com",
	} {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, NormalizeHost(in))
		})
	}
}

func TestResolve(t *testing.T) {
	snap := vendors.NewSnapshot([]vendors.VendorConfig{
		vendor("acme", "acme.com"),
		{Path: "sleepy", Domains: []string{"sleepy.shop", "www.sleepy.shop"}, IsActive: false},
		vendor("globex", "globex.io"),
		vendor("dup", "globex.io"),
	}, time.Now())

	for host, want := range map[string]string{
		"acme.com":          "acme",
		"www.acme.com":      "acme",
		"ACME.COM":          "acme",
		"WwW.AcMe.CoM":      "acme",
		"acme.com:3000":     "acme",
		"www.acme.com.:443": "acme",
		"globex.io":         "globex",
	} {
		t.Run(host, func(t *testing.T) {
			got, ok := Resolve(host, snap)
			assert.True(t, ok)
			assert.Equal(t, want, got)
		})
	}

	for _, host := range []string{"", "sleepy.shop", "www.sleepy.shop", "example.org", "shop.acme.com", "acme.co"} {
		t.Run("none/"+host, func(t *testing.T) {
			got, ok := Resolve(host, snap)
			assert.False(t, ok)
			assert.Empty(t, got)
		})
	}
}

func TestResolveEmptySnapshot(t *testing.T) {
	_, ok := Resolve("acme.com", vendors.EmptySnapshot(time.Now()))
	assert.False(t, ok)
	_, ok = Resolve("acme.com", nil)
	assert.False(t, ok)
}
