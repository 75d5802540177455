package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/pkg/config"
)

func TestClassifyDefaults(t *testing.T) {
	c := NewClassifier(config.Rules{}, "/api/vendors/config")

	for _, tc := range []struct {
		path  string
		query string
		class PathClass
		rsc   bool
	}{
		{path: "/", class: ClassRoot},
		{path: "", class: ClassRoot},
		{path: "/products/42", class: ClassOther},
		{path: "/about", class: ClassCommonPage},
		{path: "/about", query: "_rsc=abc", class: ClassCommonPage, rsc: true},
		{path: "/about/team", class: ClassCommonPage},
		{path: "/international-tolerances", query: "_rsc=1", class: ClassCommonPage, rsc: true},
		{path: "/aboutus", class: ClassOther},
		{path: "/products", query: "_rsc=1", class: ClassBypass, rsc: true},
		{path: "/", query: "_rsc=1", class: ClassBypass, rsc: true},
		{path: "/vendor", class: ClassVendorPrefixed},
		{path: "/vendor/acme/shop", class: ClassVendorPrefixed},
		{path: "/vendors", class: ClassOther},
		{path: "/vendorx/shop", class: ClassOther},
		{path: "/_next/static/chunk", class: ClassBypass},
		{path: "/favicon.ico", class: ClassBypass},
		{path: "/products/shoe.png", class: ClassBypass},
		{path: "/vendor/acme/_next/data", class: ClassBypass},
		{path: "/api/vendors/config", class: ClassBypass},
		{path: "/api/orders", class: ClassBypass},
		{path: "/login", class: ClassBypass},
		{path: "/loginx", class: ClassOther},
		{path: "/auth/callback", class: ClassBypass},
		{path: "/vendor-registration/step-2", class: ClassBypass},
		{path: "/static", class: ClassBypass},
		{path: "/healthz", class: ClassBypass},
		{path: "/error", class: ClassBypass},
		{path: "/loading", class: ClassBypass},
	} {
		t.Run(tc.path+"?"+tc.query, func(t *testing.T) {
			rt := c.Classify(tc.path, query(t, tc.query))
			assert.Equal(t, tc.class, rt.Class, "class %s", rt.Class)
			assert.Equal(t, tc.rsc, rt.RSC)
			assert.Equal(t, tc.class == ClassBypass, c.ShouldBypass(tc.path, query(t, tc.query)))
		})
	}
}

func TestDirectoryPathAlwaysBypassed(t *testing.T) {
	// Rules that do not mention the directory endpoint at all.
	c := NewClassifier(config.Rules{BypassPrefixes: []string{"/only"}}, "/internal/vendor-config")

	assert.True(t, c.ShouldBypass("/internal/vendor-config", nil))
	assert.True(t, c.ShouldBypass("/internal/vendor-config/acme", nil))
	assert.True(t, c.ShouldBypass("/internal/vendor-config", query(t, "_rsc=1")))
	assert.True(t, c.ShouldBypass("/only/x", nil))
	assert.False(t, c.ShouldBypass("/api/orders", nil))
	assert.False(t, c.ShouldBypass("/internal/vendor-configs", nil))
}

func TestClassifyCustomRules(t *testing.T) {
	c := NewClassifier(config.Rules{
		CommonPages:    []string{"/faq"},
		RSCParam:       "__flight",
		InternalMarker: "/__internal/",
	}, "/api/vendors/config")

	assert.Equal(t, ClassCommonPage, c.Classify("/faq", nil).Class)
	assert.Equal(t, ClassOther, c.Classify("/about", nil).Class)

	rt := c.Classify("/faq", query(t, "__flight=1"))
	assert.Equal(t, ClassCommonPage, rt.Class)
	assert.True(t, rt.RSC)

	rt = c.Classify("/faq", query(t, "_rsc=1"))
	assert.Equal(t, ClassCommonPage, rt.Class)
	assert.False(t, rt.RSC)
	assert.Equal(t, ClassBypass, c.Classify("/shop/__internal/x", nil).Class)
	assert.Equal(t, ClassBypass, c.Classify("/products", query(t, "__flight=")).Class)
}

func TestPathClassString(t *testing.T) {
	assert.Equal(t, "bypass", ClassBypass.String())
	assert.Equal(t, "root", ClassRoot.String())
	assert.Equal(t, "common", ClassCommonPage.String())
	assert.Equal(t, "vendor_prefixed", ClassVendorPrefixed.String())
	assert.Equal(t, "other", ClassOther.String())
}
