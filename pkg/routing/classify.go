package routing

import (
	"net/url"
	"strings"

	"storefront/pkg/config"
)

// PathClass is the routing-relevant category of a request path.
type PathClass int

const (
	ClassOther PathClass = iota
	ClassBypass
	ClassRoot
	ClassCommonPage
	ClassVendorPrefixed
)

func (c PathClass) String() string {
	switch c {
	case ClassBypass:
		return "bypass"
	case ClassRoot:
		return "root"
	case ClassCommonPage:
		return "common"
	case ClassVendorPrefixed:
		return "vendor_prefixed"
	default:
		return "other"
	}
}

// VendorPrefix is the shared path under which vendor storefronts live.
const VendorPrefix = "/vendor"

var (
	// DefaultBypassPrefixes covers framework assets, internal actions and
	// sessions, auth flows, error/loading boundaries and vendor onboarding.
	DefaultBypassPrefixes = []string{
		"/_next",
		"/_vercel",
		"/static/",
		"/assets/",
		"/api/",
		"/actions/",
		"/session",
		"/auth/",
		"/login",
		"/logout",
		"/signin",
		"/signup",
		"/register",
		"/error",
		"/loading",
		"/not-found",
		"/vendor-registration",
		"/vendor-setup",
		"/onboarding",
		"/healthz",
		"/metrics",
	}

	DefaultCommonPages = []string{
		"/about",
		"/help",
		"/contact",
		"/terms",
		"/custom-orders",
		"/info-act",
		"/international-tolerances",
	}
)

const (
	DefaultRSCParam       = "_rsc"
	DefaultInternalMarker = "/_next/"
)

// Route is the classification of one request.
type Route struct {
	Path  string
	Class PathClass
	RSC   bool
}

// Classifier decides from path and query alone how a request is routed.
type Classifier struct {
	directoryPath  string
	bypass         []string
	common         []string
	rscParam       string
	internalMarker string
}

// NewClassifier builds a classifier from static rules. directoryPath is the
// vendor directory endpoint; it is always bypassed, whatever the rules say,
// so fetching the directory can never re-enter tenant resolution.
func NewClassifier(rules config.Rules, directoryPath string) *Classifier {
	c := &Classifier{
		directoryPath:  directoryPath,
		bypass:         rules.BypassPrefixes,
		common:         rules.CommonPages,
		rscParam:       rules.RSCParam,
		internalMarker: rules.InternalMarker,
	}
	if len(c.bypass) == 0 {
		c.bypass = DefaultBypassPrefixes
	}
	if len(c.common) == 0 {
		c.common = DefaultCommonPages
	}
	if c.rscParam == "" {
		c.rscParam = DefaultRSCParam
	}
	if c.internalMarker == "" {
		c.internalMarker = DefaultInternalMarker
	}
	return c
}

// ShouldBypass reports whether tenant resolution must be skipped.
func (c *Classifier) ShouldBypass(path string, query url.Values) bool {
	return c.Classify(path, query).Class == ClassBypass
}

// Classify computes the route class. The generic bypass checks run first;
// the RSC check runs after them because RSC requests to common pages still
// need a vendor-specific rewrite.
func (c *Classifier) Classify(path string, query url.Values) Route {
	if path == "" {
		path = "/"
	}
	rt := Route{Path: path, RSC: query.Has(c.rscParam)}

	switch {
	case c.directoryPath != "" && underPrefix(path, c.directoryPath):
		rt.Class = ClassBypass
	case matchAny(path, c.bypass):
		rt.Class = ClassBypass
	case strings.Contains(path, "."):
		rt.Class = ClassBypass
	case strings.Contains(path, c.internalMarker):
		rt.Class = ClassBypass
	case rt.RSC && !matchAny(path, c.common):
		rt.Class = ClassBypass
	case path == "/":
		rt.Class = ClassRoot
	case matchAny(path, c.common):
		rt.Class = ClassCommonPage
	case underPrefix(path, VendorPrefix):
		rt.Class = ClassVendorPrefixed
	default:
		rt.Class = ClassOther
	}
	return rt
}

func matchAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if underPrefix(path, p) {
			return true
		}
	}
	return false
}

// underPrefix matches whole segments: "/login" matches "/login" and
// "/login/x" but not "/loginx". A prefix ending in "/" matches anything
// below it.
func underPrefix(path, prefix string) bool {
	if strings.HasSuffix(prefix, "/") {
		return strings.HasPrefix(path, prefix) || path == strings.TrimSuffix(prefix, "/")
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
