package routing

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"

	"storefront/pkg/vendors"
)

type ctxVendorKey struct{}

// VendorFrom returns the vendor path matched for the request's host, if any.
func VendorFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxVendorKey{}).(string)
	return v, ok && v != ""
}

// Router resolves the tenant owning the request host and rewrites the
// request path for downstream routing. It never redirects and never fails a
// request: any internal fault degrades to pass-through.
type Router struct {
	classifier *Classifier
	cache      *Cache
	log        *zap.SugaredLogger
	metrics    *Metrics

	// Hosts this deployment answers for besides vendor domains. Only
	// consulted when the directory is fetched from the request's origin.
	hosts     map[string]struct{}
	hostPorts map[string]struct{}
}

func NewRouter(classifier *Classifier, cache *Cache, log *zap.SugaredLogger, metrics *Metrics) *Router {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Router{
		classifier: classifier,
		cache:      cache,
		log:        log,
		metrics:    metrics,
		hosts:      map[string]struct{}{},
		hostPorts:  map[string]struct{}{},
	}
}

// TrustHosts registers the deployment's own hostnames (apex, www form added),
// optionally with a port, e.g. "localhost:8080". Call before serving.
func (rt *Router) TrustHosts(hosts ...string) *Router {
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		bare := NormalizeHost(h)
		rt.hosts[bare] = struct{}{}
		for _, v := range vendors.DomainVariants(bare) {
			rt.hosts[v] = struct{}{}
		}
		if bare != "" && bare != strings.TrimSuffix(h, ".") {
			rt.hostPorts[h] = struct{}{}
		}
	}
	return rt
}

// Middleware is the chi/net/http middleware form of the router.
func (rt *Router) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, rt.Route(r))
	})
}

// Route returns the request to hand downstream: r itself on pass-through,
// or a clone carrying the rewritten path and the matched vendor.
func (rt *Router) Route(r *http.Request) (out *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			rt.log.Errorw("vendor routing panic", "err", rec, "path", r.URL.Path, "stack", string(debug.Stack()))
			rt.metrics.decision(OutcomePanic)
			out = r
		}
	}()

	route := rt.classifier.Classify(r.URL.Path, r.URL.Query())
	if route.Class == ClassBypass {
		rt.metrics.decision(OutcomeBypass)
		return r
	}

	var vendor string
	if host := NormalizeHost(r.Host); host != "" {
		vendor, _ = Resolve(host, rt.snapshotFor(r, host))
	}
	d := Rewrite(vendor, route)
	rt.metrics.decision(d.Outcome)
	rt.log.Debugw("vendor routing", "host", r.Host, "path", route.Path, "class", route.Class.String(),
		"vendor", vendor, "outcome", d.Outcome, "target", d.Path)

	if vendor == "" {
		return r
	}
	ctx := context.WithValue(r.Context(), ctxVendorKey{}, vendor)
	if !d.Rewrite {
		return r.WithContext(ctx)
	}
	out = r.Clone(ctx)
	out.URL.Path = d.Path
	out.URL.RawPath = ""
	if r.URL.RawPath != "" && strings.HasSuffix(d.Path, r.URL.Path) {
		out.URL.RawPath = strings.TrimSuffix(d.Path, r.URL.Path) + r.URL.RawPath
	}
	return out
}

// snapshotFor returns the snapshot to resolve host against. When refreshes
// fetch from the request's own origin, only hosts the deployment owns may
// trigger one; any other Host sees the current snapshot as is.
func (rt *Router) snapshotFor(r *http.Request, host string) *vendors.Snapshot {
	if !rt.cache.UsesOrigin() {
		return rt.cache.Get(r.Context(), RequestOrigin(r))
	}
	if !rt.owns(host) {
		rt.log.Debugw("vendor refresh skipped for foreign host", "host", r.Host)
		return rt.cache.Snapshot()
	}
	return rt.cache.Get(r.Context(), rt.ownedOrigin(r, host))
}

func (rt *Router) owns(host string) bool {
	if _, ok := rt.hosts[host]; ok {
		return true
	}
	_, ok := Resolve(host, rt.cache.LastGood())
	return ok
}

// ownedOrigin keeps the Host port only when that host:port was trusted
// explicitly; otherwise the scheme's default port is used.
func (rt *Router) ownedOrigin(r *http.Request, host string) string {
	raw := strings.ToLower(r.Host)
	if _, ok := rt.hostPorts[raw]; ok {
		return requestScheme(r) + "://" + raw
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return requestScheme(r) + "://" + host
}
