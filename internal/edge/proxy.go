package edge

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"storefront/pkg/problems"
	"storefront/pkg/routing"
)

// NewProxy forwards requests to the storefront application. The path is
// whatever the routing middleware left on the request; Host and all other
// headers are passed through as received.
func NewProxy(upstream string, log *zap.SugaredLogger) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("edge: upstream %q: %w", upstream, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("edge: upstream %q: scheme and host required", upstream)
	}
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Host = pr.In.Host
		},
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			vendor, _ := routing.VendorFrom(r.Context())
			log.Warnw("upstream error", "err", err, "path", r.URL.Path, "vendor", vendor)
			problems.Write(w, http.StatusBadGateway, "upstream-unavailable", "Storefront unavailable", "")
		},
	}, nil
}
