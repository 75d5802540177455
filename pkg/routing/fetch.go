package routing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"storefront/pkg/vendors"
)

var (
	// ErrFetch wraps every directory fetch failure.
	ErrFetch       = errors.New("vendor config fetch failed")
	ErrStatus      = errors.New("unexpected status")
	ErrBreakerOpen = errors.New("directory circuit open")
)

const (
	DefaultFetchTimeout = 2 * time.Second
	maxDirectoryBytes   = 8 << 20
)

type FetcherOptions struct {
	// Path of the directory endpoint on the request's own origin.
	Path string
	// URL, when set, is used instead of origin+Path.
	URL     string
	Timeout time.Duration
	// Breaker stops calling a failing directory for a while.
	Breaker bool
	// Transport defaults to an otelhttp-instrumented default transport.
	Transport http.RoundTripper
}

// HTTPFetcher reads the vendor directory over HTTP.
type HTTPFetcher struct {
	client  *http.Client
	path    string
	url     string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
}

func NewHTTPFetcher(o FetcherOptions) *HTTPFetcher {
	if o.Timeout <= 0 {
		o.Timeout = DefaultFetchTimeout
	}
	if o.Transport == nil {
		o.Transport = otelhttp.NewTransport(http.DefaultTransport)
	}
	f := &HTTPFetcher{
		client: &http.Client{
			Transport: o.Transport,
			Timeout:   o.Timeout,
			// A redirect could lead the fetch off the deployment.
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		path:    o.Path,
		url:     o.URL,
		timeout: o.Timeout,
	}
	if o.Breaker {
		f.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "vendor-directory",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 3
			},
		})
	}
	return f
}

// UsesOrigin reports whether the fetch target is derived from the request.
func (f *HTTPFetcher) UsesOrigin() bool { return f.url == "" }

// Target is the URL fetched for a request served on origin.
func (f *HTTPFetcher) Target(origin string) string {
	if f.url != "" {
		return f.url
	}
	if origin == "" {
		return ""
	}
	return strings.TrimRight(origin, "/") + f.path
}

func (f *HTTPFetcher) Fetch(ctx context.Context, origin string) ([]vendors.VendorConfig, error) {
	if f.cb == nil {
		return f.fetch(ctx, origin)
	}
	v, err := f.cb.Execute(func() (interface{}, error) {
		return f.fetch(ctx, origin)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrFetch, ErrBreakerOpen)
	}
	if err != nil {
		return nil, err
	}
	return v.([]vendors.VendorConfig), nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, origin string) ([]vendors.VendorConfig, error) {
	target := f.Target(origin)
	if target == "" {
		return nil, fmt.Errorf("%w: no origin", ErrFetch)
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %w %d", ErrFetch, ErrStatus, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDirectoryBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}
	vs, err := vendors.DecodeDirectory(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return vs, nil
}

// RequestOrigin is the scheme://host the request was addressed to.
func RequestOrigin(r *http.Request) string {
	if r.Host == "" {
		return ""
	}
	return requestScheme(r) + "://" + r.Host
}

// requestScheme prefers TLS on the connection over X-Forwarded-Proto.
func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		p = strings.ToLower(strings.TrimSpace(strings.Split(p, ",")[0]))
		if p == "http" || p == "https" {
			return p
		}
	}
	return "http"
}
