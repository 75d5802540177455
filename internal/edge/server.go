package edge

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/directory"
	"storefront/pkg/middleware"
	"storefront/pkg/routing"
	"storefront/pkg/vendors"
)

type Options struct {
	Service  string
	Router   *routing.Router
	Upstream http.Handler
	Metrics  http.Handler
	// Directory, when set, is served in-process at DirectoryPath.
	Directory     vendors.Directory
	DirectoryPath string
	Log           *zap.SugaredLogger
}

// NewHandler assembles the edge: ambient middleware, then vendor routing,
// then the chi routes that see the rewritten path.
func NewHandler(o Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(o.Log))
	r.Use(middleware.DebugWriteHeader(o.Log))
	r.Use(middleware.Tracing(o.Service, o.Log))
	r.Use(o.Router.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	if o.Metrics != nil {
		r.Handle("/metrics", o.Metrics)
	}
	if o.Directory != nil {
		directory.RegisterRoutes(r, o.DirectoryPath, o.Directory, o.Log)
	}
	r.Handle("/*", o.Upstream)
	return r
}
