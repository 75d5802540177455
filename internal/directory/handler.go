package directory

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/pkg/problems"
	"storefront/pkg/vendors"
)

// RegisterRoutes serves the vendor directory at path, and single vendors at
// path/{vendor} when dir can look them up.
func RegisterRoutes(r chi.Router, path string, dir vendors.Directory, log *zap.SugaredLogger) {
	r.Get(path, func(w http.ResponseWriter, req *http.Request) {
		vs, err := dir.ListActive(req.Context())
		if err != nil {
			log.Errorw("list vendors", "err", err)
			problems.Write(w, http.StatusServiceUnavailable, "directory-unavailable", "Vendor directory unavailable", "")
			return
		}
		var buf bytes.Buffer
		if err := vendors.EncodeDirectory(&buf, vs); err != nil {
			log.Errorw("encode vendors", "err", err)
			problems.Write(w, http.StatusInternalServerError, "internal", "Internal error", "")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(buf.Bytes())
	})

	finder, ok := dir.(vendors.Finder)
	if !ok {
		return
	}
	r.Get(path+"/{vendor}", func(w http.ResponseWriter, req *http.Request) {
		v, err := finder.GetByPath(req.Context(), chi.URLParam(req, "vendor"))
		if errors.Is(err, vendors.ErrNotFound) {
			problems.Write(w, http.StatusNotFound, "vendor-not-found", "Vendor not found", "")
			return
		}
		if err != nil {
			log.Errorw("get vendor", "err", err)
			problems.Write(w, http.StatusServiceUnavailable, "directory-unavailable", "Vendor directory unavailable", "")
			return
		}
		if v.Domains == nil {
			v.Domains = []string{}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(v)
	})
}
