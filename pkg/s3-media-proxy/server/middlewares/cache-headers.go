package middlewares

import (
	"net/http"

	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
)

// CacheHeaders is a middleware setting default cache headers.
// Headers sent by the object storage replace them.
func CacheHeaders(cfg *config.CacheHeadersConfig) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			// Check if expires header is set
			if cfg.Expires != "" {
				rw.Header().Set("Expires", cfg.Expires)
			}
			// Check if cache control is set
			if cfg.CacheControl != "" {
				rw.Header().Set("Cache-Control", cfg.CacheControl)
			}
			// Check if pragma is set
			if cfg.Pragma != "" {
				rw.Header().Set("Pragma", cfg.Pragma)
			}
			// Check if x-accel-expires
			if cfg.XAccelExpires != "" {
				rw.Header().Set("X-Accel-Expires", cfg.XAccelExpires)
			}

			// Next
			h.ServeHTTP(rw, r)
		})
	}
}
