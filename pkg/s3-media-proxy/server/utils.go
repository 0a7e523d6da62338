package server

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
)

// injectServerTimeout copies connection timeouts on server.
// Zero values keep net/http behavior.
func injectServerTimeout(svr *http.Server, cfg *config.ServerTimeoutsConfig) {
	// Check if configuration is empty
	if cfg == nil {
		return
	}

	svr.ReadTimeout = cfg.ReadTimeout
	svr.ReadHeaderTimeout = cfg.ReadHeaderTimeout
	svr.WriteTimeout = cfg.WriteTimeout
	svr.IdleTimeout = cfg.IdleTimeout
}

// requestDeadline returns the middleware giving each request its overall deadline.
// Upstream calls and streamed bodies stop with the request context,
// a request ended by its deadline is answered with a gateway timeout when nothing was sent.
func requestDeadline(cfg *config.ServerTimeoutsConfig) func(http.Handler) http.Handler {
	// Check if a deadline is configured
	if cfg == nil || cfg.RequestTimeout <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return middleware.Timeout(cfg.RequestTimeout)
}
