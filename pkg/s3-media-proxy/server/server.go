package server

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"

	"emperror.dev/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httptracer"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/cache"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/log"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/metrics"
	responsehandler "github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/response-handler"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/s3client"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/server/middlewares"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/tracing"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/utils/generalutils"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/version"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/webhook"
)

type Server struct {
	logger          log.Logger
	cfgManager      config.Manager
	metricsCl       metrics.Client
	tracingSvc      tracing.Service
	routes          *Routes
	s3clientManager s3client.Manager
	cacheSvc        cache.Service
	webhookManager  webhook.Manager
	server          *http.Server
	handler         atomic.Pointer[chi.Mux]
}

// nolint:whitespace
func NewServer(
	logger log.Logger,
	cfgManager config.Manager,
	metricsCl metrics.Client,
	tracingSvc tracing.Service,
	routes *Routes,
	s3clientManager s3client.Manager,
	cacheSvc cache.Service,
	webhookManager webhook.Manager,
) *Server {
	return &Server{
		logger:          logger,
		cfgManager:      cfgManager,
		metricsCl:       metricsCl,
		tracingSvc:      tracingSvc,
		routes:          routes,
		s3clientManager: s3clientManager,
		cacheSvc:        cacheSvc,
		webhookManager:  webhookManager,
	}
}

func (svr *Server) Listen() error {
	svr.logger.Infof("Server listening on %s", svr.server.Addr)
	err := svr.server.ListenAndServe()
	// Closed server isn't an error
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return errors.WithStack(err)
}

// Shutdown will stop accepting requests and wait for the running ones.
func (svr *Server) Shutdown(ctx context.Context) error {
	return errors.WithStack(svr.server.Shutdown(ctx))
}

func (svr *Server) GenerateServer() error {
	// Get configuration
	cfg := svr.cfgManager.GetConfig()
	// Generate router
	r, err := svr.generateRouter()
	if err != nil {
		return err
	}

	// Store router
	svr.handler.Store(r)

	// Create server
	addr := cfg.Server.ListenAddr + ":" + strconv.Itoa(cfg.Server.Port)
	server := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			svr.handler.Load().ServeHTTP(rw, req)
		}),
	}

	// Inject timeouts
	injectServerTimeout(server, cfg.Server.Timeouts)

	// Store server
	svr.server = server

	return nil
}

// Reload will regenerate the router from configuration.
// On error, the previous router is kept.
func (svr *Server) Reload() error {
	// Generate router
	r, err := svr.generateRouter()
	if err != nil {
		return err
	}

	// Swap
	svr.handler.Store(r)
	svr.logger.Info("Server handler reloaded")

	return nil
}

func (svr *Server) generateRouter() (*chi.Mux, error) {
	// Get configuration
	cfg := svr.cfgManager.GetConfig()

	// Create router
	r := chi.NewRouter()

	// Check if we need to enabled the compress middleware
	if cfg.Server.Compress != nil && cfg.Server.Compress.Enabled != nil && *cfg.Server.Compress.Enabled {
		r.Use(middleware.Compress(
			cfg.Server.Compress.Level,
			cfg.Server.Compress.Types...,
		))
	}

	// Check if cache headers must be added
	if cfg.Server.CacheHeaders != nil {
		r.Use(middlewares.CacheHeaders(cfg.Server.CacheHeaders))
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// Check if tracing is configured
	if svr.tracingSvc != nil {
		var fixedTags map[string]interface{}
		if cfg.Tracing != nil {
			fixedTags = cfg.Tracing.FixedTags
		}

		// Put tracing middlewares
		r.Use(httptracer.Tracer(svr.tracingSvc.GetTracer(), httptracer.Config{
			ServiceName:    "s3-media-proxy",
			ServiceVersion: version.GetVersion().Version,
			SampleRate:     1,
			OperationName:  "http.request",
			Tags:           fixedTags,
		}))
		r.Use(middlewares.ImproveTracing())
	}

	// Hide tokens in logs
	tokenParam := ""
	if cfg.Tokens != nil {
		tokenParam = cfg.Tokens.QueryParam
	}

	r.Use(log.NewStructuredLogger(
		svr.logger,
		tracing.GetTraceIDFromRequest,
		generalutils.ClientIP,
		func(r *http.Request) string { return generalutils.RedactQueryParam(r, tokenParam) },
	))
	r.Use(log.HTTPAddLoggerToContextMiddleware())
	r.Use(svr.metricsCl.Instrument("business"))
	// Recover panic
	r.Use(middleware.Recoverer)
	// Overall request deadline
	r.Use(requestDeadline(cfg.Server.Timeouts))

	// Check if cors is enabled
	if cfg.Server.CORS != nil && cfg.Server.CORS.Enabled {
		// Generate CORS
		cc := generateCors(cfg.Server, svr.logger.GetCorsLogger())
		// Apply CORS handler
		r.Use(cc.Handler)
	}

	// Add response handler
	r.Use(responsehandler.HTTPMiddleware(svr.cfgManager))

	// Every path is resolved against the endpoint table
	r.HandleFunc("/*", svr.proxy)

	return r, nil
}

// Generate CORS.
func generateCors(cfg *config.ServerConfig, logger log.CorsLogger) *cors.Cors {
	// Check if allow all is enabled
	if cfg.CORS.AllowAll {
		cc := cors.AllowAll()
		// Add logger
		cc.Log = logger
		// Return
		return cc
	}

	corsOpt := cors.Options{}
	// Check if allowed origins exist
	if cfg.CORS.AllowOrigins != nil {
		corsOpt.AllowedOrigins = cfg.CORS.AllowOrigins
	}
	// Check if allowed methods exist
	if cfg.CORS.AllowMethods != nil {
		corsOpt.AllowedMethods = cfg.CORS.AllowMethods
	}
	// Check if allowed headers exist
	if cfg.CORS.AllowHeaders != nil {
		corsOpt.AllowedHeaders = cfg.CORS.AllowHeaders
	}
	// Check if exposed headers exist
	if cfg.CORS.ExposeHeaders != nil {
		corsOpt.ExposedHeaders = cfg.CORS.ExposeHeaders
	}
	// Check if allow credentials exist
	if cfg.CORS.AllowCredentials != nil {
		corsOpt.AllowCredentials = *cfg.CORS.AllowCredentials
	}
	// 300 = Maximum value not ignored by any of major browsers
	if cfg.CORS.MaxAge != nil {
		corsOpt.MaxAge = *cfg.CORS.MaxAge
	}
	// Check if debug option exists
	if cfg.CORS.Debug != nil {
		corsOpt.Debug = *cfg.CORS.Debug
	}
	// Check if Options Passthrough exists
	if cfg.CORS.OptionsPassthrough != nil {
		corsOpt.OptionsPassthrough = *cfg.CORS.OptionsPassthrough
	}

	cc := cors.New(corsOpt)
	// Add logger
	cc.Log = logger

	return cc
}
