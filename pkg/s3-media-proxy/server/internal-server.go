package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/dimiro1/health"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/bucket"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/cache"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/log"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/metrics"
	responsehandler "github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/response-handler"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/tracing"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/utils/generalutils"
)

// ErrInvalidInvalidationRequest is returned when an invalidation names neither a path nor a bucket key.
var ErrInvalidInvalidationRequest = errors.Sentinel("invalidation requires a path or a bucket and a key")

type InternalServer struct {
	logger     log.Logger
	cfgManager config.Manager
	metricsCl  metrics.Client
	routes     *Routes
	cacheSvc   cache.Service
	server     *http.Server
}

// invalidationRequest is compatible with webhook bodies.
type invalidationRequest struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Path   string `json:"path"`
}

type tokenRequest struct {
	Path string `json:"path"`
	TTL  string `json:"ttl"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

// nolint:whitespace
func NewInternalServer(
	logger log.Logger,
	cfgManager config.Manager,
	metricsCl metrics.Client,
	routes *Routes,
	cacheSvc cache.Service,
) *InternalServer {
	return &InternalServer{
		logger:     logger,
		cfgManager: cfgManager,
		metricsCl:  metricsCl,
		routes:     routes,
		cacheSvc:   cacheSvc,
	}
}

func (svr *InternalServer) Listen() error {
	svr.logger.Infof("Internal server listening on %s", svr.server.Addr)
	err := svr.server.ListenAndServe()
	// Closed server isn't an error
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return errors.WithStack(err)
}

// Shutdown will stop accepting requests and wait for the running ones.
func (svr *InternalServer) Shutdown(ctx context.Context) error {
	return errors.WithStack(svr.server.Shutdown(ctx))
}

func (svr *InternalServer) GenerateServer() error {
	// Get configuration
	cfg := svr.cfgManager.GetConfig()
	// Generate internal router
	r := svr.generateInternalRouter()
	// Create server
	addr := cfg.InternalServer.ListenAddr + ":" + strconv.Itoa(cfg.InternalServer.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Inject timeouts
	injectServerTimeout(server, cfg.InternalServer.Timeouts)

	// Store server
	svr.server = server

	return nil
}

func (svr *InternalServer) generateInternalRouter() http.Handler {
	r := chi.NewRouter()

	// Get configuration
	cfg := svr.cfgManager.GetConfig()

	// Check if we need to enabled the compress middleware
	if cfg.InternalServer.Compress != nil && cfg.InternalServer.Compress.Enabled != nil && *cfg.InternalServer.Compress.Enabled {
		r.Use(middleware.Compress(
			cfg.InternalServer.Compress.Level,
			cfg.InternalServer.Compress.Types...,
		))
	}

	r.Use(middleware.NoCache)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(log.NewStructuredLogger(
		svr.logger,
		tracing.GetTraceIDFromRequest,
		generalutils.ClientIP,
		generalutils.GetRequestURI,
	))
	r.Use(log.HTTPAddLoggerToContextMiddleware())
	r.Use(svr.metricsCl.Instrument("internal"))
	r.Use(middleware.Recoverer)
	r.Use(responsehandler.HTTPMiddleware(svr.cfgManager))

	healthHandler := health.NewHandler()
	// Listen path
	r.Handle("/metrics", svr.metricsCl.GetExposeHandler())
	r.Handle("/health", healthHandler)
	r.Post("/cache/invalidate", svr.invalidateCache)
	r.Post("/tokens", svr.issueToken)

	return r
}

func (svr *InternalServer) invalidateCache(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	// Get response handler
	resHan := responsehandler.GetResponseHandlerFromContext(ctx)

	// Parse body
	var body invalidationRequest

	err := json.NewDecoder(req.Body).Decode(&body)
	// Check error
	if err != nil {
		resHan.BadRequestError(errors.WithStack(err))

		return
	}

	var key cache.Key

	// Stored object keys have no leading slash
	objectKey := strings.TrimPrefix(body.Key, "/")

	switch {
	case body.Path != "":
		// Resolve public path
		match, err := svr.routes.Table().Resolve(body.Path)
		// Check error
		if err != nil {
			bucket.HandleError(ctx, resHan, err)

			return
		}

		key = cache.Key{Bucket: match.Rule.Bucket, Object: match.S3Key()}
	case body.Bucket != "" && objectKey != "":
		key = cache.Key{Bucket: body.Bucket, Object: objectKey}
	default:
		resHan.BadRequestError(errors.WithStack(ErrInvalidInvalidationRequest))

		return
	}

	// Invalidate
	err = svr.cacheSvc.Invalidate(ctx, key)
	// Check error
	if err != nil {
		resHan.InternalServerError(err)

		return
	}

	log.GetLoggerFromContext(ctx).Infof("cache entry %s invalidated", key)

	resHan.NoContent()
}

func (svr *InternalServer) issueToken(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	// Get response handler
	resHan := responsehandler.GetResponseHandlerFromContext(ctx)

	// Parse body
	var body tokenRequest

	err := json.NewDecoder(req.Body).Decode(&body)
	// Check error
	if err != nil {
		resHan.BadRequestError(errors.WithStack(err))

		return
	}

	// Parse ttl
	var ttl time.Duration
	if body.TTL != "" {
		ttl, err = time.ParseDuration(body.TTL)
		// Check error
		if err != nil {
			resHan.BadRequestError(errors.WithStack(err))

			return
		}
	}

	// Issue
	tok, expiresAt, err := svr.routes.IssueToken(body.Path, ttl)
	// Check error
	if err != nil {
		switch {
		case errors.Is(err, ErrTokensDisabled):
			resHan.NotFoundError(err)
		case errors.Is(err, ErrInvalidTTL):
			resHan.BadRequestError(err)
		default:
			bucket.HandleError(ctx, resHan, err)
		}

		return
	}

	svr.metricsCl.IncIssuedTokens()

	// Answer
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(http.StatusOK)

	err = json.NewEncoder(rw).Encode(&tokenResponse{
		Token:     tok,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339Nano),
	})
	// Check error
	if err != nil {
		log.GetLoggerFromContext(ctx).Error(errors.WithStack(err))
	}
}
