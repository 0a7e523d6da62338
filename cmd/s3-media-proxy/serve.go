package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/cache"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/log"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/metrics"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/s3client"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/server"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/tracing"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/version"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/webhook"
)

const shutdownTimeout = 30 * time.Second

// loadConfiguration creates the logger and loads configuration.
func loadConfiguration(mainConfDir string) (log.Logger, config.Manager, error) {
	// Create new logger
	logger := log.NewLogger()

	// Create configuration manager
	cfgManager := config.NewManager(logger)

	// Load configuration
	err := cfgManager.Load(mainConfDir)
	if err != nil {
		return nil, nil, err
	}

	// Get configuration
	cfg := cfgManager.GetConfig()
	// Configure logger
	err = logger.Configure(cfg.Log.Level, cfg.Log.Format, cfg.Log.FilePath)
	if err != nil {
		return nil, nil, err
	}

	return logger, cfgManager, nil
}

func startServer(mainConfDir string) error {
	logger, cfgManager, err := loadConfiguration(mainConfDir)
	if err != nil {
		return err
	}

	// Watch change for logger (special case)
	cfgManager.AddOnChangeHook(func() {
		// Get configuration
		cfg := cfgManager.GetConfig()
		// Configure logger
		err2 := logger.Configure(cfg.Log.Level, cfg.Log.Format, cfg.Log.FilePath)
		if err2 != nil {
			logger.Error(err2)
		}
	})

	logger.Debug("Configuration successfully loaded and logger configured")
	logger.Info("Starting " + version.GetVersion().String())

	// Generate metrics instance
	metricsCtx := metrics.NewClient()

	// Generate tracing service instance
	tracingSvc, err := tracing.New(cfgManager, logger)
	// Check error
	if err != nil {
		return err
	}

	// Create S3 client manager
	s3clientManager := s3client.NewManager(cfgManager, metricsCtx, logger)
	// Log
	logger.Info("Load S3 clients for all buckets")
	// Load configuration
	err = s3clientManager.Load()
	// Check error
	if err != nil {
		return err
	}

	// Create webhook manager
	webhookManager := webhook.NewManager(cfgManager, metricsCtx, logger)
	// Load
	err = webhookManager.Load()
	// Check error
	if err != nil {
		return err
	}

	// Create cache service
	cacheSvc := cache.NewService(cfgManager, metricsCtx, logger)
	// Initialize
	err = cacheSvc.Initialize()
	// Check error
	if err != nil {
		return err
	}

	// Create routes
	routes := server.NewRoutes(cfgManager)
	// Load
	err = routes.Load()
	// Check error
	if err != nil {
		return err
	}

	// Create internal server
	intSvr := server.NewInternalServer(logger, cfgManager, metricsCtx, routes, cacheSvc)
	// Generate server
	err = intSvr.GenerateServer()
	if err != nil {
		return err
	}
	// Create server
	svr := server.NewServer(logger, cfgManager, metricsCtx, tracingSvc, routes, s3clientManager, cacheSvc, webhookManager)
	// Generate server
	err = svr.GenerateServer()
	if err != nil {
		return err
	}

	// Prepare on reload hook
	// Failures keep the previous state of the failing component
	cfgManager.AddOnChangeHook(func() {
		reloaders := []struct {
			name   string
			reload func() error
		}{
			{name: "tracing", reload: tracingSvc.Reload},
			{name: "S3 clients", reload: s3clientManager.Load},
			{name: "webhooks", reload: webhookManager.Load},
			{name: "cache", reload: cacheSvc.Reload},
			{name: "routes", reload: routes.Load},
			{name: "server", reload: svr.Reload},
		}

		for _, r := range reloaders {
			logger.Infof("Reload %s", r.name)

			err2 := r.reload()
			// Check error
			if err2 != nil {
				logger.WithError(err2).Errorf("%s reload failed", r.name)
			}
		}
	})

	// Stop on signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(svr.Listen)
	g.Go(intSvr.Listen)
	g.Go(func() error {
		// Wait for signal or server failure
		<-gctx.Done()
		logger.Info("Shutting down servers")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err2 := svr.Shutdown(sctx)
		err3 := intSvr.Shutdown(sctx)
		// Flush traces
		err4 := tracingSvc.Close()

		// Check errors
		if err2 != nil {
			return err2
		}

		if err3 != nil {
			return err3
		}

		return err4
	})

	return g.Wait()
}
