package tracing

import (
	"io"
	"sync"
	"time"

	"emperror.dev/errors"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/log"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	jaegerprom "github.com/uber/jaeger-lib/metrics/prometheus"
)

const serviceName = "s3-media-proxy"

type service struct {
	closer     io.Closer
	tracer     opentracing.Tracer
	cfgManager config.Manager
	logger     log.Logger
	// Prometheus collectors can be registered only once
	metricsFactory *jaegerprom.Factory
	mutex          sync.Mutex
}

func (s *service) GetTracer() opentracing.Tracer {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.tracer
}

func (s *service) Reload() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	// Save closer
	cl := s.closer

	// Setup
	err := s.setup()
	if err != nil {
		return err
	}

	// Close old one
	if cl != nil {
		return errors.WithStack(cl.Close())
	}

	return nil
}

func (s *service) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	// Check closer
	if s.closer == nil {
		return nil
	}

	return errors.WithStack(s.closer.Close())
}

func (s *service) setup() error {
	cfg := s.cfgManager.GetConfig()
	// Initialize configuration
	jcfg := jaegercfg.Configuration{
		ServiceName: serviceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeConst,
			Param: 1,
		},
	}

	// Check if configuration can be set
	if cfg.Tracing == nil || !cfg.Tracing.Enabled {
		jcfg.Disabled = true
	} else {
		// Add reporter configuration
		jcfg.Reporter = &jaegercfg.ReporterConfig{
			LogSpans:  cfg.Tracing.LogSpan,
			QueueSize: cfg.Tracing.QueueSize,
		}

		// Check if flush interval is customized
		if cfg.Tracing.FlushInterval != "" {
			// Try to parse duration for flush interval
			dur, err := time.ParseDuration(cfg.Tracing.FlushInterval)
			if err != nil {
				return errors.WithStack(err)
			}

			jcfg.Reporter.BufferFlushInterval = dur
		}

		// Check if UDP is customized
		if cfg.Tracing.UDPHost != "" {
			jcfg.Reporter.LocalAgentHostPort = cfg.Tracing.UDPHost
		}

		// Add fixed tags
		for k, v := range cfg.Tracing.FixedTags {
			jcfg.Tags = append(jcfg.Tags, opentracing.Tag{Key: k, Value: v})
		}
	}

	// Initialize tracer with a logger and a metrics factory
	tracer, closer, err := jcfg.NewTracer(
		jaegercfg.Logger(s.logger.GetTracingLogger()),
		jaegercfg.Metrics(s.metricsFactory),
	)
	// Check error
	if err != nil {
		return errors.WithStack(err)
	}
	// Set the singleton opentracing.Tracer with the Jaeger tracer.
	opentracing.SetGlobalTracer(tracer)

	s.closer = closer
	s.tracer = tracer

	return nil
}

func newService(cfgManager config.Manager, logger log.Logger) (*service, error) {
	svc := &service{
		cfgManager: cfgManager,
		logger:     logger,
		// Create prometheus metrics factory
		metricsFactory: jaegerprom.New(),
	}

	// Run setup
	err := svc.setup()
	if err != nil {
		return nil, err
	}

	return svc, nil
}
