package tracing

import (
	"net/http"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/log"
)

// Service interface.
type Service interface {
	// Reload service (useful for configuration change)
	Reload() error
	// Get global tracer object
	GetTracer() opentracing.Tracer
	// Close will flush and close the tracer
	Close() error
}

// Trace object interface.
type Trace interface {
	// Set tag on trace
	SetTag(key string, value interface{})
	// Get child trace with an operation name
	GetChildTrace(operationName string) Trace
	// Will finish the trace
	Finish()
	// Get trace id as a string (useful for logs)
	GetTraceID() string
	// Inject trace in http headers to propagate it
	InjectInHTTPHeader(header http.Header) error
}

func New(cfgManager config.Manager, logger log.Logger) (Service, error) {
	return newService(cfgManager, logger)
}
