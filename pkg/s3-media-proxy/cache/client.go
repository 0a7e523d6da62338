package cache

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/log"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/metrics"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/s3client"
)

// Cache statuses, sent in the X-Cache response header.
const (
	StatusHit         = "HIT"
	StatusMiss        = "MISS"
	StatusRevalidated = "REVALIDATED"
	StatusBypass      = "BYPASS"
)

// Service is the read cache placed in front of the object storage.
//
//go:generate mockgen -destination=./mocks/mock_Service.go -package=mocks github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/cache Service
type Service interface {
	// Initialize cache.
	Initialize() error
	// Reload will reload configuration and cache.
	Reload() error
	// Get answers a GET or HEAD request from cache, filling it through fetch when needed.
	Get(ctx context.Context, req *Request, fetch Fetcher) (*Result, error)
	// Invalidate removes an entry and prevents in-flight fills from storing it.
	Invalidate(ctx context.Context, key Key) error
}

// Fetcher reads an object from the object storage.
type Fetcher func(ctx context.Context, method string, header http.Header) (*s3client.GetOutput, error)

// Key identifies a cached object.
type Key struct {
	// Bucket is the bucket reference from configuration.
	Bucket string
	// Object is the S3 key.
	Object string
}

func (k Key) String() string {
	return k.Bucket + "/" + k.Object
}

// Request is a read request.
type Request struct {
	// Header holds client headers.
	Header http.Header
	Key    Key
	// Method is GET or HEAD.
	Method string
	// Bypass forces a direct fetch.
	Bypass bool
}

// Result is the answer to send to client.
type Result struct {
	// Body is nil for HEAD and not modified answers.
	Body          io.ReadCloser
	Header        http.Header
	CacheStatus   string
	StatusCode    int
	ContentLength int64
}

// Entry is a cached object.
type Entry struct {
	FreshUntil    time.Time
	LastValidated time.Time
	Header        http.Header
	ETag          string
	LastModified  string
	Body          []byte
	// Uncacheable marks objects that must bypass the cache until FreshUntil.
	Uncacheable bool
}

func NewService(cfgManager config.Manager, metricsCl metrics.Client, logger log.Logger) Service {
	return &service{
		cfgManager: cfgManager,
		metricsCl:  metricsCl,
		logger:     logger,
		clock:      time.Now,
	}
}
