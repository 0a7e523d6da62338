package bucket

import (
	"context"
	"io"
	"net/http"

	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/cache"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/router"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/s3client"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/webhook"
)

// Client represents a client in order to GET, HEAD, PUT or DELETE an object resolved from a request path.
// Answers are written with the response handler stored in context.
type Client interface {
	// Get will answer GET and HEAD requests.
	Get(ctx context.Context, input *GetInput)
	// Put will stream the body to the object storage.
	Put(ctx context.Context, input *PutInput)
	// Delete will delete the object.
	Delete(ctx context.Context)
}

// GetInput represents Get input.
type GetInput struct {
	Header http.Header
	Method string
}

// PutInput represents Put input.
type PutInput struct {
	Body   io.Reader
	Header http.Header
	// ContentLength is -1 when unknown.
	ContentLength int64
}

// NewClient will generate a new client for a resolved request.
// nolint:whitespace
func NewClient(
	bucketCfg *config.BucketConfig,
	endpointCfg *config.EndpointConfig,
	match *router.Match,
	requestPath string,
	s3clientManager s3client.Manager,
	cacheSvc cache.Service,
	webhookManager webhook.Manager,
) Client {
	return &requestContext{
		bucketCfg:       bucketCfg,
		endpointCfg:     endpointCfg,
		match:           match,
		requestPath:     requestPath,
		s3ClientManager: s3clientManager,
		cacheSvc:        cacheSvc,
		webhookManager:  webhookManager,
	}
}
