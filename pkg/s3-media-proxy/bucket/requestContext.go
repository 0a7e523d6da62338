package bucket

import (
	"context"
	"net/http"
	"strings"

	"emperror.dev/errors"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/cache"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/log"
	responsehandler "github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/response-handler"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/router"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/s3client"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/webhook"
)

// ErrNoObjectKey is returned when a request path doesn't name an object.
var ErrNoObjectKey = errors.Sentinel("request path doesn't name an object")

// ErrLengthRequired is returned when a write doesn't declare its length.
var ErrLengthRequired = errors.Sentinel("content length is required")

// requestContext Bucket request context.
type requestContext struct {
	s3ClientManager s3client.Manager
	cacheSvc        cache.Service
	webhookManager  webhook.Manager
	bucketCfg       *config.BucketConfig
	endpointCfg     *config.EndpointConfig
	match           *router.Match
	requestPath     string
}

func (rctx *requestContext) Get(ctx context.Context, input *GetInput) {
	// Get response handler
	resHan := responsehandler.GetResponseHandlerFromContext(ctx)

	// Get object client
	s3cl, key, err := rctx.prepare()
	// Check error
	if err != nil {
		HandleError(ctx, resHan, err)

		return
	}

	// Create cache request
	creq := &cache.Request{
		Key:    cache.Key{Bucket: rctx.bucketCfg.Ref, Object: key},
		Method: input.Method,
		Header: input.Header,
		Bypass: rctx.endpointCfg.IsCacheExcluded(key),
	}

	// Get object through cache
	res, err := rctx.cacheSvc.Get(ctx, creq, fetcher(s3cl, key))
	// Check error
	if err != nil {
		HandleError(ctx, resHan, err)

		return
	}

	// Stream
	err = resHan.StreamObject(&responsehandler.StreamInput{
		Body:          res.Body,
		Header:        res.Header,
		CacheStatus:   res.CacheStatus,
		StatusCode:    res.StatusCode,
		ContentLength: res.ContentLength,
	})
	// Check error
	if err != nil {
		// Headers are already sent
		getLogger(ctx).WithError(err).Warnf("object %s streaming interrupted", key)
	}
}

func (rctx *requestContext) Put(ctx context.Context, input *PutInput) {
	// Get response handler
	resHan := responsehandler.GetResponseHandlerFromContext(ctx)

	// Get object client
	s3cl, key, err := rctx.prepare()
	// Check error
	if err != nil {
		HandleError(ctx, resHan, err)

		return
	}

	// Check length
	if input.ContentLength < 0 {
		HandleError(ctx, resHan, errors.WithStack(ErrLengthRequired))

		return
	}

	// Put object
	_, err = s3cl.PutObject(ctx, &s3client.PutInput{
		Body:          input.Body,
		Header:        input.Header,
		Key:           key,
		ContentLength: input.ContentLength,
	})
	// Check error
	if err != nil {
		HandleError(ctx, resHan, err)

		return
	}

	// Drop cached version
	rctx.invalidate(ctx, key)

	// Run webhooks
	rctx.webhookManager.ManagePUTHooks(
		ctx,
		rctx.requestPath,
		&webhook.PutInputMetadata{
			ContentType: input.Header.Get("Content-Type"),
			ContentSize: input.ContentLength,
		},
		rctx.s3Metadata(key),
	)

	resHan.NoContent()
}

func (rctx *requestContext) Delete(ctx context.Context) {
	// Get response handler
	resHan := responsehandler.GetResponseHandlerFromContext(ctx)

	// Get object client
	s3cl, key, err := rctx.prepare()
	// Check error
	if err != nil {
		HandleError(ctx, resHan, err)

		return
	}

	// Delete object
	err = s3cl.DeleteObject(ctx, key)
	// Check error
	if err != nil {
		HandleError(ctx, resHan, err)

		return
	}

	// Drop cached version
	rctx.invalidate(ctx, key)

	// Run webhooks
	rctx.webhookManager.ManageDELETEHooks(ctx, rctx.requestPath, rctx.s3Metadata(key))

	resHan.NoContent()
}

// prepare returns the object storage client and the object key.
func (rctx *requestContext) prepare() (s3client.Client, string, error) {
	key := rctx.match.S3Key()
	// Check that an object is named
	if rctx.match.Remainder == "" || strings.HasSuffix(key, "/") {
		return nil, "", errors.WithStack(ErrNoObjectKey)
	}

	// Get client
	s3cl := rctx.s3ClientManager.GetClient(rctx.bucketCfg.Ref)
	// Check client exists
	if s3cl == nil {
		return nil, "", errors.Errorf("no object storage client loaded for bucket %s", rctx.bucketCfg.Ref)
	}

	return s3cl, key, nil
}

func (rctx *requestContext) invalidate(ctx context.Context, key string) {
	err := rctx.cacheSvc.Invalidate(ctx, cache.Key{Bucket: rctx.bucketCfg.Ref, Object: key})
	// Write is done, only log
	if err != nil {
		getLogger(ctx).WithError(err).Warnf("cannot invalidate cache entry for %s", key)
	}
}

func (rctx *requestContext) s3Metadata(key string) *webhook.S3Metadata {
	return &webhook.S3Metadata{
		BucketRef:  rctx.bucketCfg.Ref,
		Bucket:     rctx.bucketCfg.Name,
		Region:     rctx.bucketCfg.Region,
		S3Endpoint: rctx.bucketCfg.S3Endpoint,
		Key:        key,
	}
}

// fetcher reads objects for the cache layer.
func fetcher(s3cl s3client.Client, key string) cache.Fetcher {
	return func(ctx context.Context, method string, header http.Header) (*s3client.GetOutput, error) {
		input := &s3client.GetInput{Key: key, Header: header}
		// Check method
		if method == http.MethodHead {
			return s3cl.HeadObject(ctx, input)
		}

		return s3cl.GetObject(ctx, input)
	}
}

func getLogger(ctx context.Context) log.Logger {
	logger := log.GetLoggerFromContext(ctx)
	if logger == nil {
		return log.NewLogger()
	}

	return logger
}
