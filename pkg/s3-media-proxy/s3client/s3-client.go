package s3client

import (
	"context"
	"encoding/xml"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/go-resty/resty/v2"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/log"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/metrics"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/tracing"
)

// Maximum size of an error document read from the object storage.
const maxErrorBodySize = 64 * 1024

const contentLengthHeader = "Content-Length"

const defaultContentType = "application/octet-stream"

type s3Context struct {
	restyClient *resty.Client
	transport   *http.Transport
	credentials aws.CredentialsProvider
	bucket      *config.BucketConfig
	metricsCl   metrics.Client
	clock       func() time.Time
}

type s3ErrorDocument struct {
	XMLName xml.Name `xml:"Error"`
	Code    string   `xml:"Code"`
}

func newS3Context(
	bcfg *config.BucketConfig,
	ucfg *config.UpstreamConfig,
	metricsCl metrics.Client,
	logger log.Logger,
) *s3Context {
	// Create transport
	// Upstream timeout covers dial and response headers, body streaming is bounded by the request context
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   ucfg.Timeout,
			KeepAlive: 30 * time.Second, //nolint: gomnd // Same as http.DefaultTransport
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100, //nolint: gomnd // Same as http.DefaultTransport
		MaxIdleConnsPerHost:   32,  //nolint: gomnd // Proxy keeps many connections to the same host
		IdleConnTimeout:       90 * time.Second, //nolint: gomnd // Same as http.DefaultTransport
		TLSHandshakeTimeout:   ucfg.Timeout,
		ResponseHeaderTimeout: ucfg.Timeout,
		ExpectContinueTimeout: time.Second,
		DisableCompression:    true,
	}

	s3ctx := &s3Context{
		transport:   transport,
		credentials: aws.AnonymousCredentials{},
		bucket:      bcfg,
		metricsCl:   metricsCl,
		clock:       time.Now,
	}

	// Load credentials if they exists
	if bcfg.Credentials != nil && bcfg.Credentials.AccessKey != nil && bcfg.Credentials.SecretKey != nil {
		s3ctx.credentials = credentials.NewStaticCredentialsProvider(
			bcfg.Credentials.AccessKey.Value,
			bcfg.Credentials.SecretKey.Value,
			"",
		)
	}

	// Create resty client
	rcl := resty.New().
		SetTransport(transport).
		SetLogger(logger.GetUpstreamLogger()).
		SetRetryCount(ucfg.RetryCount).
		AddRetryCondition(isRetryable).
		SetPreRequestHook(s3ctx.prepareRequest)

	// Resty jitter needs a positive wait time
	if ucfg.RetryWaitTime > 0 {
		rcl.SetRetryWaitTime(ucfg.RetryWaitTime)
	}

	if ucfg.RetryMaxWaitTime > 0 {
		rcl.SetRetryMaxWaitTime(ucfg.RetryMaxWaitTime)
	}

	s3ctx.restyClient = rcl

	return s3ctx
}

// isRetryable allows retries only for idempotent methods on transport errors.
func isRetryable(r *resty.Response, err error) bool {
	// Check error
	if err == nil || r == nil || r.Request == nil {
		return false
	}

	return r.Request.Method == http.MethodGet || r.Request.Method == http.MethodHead
}

// prepareRequest is called on each attempt, just before sending.
func (s3ctx *s3Context) prepareRequest(_ *resty.Client, req *http.Request) error {
	// Streamed bodies need an explicit length or they are sent chunked
	if cl := req.Header.Get(contentLengthHeader); cl != "" {
		n, err := strconv.ParseInt(cl, 10, 64)
		// Check error
		if err != nil {
			return errors.WithStack(err)
		}

		req.ContentLength = n
		req.Header.Del(contentLengthHeader)
	}

	// Anonymous buckets aren't signed
	if _, ok := s3ctx.credentials.(aws.AnonymousCredentials); ok {
		return nil
	}

	// Get credentials
	creds, err := s3ctx.credentials.Retrieve(req.Context())
	// Check error
	if err != nil {
		return errors.WithStack(err)
	}

	payloadHash := EmptyPayloadHash
	if req.Method == http.MethodPut {
		payloadHash = UnsignedPayload
	}

	return Sign(req, creds, s3ctx.bucket.Region, payloadHash, s3ctx.clock().UTC())
}

func (s3ctx *s3Context) objectURL(key string) string {
	endpoint := s3ctx.bucket.GetEndpoint()

	// Virtual host style
	if s3ctx.bucket.VirtualHostStyle {
		// Split scheme
		idx := strings.Index(endpoint, "://")
		if idx != -1 {
			return endpoint[:idx+3] + s3ctx.bucket.Name + "." + endpoint[idx+3:] + "/" + EscapePath(key)
		}
	}

	return endpoint + "/" + EscapePath(s3ctx.bucket.Name) + "/" + EscapePath(key)
}

func (s3ctx *s3Context) startTrace(ctx context.Context, operation, key string) tracing.Trace {
	childTrace := tracing.StartChildTrace(ctx, "s3-bucket."+operation+"-request")
	childTrace.SetTag("s3-bucket.bucket-name", s3ctx.bucket.Name)
	childTrace.SetTag("s3-bucket.bucket-region", s3ctx.bucket.Region)
	childTrace.SetTag("s3-bucket.bucket-s3-endpoint", s3ctx.bucket.S3Endpoint)
	childTrace.SetTag("s3-bucket.key", key)
	childTrace.SetTag("s3-media-proxy.bucket-ref", s3ctx.bucket.Ref)

	return childTrace
}

func (s3ctx *s3Context) GetObject(ctx context.Context, input *GetInput) (*GetOutput, error) {
	return s3ctx.read(ctx, http.MethodGet, GetObjectOperation, input)
}

func (s3ctx *s3Context) HeadObject(ctx context.Context, input *GetInput) (*GetOutput, error) {
	return s3ctx.read(ctx, http.MethodHead, HeadObjectOperation, input)
}

func (s3ctx *s3Context) read(ctx context.Context, method, operation string, input *GetInput) (*GetOutput, error) {
	// Create child trace
	childTrace := s3ctx.startTrace(ctx, operation, input.Key)
	defer childTrace.Finish()

	// Build request
	req := s3ctx.restyClient.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)

	// Forward conditional and range headers
	for k, v := range filterReadRequestHeader(input.Header) {
		req.Header[k] = v
	}

	// Execute
	res, err := req.Execute(method, s3ctx.objectURL(input.Key))
	// Metrics
	s3ctx.metricsCl.IncS3Operations(s3ctx.bucket.Ref, s3ctx.bucket.Name, operation)
	// Check error
	if err != nil {
		return nil, s3ctx.manageTransportError(ctx, operation, err)
	}

	rawRes := res.RawResponse
	childTrace.SetTag("http.status_code", rawRes.StatusCode)

	// Manage status
	switch rawRes.StatusCode {
	case http.StatusOK, http.StatusPartialContent, http.StatusNotModified:
	default:
		return nil, s3ctx.manageRejection(operation, rawRes)
	}

	out := &GetOutput{
		Header:        FilterResponseHeader(rawRes.Header),
		StatusCode:    rawRes.StatusCode,
		ContentLength: rawRes.ContentLength,
	}

	// Only GET success answers have a body
	if method == http.MethodGet && rawRes.StatusCode != http.StatusNotModified {
		out.Body = rawRes.Body
	} else {
		_ = rawRes.Body.Close()
	}

	// HEAD answers keep the object length in header only
	if method == http.MethodHead {
		out.ContentLength = parseContentLength(rawRes.Header)
	}

	return out, nil
}

func (s3ctx *s3Context) PutObject(ctx context.Context, input *PutInput) (*PutOutput, error) {
	// Create child trace
	childTrace := s3ctx.startTrace(ctx, PutObjectOperation, input.Key)
	defer childTrace.Finish()

	body := input.Body
	// Empty body
	if input.ContentLength == 0 || body == nil {
		body = http.NoBody
	}

	// Build request
	req := s3ctx.restyClient.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetBody(body)

	// Forward content headers and user metadata
	for k, v := range filterWriteRequestHeader(input.Header) {
		req.Header[k] = v
	}

	// Avoid content type detection on streamed bodies
	if req.Header.Get("Content-Type") == "" {
		req.SetHeader("Content-Type", defaultContentType)
	}

	// Length is moved to the raw request before sending
	req.SetHeader(contentLengthHeader, strconv.FormatInt(input.ContentLength, 10))

	// Execute
	res, err := req.Put(s3ctx.objectURL(input.Key))
	// Metrics
	s3ctx.metricsCl.IncS3Operations(s3ctx.bucket.Ref, s3ctx.bucket.Name, PutObjectOperation)
	// Check error
	if err != nil {
		return nil, s3ctx.manageTransportError(ctx, PutObjectOperation, err)
	}

	rawRes := res.RawResponse
	childTrace.SetTag("http.status_code", rawRes.StatusCode)

	// Check status
	if rawRes.StatusCode != http.StatusOK {
		return nil, s3ctx.manageRejection(PutObjectOperation, rawRes)
	}

	// Drain body
	_, _ = io.Copy(io.Discard, io.LimitReader(rawRes.Body, maxErrorBodySize))
	_ = rawRes.Body.Close()

	return &PutOutput{
		Header:     FilterResponseHeader(rawRes.Header),
		StatusCode: rawRes.StatusCode,
	}, nil
}

func (s3ctx *s3Context) DeleteObject(ctx context.Context, key string) error {
	// Create child trace
	childTrace := s3ctx.startTrace(ctx, DeleteObjectOperation, key)
	defer childTrace.Finish()

	// Execute
	res, err := s3ctx.restyClient.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Delete(s3ctx.objectURL(key))
	// Metrics
	s3ctx.metricsCl.IncS3Operations(s3ctx.bucket.Ref, s3ctx.bucket.Name, DeleteObjectOperation)
	// Check error
	if err != nil {
		return s3ctx.manageTransportError(ctx, DeleteObjectOperation, err)
	}

	rawRes := res.RawResponse
	childTrace.SetTag("http.status_code", rawRes.StatusCode)

	// Check status
	if rawRes.StatusCode != http.StatusNoContent && rawRes.StatusCode != http.StatusOK {
		return s3ctx.manageRejection(DeleteObjectOperation, rawRes)
	}

	_ = rawRes.Body.Close()

	return nil
}

func (s3ctx *s3Context) manageTransportError(ctx context.Context, operation string, err error) error {
	// Client went away
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return errors.WithStack(ctx.Err())
	}

	// Check timeout
	timeout := errors.Is(err, context.DeadlineExceeded)

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		timeout = true
	}

	return errors.WithStack(NewUnavailableError(operation, timeout, err))
}

func (s3ctx *s3Context) manageRejection(operation string, res *http.Response) error {
	// Ensure body is closed
	defer res.Body.Close()

	rerr := &RejectedError{
		Operation:  operation,
		StatusCode: res.StatusCode,
	}

	// Try to read S3 error code, body is never sent back to clients
	doc := &s3ErrorDocument{}

	err := xml.NewDecoder(io.LimitReader(res.Body, maxErrorBodySize)).Decode(doc)
	if err == nil {
		rerr.Code = doc.Code
	}

	return errors.WithStack(rerr)
}

func (s3ctx *s3Context) close() {
	s3ctx.transport.CloseIdleConnections()
}

func parseContentLength(h http.Header) int64 {
	v := h.Get(contentLengthHeader)
	// Check empty
	if v == "" {
		return -1
	}

	n, err := strconv.ParseInt(v, 10, 64)
	// Check error
	if err != nil {
		return -1
	}

	return n
}
