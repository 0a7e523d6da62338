package s3client

import (
	"context"
	"io"
	"net/http"
)

// Client is an object storage client bound to one bucket.
//
//go:generate mockgen -destination=./mocks/mock_Client.go -package=mocks github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/s3client Client
type Client interface {
	// GetObject will get an object. A not modified answer is not an error,
	// the output status code is 304 and body is nil.
	GetObject(ctx context.Context, input *GetInput) (*GetOutput, error)
	// HeadObject will get object headers.
	HeadObject(ctx context.Context, input *GetInput) (*GetOutput, error)
	// PutObject will stream the body to the object storage.
	PutObject(ctx context.Context, input *PutInput) (*PutOutput, error)
	// DeleteObject will delete an object.
	DeleteObject(ctx context.Context, key string) error
}

// Manager manages one client per declared bucket.
//
//go:generate mockgen -destination=./mocks/mock_Manager.go -package=mocks github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/s3client Manager
type Manager interface {
	// GetClient returns the client for the bucket reference or nil.
	GetClient(bucketRef string) Client
	// Load will (re)build clients from configuration.
	Load() error
}

// GetObjectOperation Get object operation.
const GetObjectOperation = "get-object"

// HeadObjectOperation Head object operation.
const HeadObjectOperation = "head-object"

// PutObjectOperation Put object operation.
const PutObjectOperation = "put-object"

// DeleteObjectOperation Delete object operation.
const DeleteObjectOperation = "delete-object"

// GetInput represents a read request.
type GetInput struct {
	// Header holds client headers, only conditional and range headers are forwarded.
	Header http.Header
	// Key is the S3 key without leading slash.
	Key string
}

// GetOutput represents a read response.
type GetOutput struct {
	// Body is nil for HEAD and not modified answers.
	Body io.ReadCloser
	// Header holds filtered content and validator headers.
	Header        http.Header
	StatusCode    int
	ContentLength int64
}

// PutInput represents an upload.
type PutInput struct {
	Body io.Reader
	// Header holds client headers, only content and metadata headers are forwarded.
	Header        http.Header
	Key           string
	ContentLength int64
}

// PutOutput represents an upload result.
type PutOutput struct {
	Header     http.Header
	StatusCode int
}
