package webhook

import (
	"context"

	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/log"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/metrics"
)

// PutInputMetadata Put input metadata.
type PutInputMetadata struct {
	ContentType string
	ContentSize int64
}

// S3Metadata S3 Metadata.
type S3Metadata struct {
	// BucketRef is the bucket reference in configuration.
	BucketRef  string
	Bucket     string
	Region     string
	S3Endpoint string
	Key        string
}

// Manager client manager.
//
//go:generate mockgen -destination=./mocks/mock_Manager.go -package=mocks github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/webhook Manager
type Manager interface {
	// ManagePUTHooks will manage PUT hooks.
	ManagePUTHooks(ctx context.Context, requestPath string, inputMetadata *PutInputMetadata, s3Metadata *S3Metadata)
	// ManageDELETEHooks will manage DELETE hooks.
	ManageDELETEHooks(ctx context.Context, requestPath string, s3Metadata *S3Metadata)
	// Load will load all webhooks clients.
	Load() error
}

func NewManager(cfgManager config.Manager, metricsSvc metrics.Client, logger log.Logger) Manager {
	return &manager{
		cfgManager: cfgManager,
		metricsSvc: metricsSvc,
		logger:     logger,
		clock:      timeNow,
		newEventID: newUUID,
	}
}
