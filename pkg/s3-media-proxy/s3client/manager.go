package s3client

import (
	"sync/atomic"

	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/log"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/metrics"
	"github.com/thoas/go-funk"
)

type manager struct {
	bucketClients atomic.Pointer[map[string]*s3Context]
	cfgManager    config.Manager
	metricCl      metrics.Client
	logger        log.Logger
}

// NewManager creates a manager, Load must be called before use.
func NewManager(cfgManager config.Manager, metricCl metrics.Client, logger log.Logger) Manager {
	return &manager{
		cfgManager: cfgManager,
		metricCl:   metricCl,
		logger:     logger,
	}
}

func (m *manager) GetClient(bucketRef string) Client {
	clients := m.bucketClients.Load()
	// Check if loaded
	if clients == nil {
		return nil
	}

	cl, ok := (*clients)[bucketRef]
	if !ok {
		return nil
	}

	return cl
}

func (m *manager) Load() error {
	// Get configuration
	cfg := m.cfgManager.GetConfig()

	// Create new clients
	newClients := make(map[string]*s3Context, len(cfg.Buckets))
	// Store bucket keys
	bucketKeys := make([]string, 0, len(cfg.Buckets))

	// Loop over all buckets
	for key, bcfg := range cfg.Buckets {
		// Store key
		bucketKeys = append(bucketKeys, key)
		// Create and store client
		newClients[key] = newS3Context(bcfg, cfg.Upstream, m.metricCl, m.logger)
	}

	// Swap
	old := m.bucketClients.Swap(&newClients)
	// Check if it is the first load
	if old == nil {
		return nil
	}

	// Get all keys from previous clients
	actualKeysInt := funk.Keys(*old)
	// Check if result exists or not
	if actualKeysInt != nil {
		// Cast it to string array
		actualKeys, _ := actualKeysInt.([]string)
		// Get difference between those 2 array
		subtract := funk.SubtractString(actualKeys, bucketKeys)
		// Loop over subtract keys
		for _, key := range subtract {
			m.logger.Infof("bucket %s removed from configuration", key)
		}
	}

	// Release idle connections of previous clients
	for _, cl := range *old {
		cl.close()
	}

	return nil
}
