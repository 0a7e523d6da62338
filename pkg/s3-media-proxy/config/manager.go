package config

import "github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/log"

// Manager loads and serves the configuration.
//
//go:generate mockgen -destination=./mocks/mock_Manager.go -package=mocks github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config Manager
type Manager interface {
	// Load configuration from every file of the folder.
	Load(folder string) error
	// AddOnChangeHook registers a hook called after a successful reload.
	AddOnChangeHook(hook func())
	// GetConfig returns the current configuration.
	// The returned object must be considered read only.
	GetConfig() *Config
}

func NewManager(logger log.Logger) Manager {
	return &managercontext{logger: logger}
}
