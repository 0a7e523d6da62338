//go:build unit

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Buckets: map[string]*BucketConfig{
			"media": {Ref: "media", Name: "bucket1", Region: "us-east-1"},
		},
		Endpoints: []*EndpointConfig{
			{Path: "/media/", BucketPath: "/my-app/media/", Bucket: "media", Methods: []string{"GET", "HEAD"}},
		},
	}
}

func Test_validateBusinessConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "path without leading slash",
			mutate:  func(cfg *Config) { cfg.Endpoints[0].Path = "media/" },
			wantErr: "endpoint 0 path must starts with /",
		},
		{
			name:    "bucket path with relative segment",
			mutate:  func(cfg *Config) { cfg.Endpoints[0].BucketPath = "/a/../b/" },
			wantErr: "endpoint 0 bucket path must not contain relative segments",
		},
		{
			name: "duplicate paths",
			mutate: func(cfg *Config) {
				cfg.Endpoints = append(cfg.Endpoints, &EndpointConfig{Path: "/media", Bucket: "media", Methods: []string{"GET"}})
			},
			wantErr: "endpoint 1 has the same path as endpoint 0",
		},
		{
			name:    "unknown bucket",
			mutate:  func(cfg *Config) { cfg.Endpoints[0].Bucket = "other" },
			wantErr: "endpoint 0 references bucket other which isn't declared",
		},
		{
			name:    "protected without tokens",
			mutate:  func(cfg *Config) { cfg.Endpoints[0].Protected = true },
			wantErr: "endpoint 0 is protected but tokens configuration with secret is missing",
		},
		{
			name:    "unsupported method",
			mutate:  func(cfg *Config) { cfg.Endpoints[0].Methods = []string{"POST"} },
			wantErr: "endpoint 0 must have HTTP methods in GET, HEAD, PUT or DELETE",
		},
		{
			name: "short token secret",
			mutate: func(cfg *Config) {
				cfg.Tokens = &TokensConfig{Secret: &CredentialConfig{Value: "short"}}
			},
			wantErr: "tokens secret must be at least 32 bytes long",
		},
		{
			name: "empty bucket credentials",
			mutate: func(cfg *Config) {
				cfg.Buckets["media"].Credentials = &BucketCredentialConfig{
					AccessKey: &CredentialConfig{Value: "ak"},
					SecretKey: &CredentialConfig{Path: "/fake"},
				}
			},
			wantErr: "bucket media credentials are declared but empty",
		},
		{
			name: "cache entry bigger than cache",
			mutate: func(cfg *Config) {
				cfg.Cache = &CacheConfig{Enabled: true, Size: 10, MaxEntrySize: 20}
			},
			wantErr: "cache max entry size must be positive and lower than cache size",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validateBusinessConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)

				return
			}

			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
