//go:build integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/log"
)

const minimalConfig = `
buckets:
  media:
    name: bucket1
endpoints:
  - path: /media/
    bucketPath: /my-app/media/
    bucket: media
`

func Test_managercontext_Load(t *testing.T) {
	tests := []struct {
		name         string
		configs      map[string]string
		envVariables map[string]string
		secretFiles  map[string]string
		wantErr      bool
		check        func(t *testing.T, cfg *Config)
	}{
		{
			name:    "Not a yaml",
			configs: map[string]string{"config.yaml": "notayaml"},
			wantErr: true,
		},
		{
			name:    "Empty",
			configs: map[string]string{"config.yaml": ""},
			wantErr: true,
		},
		{
			name:    "Unknown bucket reference",
			configs: map[string]string{"config.yaml": "buckets:\n  a:\n    name: b\nendpoints:\n  - path: /x/\n    bucket: other\n"},
			wantErr: true,
		},
		{
			name:    "Protected endpoint without token secret",
			configs: map[string]string{"config.yaml": "buckets:\n  a:\n    name: b\nendpoints:\n  - path: /x/\n    bucket: a\n    protected: true\n"},
			wantErr: true,
		},
		{
			name:    "Minimal config with default values",
			configs: map[string]string{"config.yaml": minimalConfig},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, &LogConfig{Level: "info", Format: "json"}, cfg.Log)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 9090, cfg.InternalServer.Port)
				assert.Equal(t, 30*time.Second, cfg.Upstream.Timeout)
				assert.Equal(t, 2, cfg.Upstream.RetryCount)
				assert.Nil(t, cfg.Tokens)
				assert.False(t, cfg.Cache.Enabled)
				assert.Equal(t, int64(64000000), cfg.Cache.Size)
				assert.Equal(t, "media", cfg.Buckets["media"].Ref)
				assert.Equal(t, "us-east-1", cfg.Buckets["media"].Region)
				assert.Nil(t, cfg.Buckets["media"].Credentials)
				assert.Equal(t, []string{"GET", "HEAD"}, cfg.Endpoints[0].Methods)
			},
		},
		{
			name: "Multiple files merged",
			configs: map[string]string{
				"buckets.yaml":   "buckets:\n  media:\n    name: bucket1\n    region: fr-par\n",
				"endpoints.yaml": "endpoints:\n  - path: /media/\n    bucket: media\n    methods: [GET, PUT]\n",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "fr-par", cfg.Buckets["media"].Region)
				assert.Equal(t, []string{"GET", "PUT", "HEAD"}, cfg.Endpoints[0].Methods)
			},
		},
		{
			name: "Secrets from environment variable",
			configs: map[string]string{"config.yaml": `
buckets:
  media:
    name: bucket1
    credentials:
      accessKey:
        env: S3MP_TEST_ENV1
        value: file-value
      secretKey:
        env: S3MP_TEST_ENV2
endpoints:
  - path: /media/
    bucket: media
`},
			envVariables: map[string]string{"S3MP_TEST_ENV1": "VALUE1", "S3MP_TEST_ENV2": "VALUE2"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "VALUE1", cfg.Buckets["media"].Credentials.AccessKey.Value)
				assert.Equal(t, "VALUE2", cfg.Buckets["media"].Credentials.SecretKey.Value)
			},
		},
		{
			name:         "Secrets from default environment variables",
			configs:      map[string]string{"config.yaml": minimalConfig},
			envVariables: map[string]string{DefaultAccessKeyEnv: "AK", DefaultSecretKeyEnv: "SK"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "AK", cfg.Buckets["media"].Credentials.AccessKey.Value)
				assert.Equal(t, "SK", cfg.Buckets["media"].Credentials.SecretKey.Value)
			},
		},
		{
			name: "Token secret from file",
			configs: map[string]string{"config.yaml": minimalConfig + `
tokens:
  secret:
    path: ` + filepath.Join(os.TempDir(), "s3mp-test-secrets", "token") + `
  clockSkew: 5s
`},
			secretFiles: map[string]string{
				filepath.Join(os.TempDir(), "s3mp-test-secrets", "token"): "0123456789abcdef0123456789abcdef\n",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0123456789abcdef0123456789abcdef", cfg.Tokens.Secret.Value)
				assert.Equal(t, 5*time.Second, cfg.Tokens.ClockSkew)
				assert.Equal(t, "token", cfg.Tokens.QueryParam)
			},
		},
		{
			name: "Token secret too short",
			configs: map[string]string{"config.yaml": minimalConfig + `
tokens:
  secret:
    value: short
`},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()

			for k, v := range tt.configs {
				require.NoError(t, os.WriteFile(filepath.Join(dir, k), []byte(v), 0o600))
			}

			// Set environment variables
			for k, v := range tt.envVariables {
				t.Setenv(k, v)
			}

			// Create secret files
			for k, v := range tt.secretFiles {
				require.NoError(t, os.MkdirAll(filepath.Dir(k), 0o700))
				require.NoError(t, os.WriteFile(k, []byte(v), 0o600))

				defer os.Remove(k)
			}

			ctx := &managercontext{logger: log.NewLogger()}

			// Load config
			err := ctx.Load(dir)
			if tt.wantErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalid)

				return
			}

			require.NoError(t, err)
			tt.check(t, ctx.GetConfig())
		})
	}
}

func Test_managercontext_Reload_KeepsPreviousOnInvalid(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(minimalConfig), 0o600))

	ctx := &managercontext{logger: log.NewLogger()}
	require.NoError(t, ctx.Load(dir))

	previous := ctx.GetConfig()

	hookCalled := false
	ctx.AddOnChangeHook(func() { hookCalled = true })

	// Write an invalid configuration
	require.NoError(t, os.WriteFile(cfgPath, []byte("buckets: {}\n"), 0o600))
	ctx.reload()

	assert.Same(t, previous, ctx.GetConfig())
	assert.False(t, hookCalled)
}
