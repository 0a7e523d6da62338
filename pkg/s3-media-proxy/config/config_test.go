//go:build unit

package config

import (
	"testing"

	"github.com/gobwas/glob"
	"github.com/stretchr/testify/assert"

	"emperror.dev/errors"
)

func TestBucketConfig_GetEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		bucket *BucketConfig
		want   string
	}{
		{
			name:   "derived from region",
			bucket: &BucketConfig{Region: "eu-west-1"},
			want:   "https://s3.eu-west-1.amazonaws.com",
		},
		{
			name:   "custom endpoint",
			bucket: &BucketConfig{Region: "fr-par", S3Endpoint: "https://s3.fr-par.scw.cloud/"},
			want:   "https://s3.fr-par.scw.cloud",
		},
		{
			name:   "ssl disabled",
			bucket: &BucketConfig{Region: "us-east-1", DisableSSL: true},
			want:   "http://s3.us-east-1.amazonaws.com",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.bucket.GetEndpoint())
		})
	}
}

func TestEndpointConfig_IsCacheExcluded(t *testing.T) {
	ecfg := &EndpointConfig{
		Cache: &EndpointCacheConfig{
			ExcludeGlobs: []glob.Glob{glob.MustCompile("my-app/live/*.m3u8", '/')},
		},
	}

	assert.True(t, ecfg.IsCacheExcluded("my-app/live/index.m3u8"))
	assert.False(t, ecfg.IsCacheExcluded("my-app/live/sub/index.m3u8"))
	assert.False(t, ecfg.IsCacheExcluded("my-app/media/logo.png"))

	ecfg.Cache.Disabled = true
	assert.True(t, ecfg.IsCacheExcluded("my-app/media/logo.png"))

	assert.False(t, (&EndpointConfig{}).IsCacheExcluded("x"))
}

func TestEndpointConfig_AllowsMethod(t *testing.T) {
	ecfg := &EndpointConfig{Methods: []string{"GET", "HEAD"}}

	assert.True(t, ecfg.AllowsMethod("GET"))
	assert.False(t, ecfg.AllowsMethod("PUT"))
}

func TestWebhookConfig_HasWebhookFor(t *testing.T) {
	assert.True(t, (&WebhookConfig{}).HasWebhookFor("PUT"))
	assert.True(t, (&WebhookConfig{Actions: []string{"DELETE"}}).HasWebhookFor("DELETE"))
	assert.False(t, (&WebhookConfig{Actions: []string{"DELETE"}}).HasWebhookFor("PUT"))
}

func TestInvalidError(t *testing.T) {
	base := errors.New("boom")
	err := newInvalidError(base)

	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, err, base)
	assert.EqualError(t, err, "invalid configuration: boom")
}
