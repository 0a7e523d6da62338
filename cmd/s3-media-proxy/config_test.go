//go:build unit

package main

import (
	"bytes"
	"testing"

	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_printConfiguration(t *testing.T) {
	cfg := &config.Config{
		Buckets: map[string]*config.BucketConfig{
			"media": {
				Name:   "my-bucket",
				Region: "fr-par",
				Credentials: &config.BucketCredentialConfig{
					AccessKey: &config.CredentialConfig{Value: "AKIAEXAMPLE"},
					SecretKey: &config.CredentialConfig{Value: "super-secret"},
				},
			},
			"anonymous": {
				Name:       "public",
				Region:     "us-east-1",
				S3Endpoint: "http://localhost:9000/",
			},
		},
	}
	endpoints := []*config.EndpointConfig{
		{Path: "/media/", BucketPath: "/my-app/media/", Bucket: "media", Methods: []string{"HEAD", "GET"}},
		{Path: "/", BucketPath: "/", Bucket: "anonymous", Methods: []string{"HEAD", "GET", "PUT"}, Protected: true},
	}

	buf := &bytes.Buffer{}
	err := printConfiguration(buf, cfg, endpoints)
	require.NoError(t, err)

	assert.Equal(t, `endpoints:
  - path: /media/
    bucketPath: /my-app/media/
    bucket: media
    methods:
      - HEAD
      - GET
    protected: false
  - path: /
    bucketPath: /
    bucket: anonymous
    methods:
      - HEAD
      - GET
      - PUT
    protected: true
buckets:
  - ref: anonymous
    name: public
    region: us-east-1
    endpoint: http://localhost:9000
  - ref: media
    name: my-bucket
    region: fr-par
    endpoint: https://s3.fr-par.amazonaws.com
    accessKey: REDACTED
    secretKey: REDACTED
`, buf.String())
	assert.NotContains(t, buf.String(), "super-secret")
}

func Test_defaultConfigFolder(t *testing.T) {
	t.Setenv(ConfigFolderEnv, "")
	assert.Equal(t, "conf/", defaultConfigFolder())

	t.Setenv(ConfigFolderEnv, "/etc/s3-media-proxy/")
	assert.Equal(t, "/etc/s3-media-proxy/", defaultConfigFolder())
}
