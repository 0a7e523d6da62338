//go:build unit

package server

import (
	"testing"
	"time"

	"emperror.dev/errors"
	"github.com/golang/mock/gomock"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	cmocks "github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config/mocks"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/router"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func routesTestConfig() *config.Config {
	return &config.Config{
		Tokens: &config.TokensConfig{
			Secret:     &config.CredentialConfig{Value: "0123456789abcdef0123456789abcdef"},
			QueryParam: "token",
			Header:     "X-Access-Token",
			DefaultTTL: 15 * time.Minute,
			MaxTTL:     time.Hour,
		},
		Buckets: map[string]*config.BucketConfig{
			"media": {Ref: "media", Name: "bucket"},
		},
		Endpoints: []*config.EndpointConfig{
			{Path: "/", BucketPath: "/", Bucket: "media"},
			{Path: "/media/", BucketPath: "/my-app/media/", Bucket: "media"},
			{Path: "/media/thumbs/", BucketPath: "/thumbs/", Bucket: "media"},
		},
	}
}

func newTestRoutes(t *testing.T, cfgs ...*config.Config) *Routes {
	t.Helper()

	ctrl := gomock.NewController(t)
	cfgManagerMock := cmocks.NewMockManager(ctrl)

	for _, c := range cfgs {
		cfgManagerMock.EXPECT().GetConfig().Return(c)
	}

	r := NewRoutes(cfgManagerMock)
	r.clock = func() time.Time { return time.Unix(1700000000, 0) }

	return r
}

func TestRoutes_Load(t *testing.T) {
	r := newTestRoutes(t, routesTestConfig())
	require.NoError(t, r.Load())

	eps := r.Endpoints()
	require.Len(t, eps, 3)
	assert.Equal(t, "/media/thumbs/", eps[0].Path)
	assert.Equal(t, "/media/", eps[1].Path)
	assert.Equal(t, "/", eps[2].Path)

	m, err := r.Table().Resolve("/media/thumbs/a.png")
	require.NoError(t, err)
	assert.Equal(t, "thumbs/a.png", m.S3Key())

	m, err = r.Table().Resolve("/media/logo.png")
	require.NoError(t, err)
	assert.Equal(t, "my-app/media/logo.png", m.S3Key())

	m, err = r.Table().Resolve("/favicon.ico")
	require.NoError(t, err)
	assert.Equal(t, "favicon.ico", m.S3Key())
}

func TestRoutes_Load_KeepsPreviousOnError(t *testing.T) {
	broken := routesTestConfig()
	broken.Endpoints = append(broken.Endpoints, &config.EndpointConfig{Path: "/other/", Bucket: "unknown"})

	r := newTestRoutes(t, routesTestConfig(), broken)
	require.NoError(t, r.Load())

	err := r.Load()
	assert.Error(t, err)
	assert.Len(t, r.Endpoints(), 3)
}

func TestRoutes_IssueToken(t *testing.T) {
	r := newTestRoutes(t, routesTestConfig())
	require.NoError(t, r.Load())

	tests := []struct {
		name       string
		path       string
		ttl        time.Duration
		wantErr    error
		wantExpiry time.Time
	}{
		{name: "default ttl", path: "/media/logo.png", wantExpiry: time.Unix(1700000000, 0).Add(15 * time.Minute)},
		{name: "custom ttl", path: "/media/logo.png", ttl: time.Hour, wantExpiry: time.Unix(1700000000, 0).Add(time.Hour)},
		{name: "ttl over maximum", path: "/media/logo.png", ttl: 2 * time.Hour, wantErr: ErrInvalidTTL},
		{name: "negative ttl", path: "/media/logo.png", ttl: -time.Minute, wantErr: ErrInvalidTTL},
		{name: "relative path", path: "/media/../secret", wantErr: router.ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, exp, err := r.IssueToken(tt.path, tt.ttl)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), err)

				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, tok)
			assert.True(t, tt.wantExpiry.Equal(exp), exp)

			// Token is valid for the path
			assert.NoError(t, r.get().tokenSvc.Verify(tok, tt.path, time.Unix(1700000000, 0)))
		})
	}
}

func TestRoutes_IssueToken_Disabled(t *testing.T) {
	cfg := routesTestConfig()
	cfg.Tokens = nil

	r := newTestRoutes(t, cfg)
	require.NoError(t, r.Load())

	_, _, err := r.IssueToken("/media/logo.png", time.Minute)
	assert.True(t, errors.Is(err, ErrTokensDisabled))
}

func TestRoutes_Load_BadSecret(t *testing.T) {
	cfg := routesTestConfig()
	cfg.Tokens.Secret.Value = ""

	r := newTestRoutes(t, cfg)
	err := r.Load()
	assert.True(t, errors.Is(err, token.ErrEmptySecret))
}
