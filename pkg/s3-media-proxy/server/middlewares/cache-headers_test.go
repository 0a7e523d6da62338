//go:build unit

package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	"github.com/stretchr/testify/assert"
)

func TestCacheHeaders(t *testing.T) {
	cfg := &config.CacheHeadersConfig{
		Expires:       "0",
		CacheControl:  "public, max-age=60",
		Pragma:        "no-cache",
		XAccelExpires: "60",
	}

	tests := []struct {
		name     string
		upstream map[string]string
		want     map[string]string
	}{
		{
			name: "defaults",
			want: map[string]string{
				"Expires":         "0",
				"Cache-Control":   "public, max-age=60",
				"Pragma":          "no-cache",
				"X-Accel-Expires": "60",
			},
		},
		{
			name:     "object headers win",
			upstream: map[string]string{"Cache-Control": "max-age=3600"},
			want: map[string]string{
				"Expires":       "0",
				"Cache-Control": "max-age=3600",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CacheHeaders(cfg)(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
				for k, v := range tt.upstream {
					rw.Header().Set(k, v)
				}

				rw.WriteHeader(http.StatusOK)
			}))

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/logo.png", nil))

			for k, v := range tt.want {
				assert.Equal(t, v, w.Header().Get(k), k)
			}
		})
	}
}
