//go:build unit

package responsehandler

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"emperror.dev/errors"
	"github.com/golang/mock/gomock"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	cmocks "github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config/mocks"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRequest(method, target string, headers map[string]string) *http.Request {
	// Create fake request
	req := httptest.NewRequest(method, target, nil)

	// Loop over input headers
	for k, v := range headers {
		req.Header.Add(k, v)
	}

	// Add logger to request
	return req.WithContext(log.SetLoggerInContext(req.Context(), log.NewLogger()))
}

func Test_handler_Errors(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		inputHeaders   map[string]string
		call           func(h ResponseHandler)
		expectedStatus int
		expectedType   string
		expectedBody   string
	}{
		{
			name:           "not found",
			method:         http.MethodGet,
			call:           func(h ResponseHandler) { h.NotFoundError(errors.New("fake error")) },
			expectedStatus: http.StatusNotFound,
			expectedType:   "text/html; charset=utf-8",
			expectedBody: `<!DOCTYPE html>
<html>
  <body>
    <h1>Not Found</h1>
    <p>/media/logo.png</p>
  </body>
</html>
`,
		},
		{
			name:           "not found json",
			method:         http.MethodGet,
			inputHeaders:   map[string]string{"Accept": "application/json"},
			call:           func(h ResponseHandler) { h.NotFoundError(errors.New("fake error")) },
			expectedStatus: http.StatusNotFound,
			expectedType:   "application/json; charset=utf-8",
			expectedBody:   `{"error":"Not Found","message":"/media/logo.png"}` + "\n",
		},
		{
			name:           "forbidden shows reason",
			method:         http.MethodGet,
			call:           func(h ResponseHandler) { h.ForbiddenError(errors.New("token expired")) },
			expectedStatus: http.StatusForbidden,
			expectedType:   "text/html; charset=utf-8",
			expectedBody: `<!DOCTYPE html>
<html>
  <body>
    <h1>Forbidden</h1>
    <p>token expired</p>
  </body>
</html>
`,
		},
		{
			name:           "bad request escapes html",
			method:         http.MethodGet,
			call:           func(h ResponseHandler) { h.BadRequestError(errors.New("<script>")) },
			expectedStatus: http.StatusBadRequest,
			expectedType:   "text/html; charset=utf-8",
			expectedBody: `<!DOCTYPE html>
<html>
  <body>
    <h1>Bad Request</h1>
    <p>&lt;script&gt;</p>
  </body>
</html>
`,
		},
		{
			name:           "internal server error hides error",
			method:         http.MethodGet,
			inputHeaders:   map[string]string{"Accept": "application/json"},
			call:           func(h ResponseHandler) { h.InternalServerError(errors.New("secret internal details")) },
			expectedStatus: http.StatusInternalServerError,
			expectedType:   "application/json; charset=utf-8",
			expectedBody:   `{"error":"Internal Server Error"}` + "\n",
		},
		{
			name:           "bad gateway",
			method:         http.MethodGet,
			inputHeaders:   map[string]string{"Accept": "application/json"},
			call:           func(h ResponseHandler) { h.BadGatewayError(errors.New("connection refused")) },
			expectedStatus: http.StatusBadGateway,
			expectedType:   "application/json; charset=utf-8",
			expectedBody:   `{"error":"Bad Gateway"}` + "\n",
		},
		{
			name:           "gateway timeout",
			method:         http.MethodGet,
			inputHeaders:   map[string]string{"Accept": "application/json"},
			call:           func(h ResponseHandler) { h.GatewayTimeoutError(errors.New("timeout")) },
			expectedStatus: http.StatusGatewayTimeout,
			expectedType:   "application/json; charset=utf-8",
			expectedBody:   `{"error":"Gateway Timeout"}` + "\n",
		},
		{
			name:           "generic status",
			method:         http.MethodGet,
			inputHeaders:   map[string]string{"Accept": "application/json"},
			call:           func(h ResponseHandler) { h.StatusError(http.StatusMethodNotAllowed, errors.New("method")) },
			expectedStatus: http.StatusMethodNotAllowed,
			expectedType:   "application/json; charset=utf-8",
			expectedBody:   `{"error":"Method Not Allowed"}` + "\n",
		},
		{
			name:           "head answer has no body",
			method:         http.MethodHead,
			call:           func(h ResponseHandler) { h.NotFoundError(errors.New("fake error")) },
			expectedStatus: http.StatusNotFound,
			expectedType:   "text/html; charset=utf-8",
			expectedBody:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			cfgManagerMock := cmocks.NewMockManager(ctrl)
			cfgManagerMock.EXPECT().GetConfig().AnyTimes().Return(&config.Config{})

			req := newTestRequest(tt.method, "http://fake.com/media/logo.png", tt.inputHeaders)
			res := httptest.NewRecorder()

			tt.call(NewHandler(req, res, cfgManagerMock))

			assert.Equal(t, tt.expectedStatus, res.Code)
			assert.Equal(t, tt.expectedType, res.Header().Get("Content-Type"))
			assert.Equal(t, "no-cache, no-store, must-revalidate", res.Header().Get("Cache-Control"))
			assert.Equal(t, tt.expectedBody, res.Body.String())
		})
	}
}

func Test_handler_CustomTemplates(t *testing.T) {
	dir := t.TempDir()

	helpersPath := filepath.Join(dir, "helpers.tpl")
	require.NoError(t, os.WriteFile(helpersPath, []byte(`{{- define "custom.title" -}}Lost{{- end -}}`), 0o600))

	notFoundPath := filepath.Join(dir, "not-found.tpl")
	require.NoError(t, os.WriteFile(notFoundPath, []byte(`{{ template "custom.title" }} {{ .Path }} {{ .Status }}`), 0o600))

	ctrl := gomock.NewController(t)
	cfgManagerMock := cmocks.NewMockManager(ctrl)
	cfgManagerMock.EXPECT().GetConfig().AnyTimes().Return(&config.Config{
		Templates: &config.TemplateConfig{
			Helpers: []string{helpersPath},
			NotFoundError: &config.TemplateConfigItem{
				Path:    notFoundPath,
				Headers: map[string]string{"Content-Type": "text/plain", "X-Path": "{{ .Path }}"},
			},
		},
	})

	req := newTestRequest(http.MethodGet, "http://fake.com/media/logo.png", nil)
	res := httptest.NewRecorder()

	NewHandler(req, res, cfgManagerMock).NotFoundError(errors.New("fake"))

	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "text/plain", res.Header().Get("Content-Type"))
	assert.Equal(t, "/media/logo.png", res.Header().Get("X-Path"))
	assert.Equal(t, "Lost /media/logo.png 404", res.Body.String())
}

func Test_handler_BrokenTemplate(t *testing.T) {
	dir := t.TempDir()

	tplPath := filepath.Join(dir, "broken.tpl")
	require.NoError(t, os.WriteFile(tplPath, []byte(`{{ .Missing.Field }`), 0o600))

	ctrl := gomock.NewController(t)
	cfgManagerMock := cmocks.NewMockManager(ctrl)
	cfgManagerMock.EXPECT().GetConfig().AnyTimes().Return(&config.Config{
		Templates: &config.TemplateConfig{
			ForbiddenError: &config.TemplateConfigItem{Path: tplPath},
		},
	})

	req := newTestRequest(http.MethodGet, "http://fake.com/media/logo.png", nil)
	res := httptest.NewRecorder()

	NewHandler(req, res, cfgManagerMock).ForbiddenError(errors.New("fake"))

	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Contains(t, res.Body.String(), "<h1>Internal Server Error</h1>")
}

func Test_handler_StreamObject(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		input          *StreamInput
		expectedStatus int
		expectedBody   string
		expectedLength string
		expectedCache  string
	}{
		{
			name:   "get",
			method: http.MethodGet,
			input: &StreamInput{
				Body:          io.NopCloser(stringsReader("hello")),
				Header:        http.Header{"Content-Type": []string{"text/plain"}, "Etag": []string{`"v1"`}},
				StatusCode:    http.StatusOK,
				ContentLength: 5,
				CacheStatus:   "HIT",
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "hello",
			expectedLength: "5",
			expectedCache:  "HIT",
		},
		{
			name:   "head",
			method: http.MethodHead,
			input: &StreamInput{
				Header:        http.Header{"Content-Type": []string{"text/plain"}},
				StatusCode:    http.StatusOK,
				ContentLength: 5,
			},
			expectedStatus: http.StatusOK,
			expectedLength: "5",
		},
		{
			name:   "not modified",
			method: http.MethodGet,
			input: &StreamInput{
				Header:        http.Header{"Etag": []string{`"v1"`}, "Content-Length": []string{"5"}},
				StatusCode:    http.StatusNotModified,
				ContentLength: -1,
				CacheStatus:   "REVALIDATED",
			},
			expectedStatus: http.StatusNotModified,
			expectedCache:  "REVALIDATED",
		},
		{
			name:   "partial",
			method: http.MethodGet,
			input: &StreamInput{
				Body:          io.NopCloser(stringsReader("he")),
				Header:        http.Header{"Content-Range": []string{"bytes 0-1/5"}},
				StatusCode:    http.StatusPartialContent,
				ContentLength: 2,
				CacheStatus:   "BYPASS",
			},
			expectedStatus: http.StatusPartialContent,
			expectedBody:   "he",
			expectedLength: "2",
			expectedCache:  "BYPASS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newTestRequest(tt.method, "http://fake.com/media/logo.png", nil)
			res := httptest.NewRecorder()

			err := NewHandler(req, res, nil).StreamObject(tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedStatus, res.Code)
			assert.Equal(t, tt.expectedBody, res.Body.String())
			assert.Equal(t, tt.expectedLength, res.Header().Get("Content-Length"))
			assert.Equal(t, tt.expectedCache, res.Header().Get(CacheStatusHeader))
		})
	}
}

func Test_HTTPMiddleware(t *testing.T) {
	var found ResponseHandler

	h := HTTPMiddleware(nil)(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		found = GetResponseHandlerFromContext(r.Context())
		found.NoContent()
	}))

	res := httptest.NewRecorder()
	h.ServeHTTP(res, newTestRequest(http.MethodPut, "http://fake.com/media/logo.png", nil))

	require.NotNil(t, found)
	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.Equal(t, http.MethodPut, found.GetRequest().Method)
}

func stringsReader(s string) io.Reader {
	return bytes.NewBufferString(s)
}
