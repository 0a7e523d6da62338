//go:build unit

package s3client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"emperror.dev/errors"
	"github.com/golang/mock/gomock"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/log"
	mmocks "github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/metrics/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, endpoint string) *s3Context {
	t.Helper()

	ctrl := gomock.NewController(t)
	metricsMock := mmocks.NewMockClient(ctrl)
	metricsMock.EXPECT().IncS3Operations(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	return newS3Context(testBucketConfig("b1", endpoint), testUpstreamConfig(), metricsMock, log.NewLogger())
}

func closeConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		return
	}

	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}

	_ = conn.Close()
}

func Test_s3Context_GetObject(t *testing.T) {
	var seen *http.Request

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Clone(context.TODO())

		w.Header().Set("ETag", `"abc"`)
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Last-Modified", "Wed, 21 Oct 2015 07:28:00 GMT")
		w.Header().Set("X-Amz-Request-Id", "123")
		w.Header().Set("X-Amz-Meta-Owner", "me")
		w.Header().Set("Server", "AmazonS3")
		_, _ = w.Write([]byte("hello"))
	}))
	defer ts.Close()

	s3ctx := newTestContext(t, ts.URL)

	out, err := s3ctx.GetObject(context.TODO(), &GetInput{
		Key: "media/a b.png",
		Header: http.Header{
			"Range":         []string{"bytes=0-4"},
			"If-None-Match": []string{`"old"`},
			"Cookie":        []string{"secret"},
		},
	})
	require.NoError(t, err)

	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	require.NoError(t, err)

	assert.Equal(t, "hello", string(body))
	assert.Equal(t, http.StatusOK, out.StatusCode)
	assert.Equal(t, `"abc"`, out.Header.Get("ETag"))
	assert.Equal(t, "image/png", out.Header.Get("Content-Type"))
	assert.Empty(t, out.Header.Get("X-Amz-Request-Id"))
	assert.Empty(t, out.Header.Get("X-Amz-Meta-Owner"))
	assert.Empty(t, out.Header.Get("Server"))

	// Request sent upstream
	require.NotNil(t, seen)
	assert.Equal(t, "/bucket/media/a%20b.png", seen.URL.EscapedPath())
	assert.True(t, strings.HasPrefix(seen.Header.Get("Authorization"), "AWS4-HMAC-SHA256 Credential=access/"))
	assert.Equal(t, EmptyPayloadHash, seen.Header.Get("X-Amz-Content-Sha256"))
	assert.Equal(t, "bytes=0-4", seen.Header.Get("Range"))
	assert.Equal(t, `"old"`, seen.Header.Get("If-None-Match"))
	assert.Empty(t, seen.Header.Get("Cookie"))
}

func Test_s3Context_GetObject_NotModified(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusNotModified)
	}))
	defer ts.Close()

	s3ctx := newTestContext(t, ts.URL)

	out, err := s3ctx.GetObject(context.TODO(), &GetInput{Key: "k"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotModified, out.StatusCode)
	assert.Nil(t, out.Body)
}

func Test_s3Context_HeadObject(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Content-Length", "42")
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	s3ctx := newTestContext(t, ts.URL)

	out, err := s3ctx.HeadObject(context.TODO(), &GetInput{Key: "k"})
	require.NoError(t, err)

	assert.Nil(t, out.Body)
	assert.Equal(t, int64(42), out.ContentLength)
	assert.Equal(t, `"abc"`, out.Header.Get("ETag"))
}

func Test_s3Context_Rejections(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		body           string
		wantNotFound   bool
		wantSigning    bool
		wantCode       string
		wantStatusCode int
	}{
		{
			name:           "not found",
			status:         http.StatusNotFound,
			body:           "<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>",
			wantNotFound:   true,
			wantCode:       "NoSuchKey",
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "signature",
			status:         http.StatusForbidden,
			body:           "<Error><Code>SignatureDoesNotMatch</Code></Error>",
			wantSigning:    true,
			wantCode:       "SignatureDoesNotMatch",
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "access denied",
			status:         http.StatusForbidden,
			body:           "<Error><Code>AccessDenied</Code></Error>",
			wantCode:       "AccessDenied",
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "no body",
			status:         http.StatusServiceUnavailable,
			wantStatusCode: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			s3ctx := newTestContext(t, ts.URL)

			_, err := s3ctx.GetObject(context.TODO(), &GetInput{Key: "k"})
			require.Error(t, err)

			var rerr *RejectedError
			require.True(t, errors.As(err, &rerr))

			assert.Equal(t, tt.wantStatusCode, rerr.StatusCode)
			assert.Equal(t, tt.wantCode, rerr.Code)
			assert.Equal(t, tt.wantSigning, rerr.IsSigningFailure())
			assert.Equal(t, tt.wantNotFound, errors.Is(err, ErrNotFound))
		})
	}
}

func Test_s3Context_RetryIdempotentOnly(t *testing.T) {
	var calls int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// First attempt fails at transport level
		if atomic.AddInt32(&calls, 1) == 1 {
			closeConnection(w)

			return
		}

		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	s3ctx := newTestContext(t, ts.URL)

	out, err := s3ctx.GetObject(context.TODO(), &GetInput{Key: "k"})
	require.NoError(t, err)

	_ = out.Body.Close()

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	// Writes are never retried
	atomic.StoreInt32(&calls, 0)

	_, err = s3ctx.PutObject(context.TODO(), &PutInput{
		Key:           "k",
		Body:          strings.NewReader("hello"),
		ContentLength: 5,
	})
	require.Error(t, err)

	var uerr *UnavailableError
	assert.True(t, errors.As(err, &uerr))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func Test_s3Context_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	ctrl := gomock.NewController(t)
	metricsMock := mmocks.NewMockClient(ctrl)
	metricsMock.EXPECT().IncS3Operations(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	ucfg := testUpstreamConfig()
	ucfg.Timeout = 50 * time.Millisecond
	ucfg.RetryCount = 0

	s3ctx := newS3Context(testBucketConfig("b1", ts.URL), ucfg, metricsMock, log.NewLogger())

	_, err := s3ctx.GetObject(context.TODO(), &GetInput{Key: "k"})
	require.Error(t, err)

	var uerr *UnavailableError
	require.True(t, errors.As(err, &uerr))
	assert.True(t, uerr.Timeout)
	assert.Equal(t, GetObjectOperation, uerr.Operation)
}

func Test_s3Context_PutObject(t *testing.T) {
	var (
		seen     *http.Request
		seenBody string
	)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seenBody = string(b)
		seen = r.Clone(context.TODO())

		w.Header().Set("ETag", `"new"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	s3ctx := newTestContext(t, ts.URL)

	out, err := s3ctx.PutObject(context.TODO(), &PutInput{
		Key:           "pdfs/doc.pdf",
		Body:          strings.NewReader("hello"),
		ContentLength: 5,
		Header: http.Header{
			"Content-Type":     []string{"application/pdf"},
			"X-Amz-Meta-Owner": []string{"me"},
			"Authorization":    []string{"Bearer abc"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, `"new"`, out.Header.Get("ETag"))
	assert.Equal(t, "hello", seenBody)

	require.NotNil(t, seen)
	assert.Equal(t, int64(5), seen.ContentLength)
	assert.Empty(t, seen.TransferEncoding)
	assert.Equal(t, UnsignedPayload, seen.Header.Get("X-Amz-Content-Sha256"))
	assert.Equal(t, "application/pdf", seen.Header.Get("Content-Type"))
	assert.Equal(t, "me", seen.Header.Get("X-Amz-Meta-Owner"))
	assert.True(t, strings.HasPrefix(seen.Header.Get("Authorization"), "AWS4-HMAC-SHA256"))
}

func Test_s3Context_DeleteObject(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/bucket/k", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	s3ctx := newTestContext(t, ts.URL)

	err := s3ctx.DeleteObject(context.TODO(), "k")
	assert.NoError(t, err)
}

func Test_s3Context_Anonymous(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("public"))
	}))
	defer ts.Close()

	ctrl := gomock.NewController(t)
	metricsMock := mmocks.NewMockClient(ctrl)
	metricsMock.EXPECT().IncS3Operations("b1", "bucket", GetObjectOperation).Times(1)

	bcfg := testBucketConfig("b1", ts.URL)
	bcfg.Credentials = nil

	s3ctx := newS3Context(bcfg, testUpstreamConfig(), metricsMock, log.NewLogger())

	out, err := s3ctx.GetObject(context.TODO(), &GetInput{Key: "k"})
	require.NoError(t, err)

	_ = out.Body.Close()
}

func Test_s3Context_objectURL(t *testing.T) {
	bcfg := testBucketConfig("b1", "")
	bcfg.Region = "eu-west-1"

	s3ctx := &s3Context{bucket: bcfg}
	assert.Equal(t, "https://s3.eu-west-1.amazonaws.com/bucket/a/b%2Bc.png", s3ctx.objectURL("a/b+c.png"))

	bcfg.VirtualHostStyle = true
	assert.Equal(t, "https://bucket.s3.eu-west-1.amazonaws.com/a/b%2Bc.png", s3ctx.objectURL("a/b+c.png"))
}
