//go:build unit

package tracing

import (
	"context"
	"net/http"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartChildTrace(t *testing.T) {
	tracer := mocktracer.New()
	opentracing.SetGlobalTracer(tracer)

	defer opentracing.SetGlobalTracer(opentracing.NoopTracer{})

	parent := tracer.StartSpan("parent")
	ctx := opentracing.ContextWithSpan(context.TODO(), parent)

	child := StartChildTrace(ctx, "s3-bucket.get-object-request")
	child.SetTag("s3-bucket.key", "a.png")
	child.Finish()
	parent.Finish()

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, "s3-bucket.get-object-request", spans[0].OperationName)
	assert.Equal(t, parent.(*mocktracer.MockSpan).SpanContext.SpanID, spans[0].ParentID)
	assert.Equal(t, "a.png", spans[0].Tag("s3-bucket.key"))
}

func TestStartFollowingTrace(t *testing.T) {
	tracer := mocktracer.New()
	opentracing.SetGlobalTracer(tracer)

	defer opentracing.SetGlobalTracer(opentracing.NoopTracer{})

	requestSpan := tracer.StartSpan("request")
	ctx := opentracing.ContextWithSpan(context.TODO(), requestSpan)

	fillCtx, fill := StartFollowingTrace(ctx, "cache.fill")
	// Request ends before its fill
	requestSpan.Finish()

	upstream := StartChildTrace(fillCtx, "s3-bucket.get-object-request")
	upstream.Finish()
	fill.Finish()

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 3)

	fillSpan := spans[2]
	assert.Equal(t, "cache.fill", fillSpan.OperationName)
	assert.Equal(t, requestSpan.(*mocktracer.MockSpan).SpanContext.SpanID, fillSpan.ParentID)
	assert.Equal(t, fillSpan.SpanContext.SpanID, spans[1].ParentID)

	// Without parent a root trace is started
	_, root := StartFollowingTrace(context.TODO(), "cache.fill")
	root.Finish()

	spans = tracer.FinishedSpans()
	require.Len(t, spans, 4)
	assert.Equal(t, 0, spans[3].ParentID)
}

func TestGetTraceFromContext(t *testing.T) {
	assert.Nil(t, GetTraceFromContext(context.TODO()))

	req, err := http.NewRequestWithContext(context.TODO(), http.MethodGet, "http://localhost", nil)
	require.NoError(t, err)

	assert.Equal(t, "", GetTraceIDFromRequest(req))
}

func TestInjectInHTTPHeader(t *testing.T) {
	tracer := mocktracer.New()
	opentracing.SetGlobalTracer(tracer)

	defer opentracing.SetGlobalTracer(opentracing.NoopTracer{})

	tr := StartChildTrace(context.TODO(), "webhook")
	defer tr.Finish()

	h := http.Header{}
	require.NoError(t, tr.InjectInHTTPHeader(h))

	assert.NotEmpty(t, h.Get("Mockpfx-Ids-Traceid"))
}
