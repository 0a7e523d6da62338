package tracing

import (
	"context"
	"net/http"

	"emperror.dev/errors"
	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
)

type trace struct {
	span opentracing.Span
}

func (t *trace) SetTag(key string, value interface{}) {
	t.span.SetTag(key, value)
}

func (t *trace) GetChildTrace(operationName string) Trace {
	tracer := opentracing.GlobalTracer()

	childSpan := tracer.StartSpan(
		operationName,
		opentracing.ChildOf(t.span.Context()),
	)

	return &trace{span: childSpan}
}

func (t *trace) Finish() {
	t.span.Finish()
}

func (t *trace) GetTraceID() string {
	if sc, ok := t.span.Context().(jaeger.SpanContext); ok {
		return sc.TraceID().String()
	}

	return ""
}

func (t *trace) InjectInHTTPHeader(header http.Header) error {
	return errors.WithStack(opentracing.GlobalTracer().Inject(
		t.span.Context(),
		opentracing.HTTPHeaders,
		opentracing.HTTPHeadersCarrier(header),
	))
}

// GetTraceFromContext returns the trace stored in context or nil.
func GetTraceFromContext(ctx context.Context) Trace {
	sp := opentracing.SpanFromContext(ctx)
	if sp == nil {
		return nil
	}

	return &trace{
		span: sp,
	}
}

// StartChildTrace starts a trace child of the one stored in context.
// A root trace is started when context has none.
func StartChildTrace(ctx context.Context, operationName string) Trace {
	sp, _ := opentracing.StartSpanFromContext(ctx, operationName)

	return &trace{span: sp}
}

// StartFollowingTrace starts a trace following the one stored in context
// and returns a context holding it. It is used by work outliving its caller.
func StartFollowingTrace(ctx context.Context, operationName string) (context.Context, Trace) {
	var opts []opentracing.StartSpanOption
	// Check parent
	if parent := opentracing.SpanFromContext(ctx); parent != nil {
		opts = append(opts, opentracing.FollowsFrom(parent.Context()))
	}

	sp := opentracing.GlobalTracer().StartSpan(operationName, opts...)

	return opentracing.ContextWithSpan(ctx, sp), &trace{span: sp}
}

// GetTraceIDFromRequest returns the request trace id or an empty string.
func GetTraceIDFromRequest(r *http.Request) string {
	// Get request trace
	trace := GetTraceFromContext(r.Context())
	if trace != nil {
		return trace.GetTraceID()
	}

	return ""
}
