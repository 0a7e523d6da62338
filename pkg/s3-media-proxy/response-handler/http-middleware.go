package responsehandler

import (
	"context"
	"net/http"

	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
)

type contextKey struct {
	name string
}

var responseHandlerCtxKey = &contextKey{name: "ResponseHandlerCtxKey"}

// HTTPMiddleware will add a new response handler on each request.
func HTTPMiddleware(cfgManager config.Manager) func(next http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			// Create response handler object
			rh := NewHandler(r, rw, cfgManager)
			// Inject in request
			r = r.WithContext(SetResponseHandlerInContext(r.Context(), rh))
			// Keep latest request in handler
			rh.UpdateRequestAndResponse(r, rw)

			// Next
			h.ServeHTTP(rw, r)
		})
	}
}

// GetResponseHandlerFromContext will return the response handler object from context.
func GetResponseHandlerFromContext(ctx context.Context) ResponseHandler {
	res, _ := ctx.Value(responseHandlerCtxKey).(ResponseHandler)

	return res
}

// SetResponseHandlerInContext will set a response handler object in a context.
func SetResponseHandlerInContext(ctx context.Context, resH ResponseHandler) context.Context {
	return context.WithValue(ctx, responseHandlerCtxKey, resH)
}
