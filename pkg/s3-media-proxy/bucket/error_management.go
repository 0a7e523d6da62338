package bucket

import (
	"context"
	"net/http"

	"emperror.dev/errors"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/cache"
	responsehandler "github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/response-handler"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/router"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/s3client"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/token"
)

// StatusClientClosedRequest is used when the client left before the answer.
const StatusClientClosedRequest = 499

// ErrMethodNotAllowed is returned when an endpoint doesn't accept the request method.
var ErrMethodNotAllowed = errors.Sentinel("method not allowed on this endpoint")

// StatusFor returns the HTTP status answered for an error.
func StatusFor(err error) int {
	var (
		verr *token.VerifyError
		rerr *s3client.RejectedError
		uerr *s3client.UnavailableError
	)

	switch {
	case errors.Is(err, router.ErrRoutingMiss), errors.Is(err, ErrNoObjectKey):
		return http.StatusNotFound
	case errors.Is(err, router.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.As(err, &verr):
		return http.StatusForbidden
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, ErrLengthRequired):
		return http.StatusLengthRequired
	case errors.As(err, &rerr):
		// Proxy credentials are wrong, not the client request
		if rerr.IsSigningFailure() {
			return http.StatusInternalServerError
		}

		// Mirror upstream status
		if rerr.StatusCode >= http.StatusBadRequest {
			return rerr.StatusCode
		}

		return http.StatusBadGateway
	case errors.As(err, &uerr):
		if uerr.Timeout {
			return http.StatusGatewayTimeout
		}

		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, cache.ErrFillFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleError answers an error with the response handler.
// Upstream answer bodies are never sent back.
func HandleError(ctx context.Context, resHan responsehandler.ResponseHandler, err error) {
	switch status := StatusFor(err); status {
	case http.StatusNotFound:
		resHan.NotFoundError(err)
	case http.StatusForbidden:
		resHan.ForbiddenError(err)
	case http.StatusBadRequest:
		resHan.BadRequestError(err)
	case http.StatusInternalServerError:
		resHan.InternalServerError(err)
	case http.StatusBadGateway:
		resHan.BadGatewayError(err)
	case http.StatusGatewayTimeout:
		resHan.GatewayTimeoutError(err)
	case StatusClientClosedRequest:
		getLogger(ctx).Debugf("client left: %v", err)
		resHan.StatusError(status, err)
	default:
		resHan.StatusError(status, err)
	}
}
