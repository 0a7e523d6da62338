package responsehandler

import (
	"io"
	"net/http"

	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
)

// CacheStatusHeader is the response header carrying the cache status.
const CacheStatusHeader = "X-Cache"

// StreamInput represents an object answer.
type StreamInput struct {
	// Body can be nil for HEAD and not modified answers.
	Body   io.ReadCloser
	Header http.Header
	// CacheStatus is sent in the X-Cache header when not empty.
	CacheStatus   string
	StatusCode    int
	ContentLength int64
}

// ResponseHandler will handle responses.
//
//go:generate mockgen -destination=./mocks/mock_ResponseHandler.go -package=mocks github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/response-handler ResponseHandler
type ResponseHandler interface {
	// StreamObject will stream object headers and body.
	// Errors happening after headers are sent are only returned.
	StreamObject(input *StreamInput) error
	// NoContent will answer a successful write.
	NoContent()
	// NotFoundError will answer for not found error.
	NotFoundError(err error)
	// ForbiddenError will answer for forbidden error.
	ForbiddenError(err error)
	// BadRequestError will answer for bad request error.
	BadRequestError(err error)
	// InternalServerError will answer for internal server error.
	InternalServerError(err error)
	// BadGatewayError will answer for upstream failures.
	BadGatewayError(err error)
	// GatewayTimeoutError will answer for upstream timeouts.
	GatewayTimeoutError(err error)
	// StatusError will answer any other error status with the generic template.
	StatusError(status int, err error)
	// UpdateRequestAndResponse will update request and response in object.
	// This will used to update request and response in order to have the latest context values.
	UpdateRequestAndResponse(req *http.Request, res http.ResponseWriter)
	// GetRequest will return the actual request object.
	GetRequest() *http.Request
}

// NewHandler will return a new response handler object.
func NewHandler(req *http.Request, res http.ResponseWriter, cfgManager config.Manager) ResponseHandler {
	return &handler{
		req:            req,
		res:            res,
		cfgManager:     cfgManager,
		headAnswerMode: req.Method == http.MethodHead,
	}
}
