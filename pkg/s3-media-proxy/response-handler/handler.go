package responsehandler

import (
	"io"
	"net/http"
	"strconv"

	"emperror.dev/errors"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/log"
)

type handler struct {
	req            *http.Request
	res            http.ResponseWriter
	cfgManager     config.Manager
	headAnswerMode bool
}

func (h *handler) UpdateRequestAndResponse(req *http.Request, res http.ResponseWriter) {
	// Update request
	h.req = req
	// Update response
	h.res = res
	// Update head mode
	h.headAnswerMode = req.Method == http.MethodHead
}

func (h *handler) GetRequest() *http.Request {
	return h.req
}

func (h *handler) NoContent() {
	h.res.WriteHeader(http.StatusNoContent)
}

func (h *handler) StreamObject(input *StreamInput) error {
	// Ensure body is closed
	if input.Body != nil {
		defer input.Body.Close()
	}

	// Copy headers
	for k, v := range input.Header {
		h.res.Header()[k] = append([]string(nil), v...)
	}

	// Cache status
	if input.CacheStatus != "" {
		h.res.Header().Set(CacheStatusHeader, input.CacheStatus)
	}

	// Not modified answers don't have a length
	if input.StatusCode == http.StatusNotModified {
		h.res.Header().Del("Content-Length")
	} else if input.ContentLength >= 0 {
		h.res.Header().Set("Content-Length", strconv.FormatInt(input.ContentLength, 10))
	}

	// Set status code
	h.res.WriteHeader(input.StatusCode)

	// Check if body must be sent
	if input.Body == nil || h.headAnswerMode {
		return nil
	}

	// Copy data stream to output stream
	_, err := io.Copy(h.res, input.Body)

	return errors.WithStack(err)
}

func (h *handler) getLogger() log.Logger {
	logger := log.GetLoggerFromContext(h.req.Context())
	// Request logger isn't installed
	if logger == nil {
		return log.NewLogger()
	}

	return logger
}
