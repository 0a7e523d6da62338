package log

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// HTTPAddLoggerToContextMiddleware stores the request logger in the request context.
func HTTPAddLoggerToContextMiddleware() func(next http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			// Get logger from request
			logger := getLogEntry(r)
			// Check if structured logger is installed
			if logger != nil {
				r = r.WithContext(SetLoggerInContext(r.Context(), logger))
			}

			// Next
			h.ServeHTTP(rw, r)
		})
	}
}

// NewStructuredLogger builds the chi request logger middleware.
func NewStructuredLogger(
	logger Logger,
	getTraceID func(r *http.Request) string,
	getClientIP func(r *http.Request) string,
	getRequestURI func(r *http.Request) string,
) func(next http.Handler) http.Handler {
	return middleware.RequestLogger(&StructuredLogger{
		Logger:        logger,
		GetTraceID:    getTraceID,
		GetClientIP:   getClientIP,
		GetRequestURI: getRequestURI,
	})
}

// StructuredLogger structured logger.
type StructuredLogger struct {
	Logger        Logger
	GetTraceID    func(r *http.Request) string
	GetClientIP   func(r *http.Request) string
	GetRequestURI func(r *http.Request) string
}

// NewLogEntry new log entry.
func (l *StructuredLogger) NewLogEntry(r *http.Request) middleware.LogEntry {
	logFields := map[string]interface{}{}

	// Get trace id
	if traceIDStr := l.GetTraceID(r); traceIDStr != "" {
		logFields["trace_id"] = traceIDStr
	}

	// Get request id
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		logFields["req_id"] = reqID
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	logFields["http_scheme"] = scheme
	logFields["http_proto"] = r.Proto
	logFields["http_method"] = r.Method
	logFields["remote_addr"] = r.RemoteAddr
	logFields["user_agent"] = r.UserAgent()
	logFields["client_ip"] = l.GetClientIP(r)
	logFields["uri"] = l.GetRequestURI(r)

	entry := &StructuredLoggerEntry{Logger: l.Logger.WithFields(logFields)}

	entry.Logger.Debug("request started")

	return entry
}

// StructuredLoggerEntry Structured logger entry.
type StructuredLoggerEntry struct {
	Logger Logger
}

// Write logs the request completion.
func (l *StructuredLoggerEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	logger := l.Logger.WithFields(logrus.Fields{
		"resp_status":       status,
		"resp_bytes_length": bytes,
		"resp_elapsed_ms":   float64(elapsed.Nanoseconds()) / 1000000.0, // nolint: gomnd // No constant for that
	})

	logFunc := logger.Infoln
	// Client errors are expected traffic (missing objects, expired tokens)
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		logFunc = logger.Warnln
	}
	// Check status code for error logger
	if status >= http.StatusInternalServerError {
		logFunc = logger.Errorln
	}

	logFunc("request complete")
}

// Panic panic log.
func (l *StructuredLoggerEntry) Panic(v interface{}, stack []byte) {
	l.Logger = l.Logger.WithFields(logrus.Fields{
		"stack": string(stack),
		"panic": fmt.Sprintf("%+v", v),
	})
}

func getLogEntry(r *http.Request) Logger {
	entry, ok := middleware.GetLogEntry(r).(*StructuredLoggerEntry)
	// Check if structured logger is installed
	if !ok {
		return nil
	}

	return entry.Logger
}
