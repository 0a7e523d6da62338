package log

import (
	"github.com/sirupsen/logrus"
)

// Logger is the application logger.
// It wraps a logrus field logger and is stored in request contexts.
type Logger interface {
	Configure(level string, format string, filePath string) error

	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})

	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Fatal(args ...interface{})

	Infoln(args ...interface{})
	Warnln(args ...interface{})
	Errorln(args ...interface{})

	GetTracingLogger() TracingLogger
	GetCorsLogger() CorsLogger
	GetUpstreamLogger() UpstreamLogger
}

// TracingLogger is the logger shape expected by the jaeger client.
type TracingLogger interface {
	Error(msg string)
	Infof(msg string, args ...interface{})
	Debugf(msg string, args ...interface{})
}

// CorsLogger is the logger shape expected by the cors middleware.
type CorsLogger interface {
	Printf(string, ...interface{})
}

// UpstreamLogger is the logger shape expected by the resty http clients.
type UpstreamLogger interface {
	Errorf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Debugf(format string, v ...interface{})
}

func NewLogger() Logger {
	return &loggerIns{
		FieldLogger: logrus.New(),
	}
}
