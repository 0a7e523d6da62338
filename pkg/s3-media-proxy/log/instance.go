package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
)

type loggerIns struct {
	logrus.FieldLogger
}

// stackTracer is implemented by errors created with a stack.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

func (ll *loggerIns) GetTracingLogger() TracingLogger {
	return &tracingLogger{logger: ll}
}

func (ll *loggerIns) GetCorsLogger() CorsLogger {
	return &corsLogger{logger: ll}
}

func (ll *loggerIns) GetUpstreamLogger() UpstreamLogger {
	return &upstreamLogger{logger: ll}
}

func (ll *loggerIns) Configure(level string, format string, filePath string) error {
	// Parse log level
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.WithStack(err)
	}

	// Get logrus logger
	lll, ok := ll.FieldLogger.(*logrus.Logger)
	if !ok {
		return errors.New("logger cannot be configured from a derived entry")
	}

	// Set log level
	lll.SetLevel(lvl)

	// Set format
	if format == "json" {
		lll.SetFormatter(&logrus.JSONFormatter{})
	} else {
		lll.SetFormatter(&logrus.TextFormatter{})
	}

	if filePath != "" {
		// Create directory if necessary
		err = os.MkdirAll(filepath.Dir(filePath), os.ModePerm)
		if err != nil {
			return errors.WithStack(err)
		}

		// Open file
		f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o666) // nolint: gosec // log file
		if err != nil {
			return errors.WithStack(err)
		}

		// Set output file
		lll.SetOutput(f)
	}

	return nil
}

func (ll *loggerIns) WithField(key string, value interface{}) Logger {
	return &loggerIns{
		FieldLogger: ll.FieldLogger.WithField(key, value),
	}
}

func (ll *loggerIns) WithFields(fields map[string]interface{}) Logger {
	return &loggerIns{
		FieldLogger: ll.FieldLogger.WithFields(logrus.Fields(fields)),
	}
}

func (ll *loggerIns) WithError(err error) Logger {
	// Create new field logger
	fieldL := ll.FieldLogger.WithError(err)

	// Find the deepest error carrying a stack trace
	var st stackTracer

	// Walk the chain
	for e := err; e != nil; e = errors.Unwrap(e) {
		// nolint: errorlint // Each level is inspected on purpose
		if s, ok := e.(stackTracer); ok {
			st = s
		}
	}

	// Check if a stack trace was found
	if st != nil {
		// Stringify stack trace
		valued := strings.ReplaceAll(fmt.Sprintf("%+v", st.StackTrace()), "\t", "")
		// Split on new line
		stack := strings.Split(valued, "\n")
		// Remove first empty string
		if len(stack) > 0 && stack[0] == "" {
			stack = stack[1:]
		}
		// Add stack trace to field logger
		fieldL = fieldL.WithField("stack", strings.Join(stack, ","))
	}

	return &loggerIns{
		FieldLogger: fieldL,
	}
}

func (ll *loggerIns) Error(args ...interface{}) {
	// Check if first element is an error
	if len(args) > 0 {
		if err, ok := args[0].(error); ok {
			// Call with error
			ll.WithError(err).(*loggerIns).FieldLogger.Error(args...)

			return
		}
	}

	// Call logger error method
	ll.FieldLogger.Error(args...)
}
