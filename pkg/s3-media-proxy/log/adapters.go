package log

type tracingLogger struct {
	logger Logger
}

func (tl *tracingLogger) Error(msg string) {
	tl.logger.Error(msg)
}

func (tl *tracingLogger) Infof(msg string, args ...interface{}) {
	tl.logger.Infof(msg, args...)
}

// Debugf logs a message at debug priority.
func (tl *tracingLogger) Debugf(msg string, args ...interface{}) {
	tl.logger.Debugf(msg, args...)
}

type corsLogger struct {
	logger Logger
}

func (c *corsLogger) Printf(format string, args ...interface{}) {
	c.logger.Debugf(format, args...)
}

// upstreamLogger logs resty warnings at debug level.
type upstreamLogger struct {
	logger Logger
}

func (u *upstreamLogger) Errorf(format string, v ...interface{}) {
	u.logger.Errorf(format, v...)
}

func (u *upstreamLogger) Warnf(format string, v ...interface{}) {
	u.logger.Debugf(format, v...)
}

func (u *upstreamLogger) Debugf(format string, v ...interface{}) {
	u.logger.Debugf(format, v...)
}
