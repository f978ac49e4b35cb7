package telemetry

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

var (
	logger     *logrus.Logger
	loggerOnce sync.Once
)

// NewLogger builds a logrus logger from cfg writing to out.
// Unknown levels fall back to info; any format other than "text" is JSON.
func NewLogger(cfg *Config, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(cfg.LogFormat, "text") {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "@timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}
	return l
}

// InitLogger initializes the global logger with the given configuration.
// Logs go to stderr so stdout stays free for command output.
func InitLogger(cfg *Config) {
	loggerOnce.Do(func() {
		logger = NewLogger(cfg, os.Stderr)
	})
}

// L returns the global logger instance
func L() *logrus.Logger {
	if logger == nil {
		// Return a default logger if not initialized
		return logrus.StandardLogger()
	}
	return logger
}

// WithContext adds trace information to the logger
func WithContext(ctx context.Context) *logrus.Entry {
	entry := L().WithContext(ctx)

	// Add trace information if available
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		entry = entry.WithFields(logrus.Fields{
			"trace.id": span.SpanContext().TraceID().String(),
			"span.id":  span.SpanContext().SpanID().String(),
		})
	}

	return entry
}
