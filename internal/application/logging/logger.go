package logging

import "context"

// Log levels accepted by JobLogger implementations
const (
	LevelDebug   = "DEBUG"
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

// JobLogger provides logging for batch runs and their jobs
type JobLogger interface {
	Log(level, message string, metadata map[string]interface{})
}

// Context keys for passing logger through context
type contextKey int

const (
	loggerKey contextKey = iota
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger JobLogger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext extracts the logger from context, or returns a no-op logger if not found
func LoggerFromContext(ctx context.Context) JobLogger {
	if logger, ok := ctx.Value(loggerKey).(JobLogger); ok {
		return logger
	}
	return &noOpLogger{}
}

// noOpLogger is the fallback when no logger is in context
type noOpLogger struct{}

func (l *noOpLogger) Log(level, message string, metadata map[string]interface{}) {}

// WithFields returns a logger that adds fields to every entry's metadata.
// Entry metadata wins over fields with the same key.
func WithFields(logger JobLogger, fields map[string]interface{}) JobLogger {
	return &fieldLogger{next: logger, fields: fields}
}

type fieldLogger struct {
	next   JobLogger
	fields map[string]interface{}
}

func (l *fieldLogger) Log(level, message string, metadata map[string]interface{}) {
	merged := make(map[string]interface{}, len(l.fields)+len(metadata))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range metadata {
		merged[k] = v
	}
	l.next.Log(level, message, merged)
}

// Multi fans every entry out to all loggers
func Multi(loggers ...JobLogger) JobLogger {
	return multiLogger(loggers)
}

type multiLogger []JobLogger

func (m multiLogger) Log(level, message string, metadata map[string]interface{}) {
	for _, l := range m {
		if l != nil {
			l.Log(level, message, metadata)
		}
	}
}
