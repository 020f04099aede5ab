package logger

// Logger is the logging contract used across the service. Components receive
// it at construction so tests can swap in a no-op implementation.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a debug message with structured key/value fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// StructuredLogger is the subset of Logger for structured debug output.
type StructuredLogger interface {
	Debugw(msg string, fields map[string]any)
}
