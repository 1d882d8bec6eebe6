package audit

import "context"

// NoOpLogger discards all events. It is the default logger, giving the
// library safe, zero-overhead behavior when auditing is not configured.
type NoOpLogger struct{}

// NewNoOpLogger creates a new no-op logger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// Log does nothing and always returns nil.
func (n *NoOpLogger) Log(ctx context.Context, event *Event) error {
	return nil
}

// DefaultLogger returns a no-op logger.
func DefaultLogger() Logger {
	return NewNoOpLogger()
}
