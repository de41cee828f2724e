package log

import "context"

// NopLogger drops every log event. It is the default logger wherever a
// constructor receives nil, so callers never have to nil-check before logging.
type NopLogger struct{}

// NewNop creates a no-op logger.
func NewNop() Logger {
	return &NopLogger{}
}

// Log drops the event.
func (l *NopLogger) Log(_ context.Context, _ Level, _ string, _ ...Field) {}

// With returns the same no-op logger.
//
//nolint:ireturn
func (l *NopLogger) With(_ ...Field) Logger {
	return l
}

// Enabled always reports false.
func (l *NopLogger) Enabled(_ Level) bool {
	return false
}

// Sync is a no-op.
func (l *NopLogger) Sync(_ context.Context) error { return nil }
