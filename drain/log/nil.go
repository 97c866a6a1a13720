package log

import "context"

// NopLogger discards every log event. The shutdown packages fall back to it
// when callers pass a nil logger, so logging calls stay nil-safe on every
// exit path.
type NopLogger struct{}

// NewNop returns a logger that discards everything.
//
//nolint:ireturn
func NewNop() Logger {
	return &NopLogger{}
}

// Log discards the event.
func (l *NopLogger) Log(_ context.Context, _ Level, _ string, _ ...Field) {}

// With returns the receiver; there is nothing to attach fields to.
//
//nolint:ireturn
func (l *NopLogger) With(_ ...Field) Logger {
	return l
}

// WithGroup returns the receiver.
//
//nolint:ireturn
func (l *NopLogger) WithGroup(_ string) Logger {
	return l
}

// Enabled reports false for every level.
func (l *NopLogger) Enabled(_ Level) bool {
	return false
}

// Sync reports success; there is no buffer to flush.
func (l *NopLogger) Sync(_ context.Context) error { return nil }
