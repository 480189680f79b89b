package logging

import "log/slog"

// NewNullLogger returns a logger that discards all output.
// Used when logging is disabled.
func NewNullLogger() Logger {
	return &slogLogger{logger: slog.New(slog.DiscardHandler)}
}
