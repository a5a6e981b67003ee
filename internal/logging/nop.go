package logging

import "log/slog"

// NewNop returns a logger that discards everything. Intended for tests.
func NewNop() Logger {
	return NewSlogLogger(slog.New(slog.DiscardHandler))
}
