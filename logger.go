package colibri

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with colibri-specific helpers so log fields stay
// consistent across the store.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses a default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all log output. Libraries should
// stay silent unless asked; this is the default.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// logIndexBuild logs completion of a search index build.
func (l *Logger) logIndexBuild(t *Table, column string, rows int) {
	l.Debug("search index built",
		"table", t.name,
		"table_id", t.id.String(),
		"column", column,
		"rows", rows,
	)
}

// logViewSync logs a view resynchronization.
func (l *Logger) logViewSync(t *Table, rows int, reason string) {
	l.Debug("view synchronized",
		"table", t.name,
		"table_id", t.id.String(),
		"rows", rows,
		"reason", reason,
	)
}
