package cnext

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with container-specific helpers so call sites
// log the same field names everywhere.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. If handler is nil, a
// text handler to stderr at Info level is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that emits JSON-formatted records.
// level sets the minimum log level.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that emits human-readable text records.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithContainer tags records with the container kind ("vector",
// "hashtable").
func (l *Logger) WithContainer(kind string) *Logger {
	return &Logger{Logger: l.Logger.With("container", kind)}
}

// WithKeyType tags records with the container's key type name.
func (l *Logger) WithKeyType(name string) *Logger {
	return &Logger{Logger: l.Logger.With("key_type", name)}
}

// LogSnapshot logs a snapshot write.
func (l *Logger) LogSnapshot(ctx context.Context, codec string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"codec", codec,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot saved",
		"codec", codec,
		"bytes", size,
	)
}

// LogRestore logs a snapshot load.
func (l *Logger) LogRestore(ctx context.Context, codec string, entries uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"codec", codec,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "restore completed",
		"codec", codec,
		"entries", entries,
	)
}
