package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// logMaxSizeMB and logMaxBackups match the rotation policy of the
	// sync log: 5 MB per file, three rotated copies kept.
	logMaxSizeMB  = 5
	logMaxBackups = 3
)

// New creates the sync logger. Console output goes to stderr as text at
// Info level (Debug with verbose). When logPath is non-empty, a JSON
// copy of every record (Debug and up) is appended to a rotating file so
// a quiet console run still leaves a full trail.
func New(verbose bool, logPath string) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	console := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	if logPath == "" {
		return slog.New(console)
	}

	file := slog.NewJSONHandler(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
	}, &slog.HandlerOptions{Level: slog.LevelDebug})

	return slog.New(fanout{console, file})
}

// DefaultLogPath returns ~/.anythingllm-sync/log/sync.log, creating the
// log directory if needed. Returns empty string (console-only logging)
// when the directory cannot be prepared.
func DefaultLogPath(baseDir string) string {
	dir := filepath.Join(baseDir, "log")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return ""
	}

	return filepath.Join(dir, "sync.log")
}

// fanout dispatches each record to every wrapped handler.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error

	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}

		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithAttrs(attrs)
	}

	return next
}

func (f fanout) WithGroup(name string) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithGroup(name)
	}

	return next
}
