package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ConsoleOnly_TextHandler(t *testing.T) {
	logger := New(false, "")
	require.NotNil(t, logger)

	_, ok := logger.Handler().(*slog.TextHandler)
	assert.True(t, ok, "console-only logger should use TextHandler, got %T", logger.Handler())
}

func TestNew_Quiet_InfoLevel(t *testing.T) {
	logger := New(false, "")
	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Handler().Enabled(context.Background(), slog.LevelDebug))
}

func TestNew_Verbose_DebugLevel(t *testing.T) {
	logger := New(true, "")
	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelDebug))
}

func TestNew_WithFile_FansOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.log")
	logger := New(false, path)
	require.NotNil(t, logger)

	// File handler accepts Debug even when the console is at Info.
	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelDebug))

	logger.Info("hello", slog.String("path", "a.md"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"path":"a.md"`)
}

func TestDefaultLogPath_CreatesLogDir(t *testing.T) {
	base := t.TempDir()
	path := DefaultLogPath(base)
	require.Equal(t, filepath.Join(base, "log", "sync.log"), path)

	info, err := os.Stat(filepath.Join(base, "log"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
