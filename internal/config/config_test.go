package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gcurrier/anythingllm-document-sync/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func validYAML(t *testing.T, root string) string {
	t.Helper()

	return `api-key: key-123
workspace-slug: docs
file-paths:
  - ` + root + `
directory-excludes:
  - .git
file-excludes:
  - "*.log"
`
}

func TestLoad_Valid(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, validYAML(t, root))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "key-123", cfg.APIKey)
	assert.Equal(t, "docs", cfg.WorkspaceSlug)
	assert.Equal(t, "http://localhost:3001", cfg.BaseURL)
	assert.Equal(t, []string{root}, cfg.FilePaths)
	assert.Equal(t, []string{".git"}, cfg.DirectoryExcludes)
	assert.Equal(t, []string{"*.log"}, cfg.FileExcludes)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorIs(t, err, apperrors.ErrConfig)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "api-key: [unclosed")
	_, err := Load(path)
	assert.ErrorIs(t, err, apperrors.ErrConfig)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	path := writeConfig(t, "workspace-slug: docs\nfile-paths:\n  - "+t.TempDir()+"\n")
	_, err := Load(path)
	require.ErrorIs(t, err, apperrors.ErrConfig)
	assert.Contains(t, err.Error(), "api-key")
}

func TestLoad_MissingWorkspaceSlug(t *testing.T) {
	path := writeConfig(t, "api-key: k\nfile-paths:\n  - "+t.TempDir()+"\n")
	_, err := Load(path)
	require.ErrorIs(t, err, apperrors.ErrConfig)
	assert.Contains(t, err.Error(), "workspace-slug")
}

func TestLoad_NoRoots(t *testing.T) {
	path := writeConfig(t, "api-key: k\nworkspace-slug: docs\n")
	_, err := Load(path)
	require.ErrorIs(t, err, apperrors.ErrConfig)
	assert.Contains(t, err.Error(), "file-paths")
}

func TestLoad_MissingRootIsFatal(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")
	path := writeConfig(t, "api-key: k\nworkspace-slug: docs\nfile-paths:\n  - "+missing+"\n")

	_, err := Load(path)
	require.ErrorIs(t, err, apperrors.ErrConfig)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoad_RootMustBeDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	path := writeConfig(t, "api-key: k\nworkspace-slug: docs\nfile-paths:\n  - "+file+"\n")
	_, err := Load(path)
	assert.ErrorIs(t, err, apperrors.ErrConfig)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, validYAML(t, root))

	t.Setenv("ANYTHINGLLM_API_KEY", "env-key")
	t.Setenv("ANYTHINGLLM_BASE_URL", "http://remote:3001")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "http://remote:3001", cfg.BaseURL)
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, WriteTemplate(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "api-key:")
	assert.Contains(t, string(data), "workspace-slug:")

	// Never clobber an existing config.
	assert.Error(t, WriteTemplate(path))
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, filepath.Join("/base", "tracking-docs.db"), TrackingDBPath("/base", "docs"))
	assert.Equal(t, filepath.Join("/base", "docs.lock"), LockPath("/base", "docs"))
}
