package exclude

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gcurrier/anythingllm-document-sync/internal/errors"
)

func rules(t *testing.T, dirs, globs []string) *Rules {
	t.Helper()

	r, err := NewRules(dirs, globs)
	require.NoError(t, err)

	return r
}

func TestNewRules_RejectsBadGlob(t *testing.T) {
	_, err := NewRules(nil, []string{"[unclosed"})
	assert.ErrorIs(t, err, apperrors.ErrConfig)
}

func TestNewRules_RejectsEmptyPatterns(t *testing.T) {
	_, err := NewRules([]string{""}, nil)
	assert.ErrorIs(t, err, apperrors.ErrConfig)

	_, err = NewRules(nil, []string{""})
	assert.ErrorIs(t, err, apperrors.ErrConfig)
}

func TestNewRules_RejectsDirPatternWithSlash(t *testing.T) {
	_, err := NewRules([]string{"a/b"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrConfig)
}

func TestIsExcluded_DirectoryByName(t *testing.T) {
	r := rules(t, []string{".git", "node_modules"}, nil)

	assert.True(t, r.IsExcluded("/repo/.git", Directory))
	assert.True(t, r.IsExcluded("/repo/sub/node_modules", Directory))
	assert.False(t, r.IsExcluded("/repo/src", Directory))
}

func TestIsExcluded_DirectoryMatchIsCaseSensitive(t *testing.T) {
	r := rules(t, []string{"Vendor"}, nil)

	assert.True(t, r.IsExcluded("/repo/Vendor", Directory))
	assert.False(t, r.IsExcluded("/repo/vendor", Directory))
}

func TestIsExcluded_FileUnderExcludedSegment(t *testing.T) {
	r := rules(t, []string{".git"}, nil)

	assert.True(t, r.IsExcluded("/repo/.git/config", File))
	assert.True(t, r.IsExcluded("/repo/a/.git/hooks/pre-commit", File))
	assert.False(t, r.IsExcluded("/repo/a/readme.md", File))
}

func TestIsExcluded_FileSegmentIsExactNotSubstring(t *testing.T) {
	r := rules(t, []string{"venv"}, nil)

	assert.True(t, r.IsExcluded("/repo/venv/lib/x.py", File))
	assert.False(t, r.IsExcluded("/repo/venvs/lib/x.py", File))
}

func TestIsExcluded_FileGlobOnBaseName(t *testing.T) {
	r := rules(t, nil, []string{"*.log", "*.tmp"})

	assert.True(t, r.IsExcluded("/repo/build/output.log", File))
	assert.True(t, r.IsExcluded("/repo/x.tmp", File))
	assert.False(t, r.IsExcluded("/repo/changelog.md", File))
}

func TestIsExcluded_GlobDoesNotMatchDirectories(t *testing.T) {
	r := rules(t, nil, []string{"*.log"})

	// File globs apply to files only; a directory named like a log file
	// is still descended into.
	assert.False(t, r.IsExcluded("/repo/archive.log", Directory))
}

func TestIsExcluded_NoRulesMatchesNothing(t *testing.T) {
	r := rules(t, nil, nil)

	assert.False(t, r.IsExcluded("/repo/.git", Directory))
	assert.False(t, r.IsExcluded("/repo/x.log", File))
}
