// Package exclude evaluates the configured exclusion rules against
// candidate paths. Matching is pure string work over path segments so
// the scanner's pruning behaviour can be tested without a filesystem.
package exclude

import (
	"path"
	"path/filepath"
	"strings"

	apperrors "github.com/gcurrier/anythingllm-document-sync/internal/errors"
)

// Kind distinguishes what a path refers to when asking for exclusion.
type Kind int

const (
	File Kind = iota
	Directory
)

// Rules holds compiled exclusion configuration. Directory patterns match
// any single path segment exactly; file patterns are globs matched
// against the base name. Both are case-sensitive and there is no
// negation syntax.
type Rules struct {
	dirNames  map[string]struct{}
	fileGlobs []string
}

// NewRules validates the configured patterns and returns a matcher.
// A malformed file glob is a fatal configuration error.
func NewRules(dirPatterns, fileGlobs []string) (*Rules, error) {
	r := &Rules{dirNames: make(map[string]struct{}, len(dirPatterns))}

	for _, p := range dirPatterns {
		if p == "" {
			return nil, apperrors.Configf("empty directory-excludes pattern")
		}

		if strings.ContainsRune(p, filepath.Separator) || strings.ContainsRune(p, '/') {
			return nil, apperrors.Configf("directory-excludes pattern %q must be a single name, not a path", p)
		}

		r.dirNames[p] = struct{}{}
	}

	for _, g := range fileGlobs {
		if g == "" {
			return nil, apperrors.Configf("empty file-excludes pattern")
		}

		// path.Match only reports malformed patterns, so probing with a
		// throwaway name validates the glob up front.
		if _, err := path.Match(g, "probe"); err != nil {
			return nil, apperrors.Configf("file-excludes pattern %q is not a valid glob", g)
		}

		r.fileGlobs = append(r.fileGlobs, g)
	}

	return r, nil
}

// IsExcluded reports whether p should be skipped. For directories the
// base name is checked against the directory patterns; a match means the
// whole subtree is pruned by the scanner. For files the directory
// patterns are checked against every segment (covering files handed in
// without a walk) and the file globs against the base name.
func (r *Rules) IsExcluded(p string, kind Kind) bool {
	if kind == Directory {
		return r.excludesSegment(filepath.Base(p))
	}

	for _, seg := range strings.Split(filepath.ToSlash(filepath.Dir(p)), "/") {
		if r.excludesSegment(seg) {
			return true
		}
	}

	base := filepath.Base(p)
	for _, g := range r.fileGlobs {
		// Patterns were validated in NewRules; Match cannot fail here.
		if ok, _ := path.Match(g, base); ok {
			return true
		}
	}

	return false
}

func (r *Rules) excludesSegment(name string) bool {
	_, ok := r.dirNames[name]
	return ok
}
