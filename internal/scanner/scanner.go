// Package scanner walks the configured root paths and produces the set
// of local files eligible for syncing, each with a content fingerprint.
package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/gcurrier/anythingllm-document-sync/internal/errors"
	"github.com/gcurrier/anythingllm-document-sync/internal/exclude"
)

// Candidate is one eligible local file found during a scan. It lives
// only for the duration of a reconciliation pass.
type Candidate struct {
	Path        string
	Fingerprint string
}

// supportedExtensions are the file types the AnythingLLM collector
// accepts. Anything else is skipped before upload is even attempted.
var supportedExtensions = map[string]struct{}{
	"txt": {}, "md": {}, "org": {}, "adoc": {}, "rst": {}, "html": {},
	"docx": {}, "odt": {}, "odp": {}, "pdf": {}, "mbox": {}, "epub": {},
	"js": {}, "j2": {}, "py": {}, "java": {}, "sh": {}, "json": {},
	"yaml": {}, "yml": {}, "sql": {}, "toml": {}, "csv": {}, "tsv": {},
	"ini": {}, "conf": {}, "log": {}, "cfg": {}, "properties": {},
	"xml": {}, "jsonl": {},
}

// Supported reports whether a path's extension is accepted by the
// AnythingLLM collector.
func Supported(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, ok := supportedExtensions[ext]

	return ok
}

// Scan walks each root and returns the eligible files, deduplicated by
// absolute path so overlapping or nested roots cannot produce the same
// candidate twice. Excluded directories are pruned without descending.
// Unreadable files are logged and skipped; a missing root aborts the
// scan as a configuration error.
func Scan(roots []string, rules *exclude.Rules, logger *slog.Logger) ([]Candidate, error) {
	seen := make(map[string]struct{})

	var candidates []Candidate

	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, apperrors.Configf("resolving root %s: %v", root, err)
		}

		if _, err := os.Stat(absRoot); err != nil {
			return nil, apperrors.Configf("root path %s is not accessible", absRoot)
		}

		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("walk error, skipping", slog.String("path", path), slog.String("error", err.Error()))
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}

				return nil
			}

			if d.IsDir() {
				if path != absRoot && rules.IsExcluded(path, exclude.Directory) {
					logger.Debug("skipped (excluded directory)", slog.String("path", path))
					return filepath.SkipDir
				}

				return nil
			}

			// Symlinks are never followed: they can point outside the
			// roots or at special files that block reads.
			if d.Type()&os.ModeSymlink != 0 {
				logger.Debug("skipped (symlink)", slog.String("path", path))
				return nil
			}

			if rules.IsExcluded(path, exclude.File) {
				logger.Debug("skipped (excluded file)", slog.String("path", path))
				return nil
			}

			if !Supported(path) {
				logger.Debug("skipped (unsupported type)", slog.String("path", path))
				return nil
			}

			if _, dup := seen[path]; dup {
				return nil
			}

			fp, err := fingerprint(path, d)
			if err != nil {
				logger.Warn("skipped (unreadable)",
					slog.String("path", path),
					slog.String("error", err.Error()),
				)

				return nil
			}

			if fp == "" {
				logger.Debug("skipped (empty file)", slog.String("path", path))
				return nil
			}

			seen[path] = struct{}{}
			candidates = append(candidates, Candidate{Path: path, Fingerprint: fp})

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", absRoot, err)
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Path < candidates[j].Path })

	logger.Info("local scan complete",
		slog.Int("roots", len(roots)),
		slog.Int("candidates", len(candidates)),
	)

	return candidates, nil
}

// fingerprint derives the change signature for a file: content hash plus
// size plus mtime. Returns empty string for empty files, which the
// server rejects anyway. Recomputed on every run.
func fingerprint(path string, d fs.DirEntry) (string, error) {
	info, err := d.Info()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, apperrors.ErrLocalIO)
	}

	if info.Size() == 0 {
		return "", nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, apperrors.ErrLocalIO)
	}

	h := sha256.Sum256(content)

	return fmt.Sprintf("%s:%d:%d", hex.EncodeToString(h[:]), info.Size(), info.ModTime().UnixMilli()), nil
}
