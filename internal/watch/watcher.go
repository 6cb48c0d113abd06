// Package watch monitors the configured root directories and triggers
// a full reconciliation pass after filesystem activity settles. It
// never inspects individual events beyond exclusion filtering; the
// scanner re-derives the complete picture on each pass.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gcurrier/anythingllm-document-sync/internal/exclude"
)

const (
	// pollInterval is how often the watcher checks whether pending
	// activity has settled.
	pollInterval = 500 * time.Millisecond

	// defaultSettle is how long the trees must stay quiet before a
	// reconciliation fires, batching rapid editor writes into one pass.
	defaultSettle = 2 * time.Second
)

// SyncFunc runs one reconciliation pass.
type SyncFunc func(ctx context.Context) error

// Watcher re-reconciles the workspace whenever watched trees change.
type Watcher struct {
	roots  []string
	rules  *exclude.Rules
	logger *slog.Logger
	settle time.Duration
}

// New creates a watcher over the given roots. Events under excluded
// directories or matching excluded file patterns never trigger a pass.
func New(roots []string, rules *exclude.Rules, logger *slog.Logger) *Watcher {
	return &Watcher{
		roots:  roots,
		rules:  rules,
		logger: logger,
		settle: defaultSettle,
	}
}

// SetSettle overrides the quiet period. Used by tests.
func (w *Watcher) SetSettle(d time.Duration) {
	w.settle = d
}

// Run blocks until the context is cancelled, invoking sync after each
// burst of filesystem activity settles. A failed sync is logged and
// retried on the next burst; it never stops the watcher.
func (w *Watcher) Run(ctx context.Context, sync SyncFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	for _, root := range w.roots {
		if err := w.addRecursive(watcher, root); err != nil {
			return fmt.Errorf("watching %s: %w", root, err)
		}
	}

	w.logger.Info("watch mode started", slog.Int("roots", len(w.roots)))

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastEvent time.Time

	dirty := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("fsnotify events channel closed unexpectedly")
			}

			if w.shouldIgnore(event.Name) {
				continue
			}

			// A new directory needs its own watch so files created
			// inside it are seen. Lstat avoids following symlinks out
			// of the tree.
			if event.Has(fsnotify.Create) {
				if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(watcher, event.Name)
				}
			}

			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				_ = watcher.Remove(event.Name)
			}

			w.logger.Debug("filesystem event", slog.String("path", event.Name), slog.String("op", event.Op.String()))

			lastEvent = time.Now()
			dirty = true

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("fsnotify errors channel closed unexpectedly")
			}

			w.logger.Warn("watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			if !dirty || time.Since(lastEvent) < w.settle {
				continue
			}

			dirty = false

			w.logger.Info("changes settled, reconciling")

			if err := sync(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}

				w.logger.Warn("reconciliation failed", slog.String("error", err.Error()))
			}
		}
	}
}

// addRecursive adds root and every non-excluded subdirectory to the
// watcher.
func (w *Watcher) addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if path != root && w.rules != nil && w.rules.IsExcluded(path, exclude.Directory) {
			return filepath.SkipDir
		}

		return watcher.Add(path)
	})
}

// shouldIgnore filters events from excluded paths and editor temp
// files before they can mark the trees dirty.
func (w *Watcher) shouldIgnore(absPath string) bool {
	name := filepath.Base(absPath)

	if name == "" || name == "." {
		return true
	}

	// Editor temp and swap files churn constantly during saves.
	if name[len(name)-1] == '~' || filepath.Ext(name) == ".swp" || filepath.Ext(name) == ".tmp" {
		return true
	}

	if w.rules == nil {
		return false
	}

	if w.rules.IsExcluded(absPath, exclude.Directory) || w.rules.IsExcluded(absPath, exclude.File) {
		return true
	}

	return false
}
