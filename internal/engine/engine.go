// Package engine reconciles the local scan snapshot against the
// per-workspace tracking store, executing the minimal set of remote
// actions to converge the AnythingLLM workspace with the local trees.
// Each state transition is persisted immediately after the remote call
// that earned it, so an interrupted run resumes from the last completed
// stage instead of rolling back.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/gcurrier/anythingllm-document-sync/internal/anythingllm"
	apperrors "github.com/gcurrier/anythingllm-document-sync/internal/errors"
	"github.com/gcurrier/anythingllm-document-sync/internal/scanner"
	"github.com/gcurrier/anythingllm-document-sync/internal/tracking"
)

// Operation names used in failure reports.
const (
	OpRead      = "read"
	OpUpload    = "upload"
	OpEmbed     = "embed"
	OpUnembed   = "unembed"
	OpDeleteRaw = "delete-raw"
	OpTrack     = "track"
)

// Failure records one failed action. The pass keeps going; failures are
// surfaced together at the end.
type Failure struct {
	Path string
	Op   string
	Err  error
}

// Report summarizes one reconciliation or purge pass.
type Report struct {
	Uploaded int
	Embedded int
	Skipped  int
	Removed  int
	Failed   int
	Failures []Failure
}

func (r *Report) fail(path, op string, err error) {
	r.Failed++
	r.Failures = append(r.Failures, Failure{Path: path, Op: op, Err: err})
}

// Engine drives one workspace's reconciliation. It is the only writer
// to the tracking store, and writes only after the corresponding remote
// call succeeded.
type Engine struct {
	store  *tracking.Store
	client anythingllm.Client
	logger *slog.Logger
}

// New creates an engine over the given store and remote client.
func New(store *tracking.Store, client anythingllm.Client, logger *slog.Logger) *Engine {
	return &Engine{store: store, client: client, logger: logger}
}

// Reconcile diffs the candidates against the tracking store and applies
// the resulting actions in path order. One path's failure never aborts
// the others. When removeRaw is set, removals also delete the remote
// raw upload before the entry is dropped.
func (e *Engine) Reconcile(ctx context.Context, candidates []scanner.Candidate, removeRaw bool) (*Report, error) {
	tracked, err := e.store.All()
	if err != nil {
		return nil, fmt.Errorf("loading tracked entries: %w", err)
	}

	entryByPath := make(map[string]tracking.Entry, len(tracked))
	for _, t := range tracked {
		entryByPath[t.Path] = t
	}

	candByPath := make(map[string]scanner.Candidate, len(candidates))
	for _, c := range candidates {
		candByPath[c.Path] = c
	}

	paths := unionPaths(candByPath, entryByPath)

	e.logger.Info("reconciliation starting",
		slog.Int("candidates", len(candidates)),
		slog.Int("tracked", len(tracked)),
	)

	report := &Report{}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		var candPtr *scanner.Candidate
		if c, ok := candByPath[path]; ok {
			candPtr = &c
		}

		var entryPtr *tracking.Entry
		if t, ok := entryByPath[path]; ok {
			entryPtr = &t
		}

		switch Decide(candPtr, entryPtr) {
		case DecisionSkip:
			report.Skipped++

		case DecisionUpload:
			e.uploadAndEmbed(ctx, *candPtr, report)

		case DecisionResumeEmbed:
			e.logger.Info("resuming embed after earlier interruption", slog.String("path", path))
			e.embed(ctx, *entryPtr, report)

		case DecisionRefresh:
			e.refresh(ctx, *candPtr, *entryPtr, report)

		case DecisionRemove:
			e.remove(ctx, *entryPtr, removeRaw, report)
		}
	}

	e.logger.Info("reconciliation complete",
		slog.Int("uploaded", report.Uploaded),
		slog.Int("embedded", report.Embedded),
		slog.Int("skipped", report.Skipped),
		slog.Int("removed", report.Removed),
		slog.Int("failed", report.Failed),
	)

	return report, nil
}

// Purge unembeds every tracked entry regardless of local presence, and
// optionally deletes the raw uploads. Rows are dropped only after their
// remote cleanup fully succeeded, so a partial failure stays
// discoverable by the next purge. The scanner is never consulted.
func (e *Engine) Purge(ctx context.Context, alsoDeleteRaw bool) (*Report, error) {
	tracked, err := e.store.All()
	if err != nil {
		return nil, fmt.Errorf("loading tracked entries: %w", err)
	}

	e.logger.Info("purge starting",
		slog.Int("tracked", len(tracked)),
		slog.Bool("delete_raw", alsoDeleteRaw),
	)

	report := &Report{}

	for _, entry := range tracked {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		e.remove(ctx, entry, alsoDeleteRaw, report)
	}

	e.logger.Info("purge complete",
		slog.Int("removed", report.Removed),
		slog.Int("failed", report.Failed),
	)

	return report, nil
}

// uploadAndEmbed handles a never-synced candidate: upload, persist the
// uploaded entry, embed, persist the embedded entry. An upload failure
// persists nothing so the next run retries cleanly.
func (e *Engine) uploadAndEmbed(ctx context.Context, cand scanner.Candidate, report *Report) {
	entry, ok := e.upload(ctx, cand, report)
	if !ok {
		return
	}

	e.embed(ctx, entry, report)
}

// upload reads the candidate and uploads it, persisting the entry at
// the uploaded stage. Returns the persisted entry.
func (e *Engine) upload(ctx context.Context, cand scanner.Candidate, report *Report) (tracking.Entry, bool) {
	content, err := os.ReadFile(cand.Path)
	if err != nil {
		report.fail(cand.Path, OpRead, fmt.Errorf("reading %s: %w", cand.Path, apperrors.ErrLocalIO))
		return tracking.Entry{}, false
	}

	e.logger.Info("uploading", slog.String("path", cand.Path), slog.Int("bytes", len(content)))

	rawID, err := e.client.UploadRaw(ctx, cand.Path, content)
	if err != nil {
		report.fail(cand.Path, OpUpload, err)
		return tracking.Entry{}, false
	}

	entry := tracking.Entry{
		Path:        cand.Path,
		Fingerprint: cand.Fingerprint,
		RemoteRawID: rawID,
		State:       tracking.StateUploaded,
	}

	if err := e.store.Upsert(entry); err != nil {
		report.fail(cand.Path, OpTrack, err)
		return tracking.Entry{}, false
	}

	report.Uploaded++

	return entry, true
}

// embed embeds an uploaded entry and advances it to embedded. On
// failure the entry stays at uploaded, so the next run resumes with an
// embed-only chain.
func (e *Engine) embed(ctx context.Context, entry tracking.Entry, report *Report) {
	e.logger.Info("embedding", slog.String("path", entry.Path), slog.String("raw_id", entry.RemoteRawID))

	embedID, err := e.client.Embed(ctx, entry.RemoteRawID)
	if err != nil {
		report.fail(entry.Path, OpEmbed, err)
		return
	}

	entry.RemoteEmbedID = embedID
	entry.State = tracking.StateEmbedded
	entry.LastSyncedAt = time.Now().UTC()

	if err := e.store.Upsert(entry); err != nil {
		report.fail(entry.Path, OpTrack, err)
		return
	}

	report.Embedded++
}

// refresh handles a changed file. The entry is marked stale before any
// remote call so an interruption anywhere in the chain is visible to
// the next run; then the new content is uploaded and embedded, the new
// ids superseding the old ones. The previous remote artifacts are not
// eagerly deleted.
func (e *Engine) refresh(ctx context.Context, cand scanner.Candidate, entry tracking.Entry, report *Report) {
	e.logger.Info("file changed, re-syncing", slog.String("path", cand.Path))

	if entry.State != tracking.StateStale {
		stale := entry
		stale.State = tracking.StateStale

		if err := e.store.Upsert(stale); err != nil {
			report.fail(cand.Path, OpTrack, err)
			return
		}
	}

	next, ok := e.upload(ctx, cand, report)
	if !ok {
		return
	}

	e.embed(ctx, next, report)
}

// remove tears down one tracked entry: unembed (when it ever reached
// embedded), optionally delete the raw upload, then drop the row. Any
// failure keeps the row so the entry remains discoverable later.
func (e *Engine) remove(ctx context.Context, entry tracking.Entry, removeRaw bool, report *Report) {
	e.logger.Info("removing remote document",
		slog.String("path", entry.Path),
		slog.Bool("delete_raw", removeRaw),
	)

	if entry.RemoteEmbedID != "" {
		if err := e.client.Unembed(ctx, entry.RemoteEmbedID); err != nil {
			report.fail(entry.Path, OpUnembed, err)
			return
		}
	}

	if removeRaw && entry.RemoteRawID != "" {
		if err := e.client.DeleteRaw(ctx, entry.RemoteRawID); err != nil {
			report.fail(entry.Path, OpDeleteRaw, err)
			return
		}
	}

	if err := e.store.Delete(entry.Path); err != nil {
		report.fail(entry.Path, OpTrack, err)
		return
	}

	report.Removed++
}

func unionPaths(cands map[string]scanner.Candidate, entries map[string]tracking.Entry) []string {
	seen := make(map[string]struct{}, len(cands)+len(entries))

	for p := range cands {
		seen[p] = struct{}{}
	}

	for p := range entries {
		seen[p] = struct{}{}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	return paths
}
