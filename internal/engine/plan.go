package engine

import (
	"github.com/gcurrier/anythingllm-document-sync/internal/scanner"
	"github.com/gcurrier/anythingllm-document-sync/internal/tracking"
)

// Decision is the outcome of comparing one local candidate against its
// tracked entry. The executor performs remote I/O based on the decision.
type Decision int

const (
	// DecisionSkip means the entry is fully synced and the fingerprint
	// is unchanged. No remote calls.
	DecisionSkip Decision = iota

	// DecisionUpload means the path has never been synced: upload the
	// raw document, then embed it.
	DecisionUpload

	// DecisionResumeEmbed means a previous run uploaded but died before
	// embedding. Embed the stored raw id without re-uploading.
	DecisionResumeEmbed

	// DecisionRefresh means the local content changed (or a previous
	// refresh died mid-chain): re-upload and re-embed, superseding the
	// stored remote ids.
	DecisionRefresh

	// DecisionRemove means the tracked file is no longer present (or no
	// longer in scope): unembed and drop the entry, optionally deleting
	// the raw upload too.
	DecisionRemove
)

// Decide compares a local candidate with its tracked entry. Pure, no
// I/O; both normal sync and tests call this to get consistent plans.
// Either argument may be nil: a nil candidate means the file is gone
// from local scope, a nil entry means the path was never tracked.
func Decide(candidate *scanner.Candidate, entry *tracking.Entry) Decision {
	if candidate == nil {
		return DecisionRemove
	}

	if entry == nil {
		return DecisionUpload
	}

	// A stale marker means a refresh chain died somewhere after the
	// fingerprint changed. Re-running the full chain is always safe;
	// trusting the stored ids is not.
	if entry.State == tracking.StateStale {
		return DecisionRefresh
	}

	if candidate.Fingerprint != entry.Fingerprint {
		return DecisionRefresh
	}

	switch entry.State {
	case tracking.StateUploaded:
		return DecisionResumeEmbed
	case tracking.StateEmbedded:
		return DecisionSkip
	default:
		// Pending entries are never persisted, but a fresh upload is
		// the right answer if one ever shows up.
		return DecisionUpload
	}
}
