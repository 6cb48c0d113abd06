// Package tracking persists the per-workspace record of what has been
// uploaded and embedded remotely. It is the durable source of truth the
// engine resumes from after a crash, so every mutation is a single bbolt
// transaction committed before the engine moves on.
package tracking

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	storeDirPerm  = fs.FileMode(0o700)
	storeFilePerm = fs.FileMode(0o600)

	// storeOpenTimeout bounds the wait for the bolt file lock so a second
	// concurrent run fails fast instead of hanging.
	storeOpenTimeout = 5 * time.Second
)

// State is the sync lifecycle stage of a tracked document.
type State string

const (
	// StatePending is the logical initial state: the file is known but
	// nothing remote has happened yet. Never persisted in practice since
	// entries are first written after a successful upload.
	StatePending State = "pending"

	// StateUploaded means the raw document is on the server but not yet
	// embedded into the workspace.
	StateUploaded State = "uploaded"

	// StateEmbedded means upload and embedding both completed.
	StateEmbedded State = "embedded"

	// StateStale means the local file changed after the last sync; the
	// stored remote ids are superseded and a re-upload is due.
	StateStale State = "stale"
)

// ValidTransition is the pure transition predicate for the entry
// lifecycle: pending -> uploaded -> embedded, with any synced entry able
// to fall back to stale and stale recovering through uploaded. Identical
// from/to is allowed so a retried stage can refresh its entry.
func ValidTransition(from, to State) bool {
	if from == to {
		return true
	}

	switch from {
	case StatePending:
		return to == StateUploaded
	case StateUploaded:
		return to == StateEmbedded || to == StateStale
	case StateEmbedded:
		return to == StateStale
	case StateStale:
		return to == StateUploaded
	}

	return false
}

// Entry is one tracked document: the local path it came from, the
// fingerprint it had when last synced, and the remote ids produced by
// upload and embedding.
type Entry struct {
	Path          string    `json:"path"`
	Fingerprint   string    `json:"fingerprint"`
	RemoteRawID   string    `json:"remote_raw_id,omitempty"`
	RemoteEmbedID string    `json:"remote_embed_id,omitempty"`
	State         State     `json:"state"`
	LastSyncedAt  time.Time `json:"last_synced_at,omitzero"`
}

// Validate checks the structural invariants: an embed id requires a raw
// id, and the state must agree with which ids are populated.
func (e Entry) Validate() error {
	if e.Path == "" {
		return fmt.Errorf("entry has no path")
	}

	if e.RemoteEmbedID != "" && e.RemoteRawID == "" {
		return fmt.Errorf("entry %s has an embed id without a raw id", e.Path)
	}

	switch e.State {
	case StatePending:
		if e.RemoteRawID != "" || e.RemoteEmbedID != "" {
			return fmt.Errorf("pending entry %s must not carry remote ids", e.Path)
		}
	case StateUploaded:
		if e.RemoteRawID == "" {
			return fmt.Errorf("uploaded entry %s has no raw id", e.Path)
		}

		if e.RemoteEmbedID != "" {
			return fmt.Errorf("uploaded entry %s already carries an embed id", e.Path)
		}
	case StateEmbedded:
		if e.RemoteRawID == "" || e.RemoteEmbedID == "" {
			return fmt.Errorf("embedded entry %s is missing remote ids", e.Path)
		}
	case StateStale:
		if e.RemoteRawID == "" {
			return fmt.Errorf("stale entry %s has no raw id", e.Path)
		}
	default:
		return fmt.Errorf("entry %s has unknown state %q", e.Path, e.State)
	}

	return nil
}

// Store wraps a bbolt database holding one workspace's tracked entries.
type Store struct {
	db        *bolt.DB
	workspace string
}

func documentsBucket(workspace string) []byte {
	return []byte("workspace:" + workspace + ":documents")
}

// Open opens (creating if needed) the tracking database at path for the
// given workspace slug. The workspace bucket is created on open.
func Open(path, workspace string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), storeDirPerm); err != nil {
		return nil, fmt.Errorf("creating tracking directory: %w", err)
	}

	db, err := bolt.Open(path, storeFilePerm, &bolt.Options{Timeout: storeOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening tracking db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(documentsBucket(workspace))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing tracking db: %w", err)
	}

	return &Store{db: db, workspace: workspace}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Workspace returns the slug this store is scoped to.
func (s *Store) Workspace() string {
	return s.workspace
}

// Get returns the entry for a path, or nil if the path is untracked.
func (s *Store) Get(path string) (*Entry, error) {
	var e *Entry

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(documentsBucket(s.workspace)).Get([]byte(path))
		if v == nil {
			return nil
		}

		e = &Entry{}

		return json.Unmarshal(v, e)
	})

	return e, err
}

// Upsert persists an entry, enforcing both the structural invariants and
// a valid lifecycle transition from whatever is currently stored. A
// missing row counts as pending.
func (s *Store) Upsert(e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(documentsBucket(s.workspace))

		from := StatePending
		if v := b.Get([]byte(e.Path)); v != nil {
			var prev Entry
			if err := json.Unmarshal(v, &prev); err != nil {
				return fmt.Errorf("decoding existing entry %s: %w", e.Path, err)
			}

			from = prev.State
		}

		if !ValidTransition(from, e.State) {
			return fmt.Errorf("invalid transition %s -> %s for %s", from, e.State, e.Path)
		}

		data, err := json.Marshal(e)
		if err != nil {
			return err
		}

		return b.Put([]byte(e.Path), data)
	})
}

// Delete removes the entry for a path. Deleting an untracked path is
// a no-op.
func (s *Store) Delete(path string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(documentsBucket(s.workspace)).Delete([]byte(path))
	})
}

// All returns every tracked entry for the workspace, sorted by path.
func (s *Store) All() ([]Entry, error) {
	var entries []Entry

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(documentsBucket(s.workspace)).ForEach(func(_, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}

			entries = append(entries, e)

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	return entries, nil
}

// Clear drops every entry for the workspace. Used by force resync only.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(documentsBucket(s.workspace)); err != nil {
			return err
		}

		_, err := tx.CreateBucket(documentsBucket(s.workspace))

		return err
	})
}
