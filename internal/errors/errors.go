package errors

import (
	"errors"
	"fmt"
)

// Error kinds for a reconciliation pass. Per-path failures are wrapped
// with one of these sentinels so callers can classify without string
// matching.
var (
	// ErrTransport marks a network-level failure (unreachable, timeout,
	// 5xx). Recoverable by re-running the sync.
	ErrTransport = errors.New("transport error")

	// ErrRemoteRejected marks a document the server refused (unsupported
	// type, empty content). Not recoverable by retrying unchanged.
	ErrRemoteRejected = errors.New("rejected by server")

	// ErrNotFound marks a remote id the server no longer knows about.
	// Usually means tracking state is stale; a force resync clears it.
	ErrNotFound = errors.New("not found on server")

	// ErrLocalIO marks a local file that could not be read during a scan.
	ErrLocalIO = errors.New("local read failed")

	// ErrConfig marks invalid configuration (bad exclusion pattern,
	// missing root path). Fatal before any remote action.
	ErrConfig = errors.New("invalid configuration")
)

// Kind returns the sentinel the error wraps, or nil if it wraps none.
func Kind(err error) error {
	for _, k := range []error{ErrTransport, ErrRemoteRejected, ErrNotFound, ErrLocalIO, ErrConfig} {
		if errors.Is(err, k) {
			return k
		}
	}

	return nil
}

// Transportf wraps a formatted error as a transport failure.
func Transportf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrTransport)...)
}

// Rejectedf wraps a formatted error as a remote rejection.
func Rejectedf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrRemoteRejected)...)
}

// NotFoundf wraps a formatted error as an unknown-remote-id failure.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Configf wraps a formatted error as a fatal configuration failure.
func Configf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConfig)...)
}
