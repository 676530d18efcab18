package syncer

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes synchronization failures so callers can tell
// "remote flaked, try again later" from "local data is damaged".
type ErrorKind string

const (
	// KindTransientRemote covers network, timeout, and HTTP failures
	// on the oracle or download calls. Never fatal; the prior mirror
	// and store remain queryable.
	KindTransientRemote ErrorKind = "TRANSIENT_REMOTE"

	// KindMalformedInput covers unusable downloaded content (no
	// recoverable header, unreadable stream).
	KindMalformedInput ErrorKind = "MALFORMED_INPUT"

	// KindStorage covers failures writing the hash store, the mirror,
	// or the watermark.
	KindStorage ErrorKind = "STORAGE"
)

// SyncError is a categorized synchronization failure.
type SyncError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *SyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func newSyncError(kind ErrorKind, message string, err error) *SyncError {
	return &SyncError{Kind: kind, Message: message, Err: err}
}

// IsTransientRemote reports whether err is a remote-side failure.
// Uses errors.As to handle wrapped errors.
func IsTransientRemote(err error) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind == KindTransientRemote
	}
	return false
}
