package ingest

import "errors"

// Failure classes of the live path. All of them are recovered by falling back
// to the local snapshot.
var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrMalformedPayload  = errors.New("malformed payload")
	ErrMissingCredential = errors.New("missing credential")
)

// ErrSnapshotUnavailable means the fallback snapshot could not be read; the
// session is left with an empty event set.
var ErrSnapshotUnavailable = errors.New("snapshot unavailable")
