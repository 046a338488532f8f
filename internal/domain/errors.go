package domain

import (
	"errors"
	"fmt"
)

// ErrNotReady is returned when a question arrives before any document has
// been ingested. It is distinct from an empty retrieval over a populated
// index so callers can prompt the user to upload documents first.
var ErrNotReady = errors.New("no documents have been ingested yet")

// ExtractionError reports a document that could not be read or has an
// unsupported format. The ingest that produced it leaves the index unchanged.
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// RemoteError reports a failure talking to the embedding or generative
// backend. It is retryable from the caller's point of view; the core does
// not retry on its own.
type RemoteError struct {
	Backend string
	Err     error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s backend: %v", e.Backend, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// DimensionMismatchError reports a vector whose length disagrees with the
// collection's established dimensionality.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension %d does not match collection dimension %d", e.Got, e.Want)
}

// ConfigurationError reports an invalid parameter detected at construction
// time, before any ingest is attempted.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
