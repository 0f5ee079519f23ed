package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested message, mailbox or record does not exist
var ErrNotFound = errors.New("not found")

// ParseError indicates a raw message that could not be decoded.
// Callers skip and log it; it is never fatal to a batch cycle.
type ParseError struct {
	Location string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse message %s: %v", e.Location, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ModelInvocationError indicates the external model was unreachable, timed out,
// or returned output that could not be parsed. It triggers a degraded-mode
// record rather than aborting processing.
type ModelInvocationError struct {
	Model string
	Err   error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("model %s invocation failed: %v", e.Model, e.Err)
}

func (e *ModelInvocationError) Unwrap() error { return e.Err }

// PersistenceError indicates the datastore write failed. The dedup marker is
// not set in this case, so the message stays eligible for retry.
type PersistenceError struct {
	Mailbox string
	EmailID string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist analysis for %s/%s: %v", e.Mailbox, e.EmailID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
