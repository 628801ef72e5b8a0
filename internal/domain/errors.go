package domain

import "fmt"

// StorageError reports a persistence failure (connectivity loss or
// constraint violation). It always carries the underlying cause and is
// propagated to the orchestrator, never handled locally: transcript
// integrity depends on failed writes being visible.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err with the failing operation name.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// GenerationError reports a model backend failure during or before
// streaming. It is surfaced to the caller as the single final chunk.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ValidationError reports malformed caller input, rejected before any
// state transition begins.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
