package errors

import (
	stderr "errors"
	"fmt"
	"time"
)

// New returns an error that formats as the given text.
// Each call to New returns a distinct error value even if the text is identical.
func New(msg string) error {
	return stderr.New(msg)
}

// InvalidPathError reports a workspace assignment target that does not exist
// or is not a directory. The store is left unchanged.
type InvalidPathError struct {
	Path string
}

// Error is an implementation of the error interface.
func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("path %q does not exist or is not a directory", e.Path)
}

// SpawnError reports that the assistant binary could not be started at all
// (not found on PATH, permission denied).
type SpawnError struct {
	Err error
}

// Error is an implementation of the error interface.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("starting assistant process: %v", e.Err)
}

// Unwrap exposes the underlying start failure.
func (e *SpawnError) Unwrap() error { return e.Err }

// ExternalProcessError reports that the assistant ran and exited non-zero.
// Excerpt carries a best-effort diagnostic from stderr, falling back to
// stdout when stderr was empty.
type ExternalProcessError struct {
	ExitCode int
	Excerpt  string
}

// Error is an implementation of the error interface.
func (e *ExternalProcessError) Error() string {
	return fmt.Sprintf("assistant exited with code %d: %s", e.ExitCode, e.Excerpt)
}

// TimeoutError reports that the assistant exceeded its wall-clock budget and
// was forcibly terminated.
type TimeoutError struct {
	Timeout time.Duration
}

// Error is an implementation of the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("assistant did not finish within %s", e.Timeout)
}

// PersistenceError reports that a backing store could not be read or written.
// It degrades durability only: the in-memory mirror remains authoritative for
// the rest of the process lifetime.
type PersistenceError struct {
	Path string
	Err  error
}

// Error is an implementation of the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("backing store %q: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying IO failure.
func (e *PersistenceError) Unwrap() error { return e.Err }

// ChatBusyError reports that an invocation for the chat is already in flight.
// The request is dropped, not queued.
type ChatBusyError struct {
	ChatID int64
}

// Error is an implementation of the error interface.
func (e *ChatBusyError) Error() string {
	return fmt.Sprintf("chat %d already has an invocation in flight", e.ChatID)
}

// IsBusy reports whether the error chain contains a ChatBusyError.
func IsBusy(e error) bool {
	var busy *ChatBusyError
	return stderr.As(e, &busy)
}
