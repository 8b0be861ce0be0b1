// Package apperr provides the error taxonomy used at sync engine boundaries.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an engine error. Callers branch on codes, never on
// message text.
type Code string

const (
	// CodeConnectivity marks transport-level failures: no network,
	// refused connections, timeouts. Always retryable; a pending record
	// is never lost to one.
	CodeConnectivity Code = "CONNECTIVITY"

	// CodeConflict marks a record the remote already holds in a newer
	// version. Resolved automatically, informational only.
	CodeConflict Code = "CONFLICT"

	// CodeValidation marks a malformed local record. The record is
	// skipped, the batch proceeds.
	CodeValidation Code = "VALIDATION"

	// CodeExhaustion marks the fatal startup case: local content is
	// empty and the initial download failed.
	CodeExhaustion Code = "EXHAUSTION"

	// CodeSyncInProgress marks a rejected concurrent sync attempt.
	CodeSyncInProgress Code = "SYNC_IN_PROGRESS"

	// CodeRemote marks a non-2xx response from the remote API.
	CodeRemote Code = "REMOTE"

	// CodeDatabase marks a local store failure.
	CodeDatabase Code = "DATABASE"
)

// Error is an engine error with a taxonomy code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap wraps an existing error with a taxonomy code.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the taxonomy code of err, or the empty code if err
// carries none anywhere in its chain.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// Retryable reports whether err is transient: the operation may be
// retried without risk of data loss or duplication.
func Retryable(err error) bool {
	return HasCode(err, CodeConnectivity)
}
