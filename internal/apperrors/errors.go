// Package apperrors defines the error taxonomy shared by the ledger
// services. Handlers translate these into HTTP responses; everything
// below the handler layer works with errors.As/Is on these types.
package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError marks malformed input rejected before any write.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidation builds a ValidationError with a formatted message.
func NewValidation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError marks a missing referenced resource (student, class,
// payment). No side effects have occurred when it is returned.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// NewNotFound builds a NotFoundError for the named resource.
func NewNotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// DuplicateError marks an attempt to record a second regular payment
// for the same student and cycle. It is a routine condition, not a
// failure of the system, and callers are expected to branch on it.
type DuplicateError struct {
	Msg string
}

func (e *DuplicateError) Error() string { return e.Msg }

// NewDuplicate builds a DuplicateError with a formatted message.
func NewDuplicate(format string, args ...interface{}) error {
	return &DuplicateError{Msg: fmt.Sprintf(format, args...)}
}

// TransactionAbortError wraps a store-level transaction failure. The
// whole multi-record write has been rolled back; callers may retry.
type TransactionAbortError struct {
	Err error
}

func (e *TransactionAbortError) Error() string {
	return "transaction aborted: " + e.Err.Error()
}

func (e *TransactionAbortError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// IsDuplicate reports whether err is a DuplicateError.
func IsDuplicate(err error) bool {
	var de *DuplicateError
	return errors.As(err, &de)
}
