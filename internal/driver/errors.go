package driver

import (
	"errors"
	"fmt"
)

// Error is a failure of a batch, reset or migration.
//
// The enclosing transaction has always been rolled back by the time an
// Error is returned, and the presence cache is unchanged.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Operation is the index of the failing batch operation, or -1.
	Operation int

	// ArgSet is the index of the failing argument tuple, or -1.
	ArgSet int

	// Table is the table of the failing operation, if it has one.
	Table string

	// Stored and Expected are the versions involved in a mismatch.
	Stored   int
	Expected int

	// Err is the underlying storage or validation error.
	Err error
}

// ErrorCode categorizes driver errors.
type ErrorCode string

const (
	// ErrCodeVersionMismatch indicates a migration whose from version does
	// not equal the stored version.
	ErrCodeVersionMismatch ErrorCode = "VERSION_MISMATCH"

	// ErrCodeExecutionFailure indicates a statement failed in storage.
	ErrCodeExecutionFailure ErrorCode = "EXECUTION_FAILURE"

	// ErrCodeMalformedArgument indicates a batch argument or operation was
	// rejected before execution.
	ErrCodeMalformedArgument ErrorCode = "MALFORMED_ARGUMENT"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Code == ErrCodeVersionMismatch:
		msg += fmt.Sprintf(" (stored=%d, expected=%d)", e.Stored, e.Expected)
	case e.Operation >= 0 && e.ArgSet >= 0:
		msg += fmt.Sprintf(" (operation=%d, args=%d, table=%s)", e.Operation, e.ArgSet, e.Table)
	case e.Operation >= 0:
		msg += fmt.Sprintf(" (operation=%d, table=%s)", e.Operation, e.Table)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsVersionMismatch returns true if err is a version mismatch error.
// Uses errors.As to handle wrapped errors.
func IsVersionMismatch(err error) bool {
	return hasCode(err, ErrCodeVersionMismatch)
}

// IsExecutionFailure returns true if err is a storage execution failure.
func IsExecutionFailure(err error) bool {
	return hasCode(err, ErrCodeExecutionFailure)
}

// IsMalformedArgument returns true if err rejected a batch argument.
func IsMalformedArgument(err error) bool {
	return hasCode(err, ErrCodeMalformedArgument)
}

func hasCode(err error, code ErrorCode) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// newVersionMismatch creates an Error for a migration applied to the wrong
// stored version.
func newVersionMismatch(stored, expected int) *Error {
	return &Error{
		Code:      ErrCodeVersionMismatch,
		Message:   "incompatible migration set applied",
		Operation: -1,
		ArgSet:    -1,
		Stored:    stored,
		Expected:  expected,
	}
}

// newExecutionFailure creates an Error for a failed statement outside of a
// batch (reset, migration, script).
func newExecutionFailure(message string, err error) *Error {
	return &Error{
		Code:      ErrCodeExecutionFailure,
		Message:   message,
		Operation: -1,
		ArgSet:    -1,
		Err:       err,
	}
}

// asDriverError leaves *Error values alone and wraps anything else as an
// execution failure.
func asDriverError(message string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return newExecutionFailure(message, err)
}
