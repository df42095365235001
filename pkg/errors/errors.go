// Package errors provides structured error types for the graph OT engine.
//
// This package defines error codes and types that enable:
//   - Consistent classification of delta failures across the engine and CLI
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes fall into the failure classes the engine distinguishes:
//   - MALFORMED_DELTA: a delta is missing a required field (recoverable by rollback)
//   - PROPERTY_CONFLICT: a property edit saw an unexpected baseline (informational)
//   - PATH_COLLISION, PATH_IN_USE: rebase conflicts that need a caller decision
//   - everything else under "Structural" below: invariant breaks that are fatal
//
// # Usage
//
//	err := errors.NotFound(path)
//	if errors.Is(err, errors.ErrCodePathNotFound) {
//	    // Handle missing node
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "failed to load %s", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Recoverable delta errors
	ErrCodeMalformedDelta   Code = "MALFORMED_DELTA"
	ErrCodePropertyConflict Code = "PROPERTY_CONFLICT"

	// Structural violations
	ErrCodePathNotFound        Code = "PATH_NOT_FOUND"
	ErrCodePathMissingAncestor Code = "PATH_MISSING_ANCESTOR"
	ErrCodePathAlreadyExists   Code = "PATH_ALREADY_EXISTS"
	ErrCodeNodeHasChildren     Code = "NODE_HAS_CHILDREN"
	ErrCodeAmbiguousArc        Code = "AMBIGUOUS_ARC"
	ErrCodePropertyNotFound    Code = "PROPERTY_NOT_FOUND"
	ErrCodeDuplicateDelete     Code = "DUPLICATE_DELETE"

	// Rebase conflicts
	ErrCodePathCollision Code = "PATH_COLLISION"
	ErrCodePathInUse     Code = "PATH_IN_USE"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeStaleRevision Code = "STALE_REVISION"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Path    string // Offending graph path, if any
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// AtPath creates an Error that carries the offending graph path.
func AtPath(code Code, path string, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Path = path
	return e
}

// NotFound is shorthand for a PATH_NOT_FOUND error on path.
func NotFound(path string) *Error {
	return AtPath(ErrCodePathNotFound, path, "path not found: %s", path)
}

// Malformed is shorthand for a MALFORMED_DELTA error.
func Malformed(format string, args ...any) *Error {
	return New(ErrCodeMalformedDelta, format, args...)
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetPath extracts the offending path from an error, if available.
func GetPath(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Path
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsStructural reports whether err is one of the fatal invariant violations
// that leave the graph in a state only a full resync can repair.
func IsStructural(err error) bool {
	switch GetCode(err) {
	case ErrCodePathNotFound, ErrCodePathMissingAncestor, ErrCodePathAlreadyExists,
		ErrCodeNodeHasChildren, ErrCodeAmbiguousArc, ErrCodePropertyNotFound,
		ErrCodeDuplicateDelete:
		return true
	}
	return false
}

// IsMergeConflict reports whether err is a rebase conflict the engine
// refuses to resolve on its own.
func IsMergeConflict(err error) bool {
	switch GetCode(err) {
	case ErrCodePathCollision, ErrCodePathInUse:
		return true
	}
	return false
}
