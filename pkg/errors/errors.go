// Package errors provides structured error types for graphit.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and library packages
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - FILE_ACCESS, PARSE_ERROR: per-module failures that skip one module
//   - RESOLUTION_MISS, DUPLICATE_HANDLE, EXPANSION_OVERRUN: analysis diagnostics
//   - NO_MODULES: the only analysis condition that aborts a run
//   - INTERNAL_*: Unexpected internal errors
//
// Only NO_MODULES, validation failures and I/O failures on the output
// directory are returned as errors from a run. The diagnostic codes are
// attached to pipeline diagnostics and logged.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidStrategy, "unknown strategy: %s", name)
//	if errors.Is(err, errors.ErrCodeInvalidStrategy) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileAccess, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidStrategy Code = "INVALID_STRATEGY"
	ErrCodeInvalidDepth    Code = "INVALID_DEPTH"
	ErrCodeInvalidCache    Code = "INVALID_CACHE"

	// Per-module errors. These skip the affected module only.
	ErrCodeFileAccess Code = "FILE_ACCESS"
	ErrCodeParse      Code = "PARSE_ERROR"

	// Analysis diagnostics
	ErrCodeResolutionMiss   Code = "RESOLUTION_MISS"
	ErrCodeDuplicateHandle  Code = "DUPLICATE_HANDLE"
	ErrCodeExpansionOverrun Code = "EXPANSION_OVERRUN"

	// Run-level errors
	ErrCodeNoModules Code = "NO_MODULES"
	ErrCodeNotFound  Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
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

// Detail returns the message and cause of err without its code prefix.
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}

// Recoverable reports whether err only affects a single module and the run
// can continue without it.
func Recoverable(err error) bool {
	switch GetCode(err) {
	case ErrCodeFileAccess, ErrCodeParse:
		return true
	}
	return false
}
