package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for arborstats errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Segment source error codes
const (
	SOURCE_UNAVAILABLE    ErrorCode = "SOURCE_UNAVAILABLE"
	SOURCE_SCHEMA_INVALID ErrorCode = "SOURCE_SCHEMA_INVALID"
	SOURCE_EMPTY          ErrorCode = "SOURCE_EMPTY"
)

// Flatten stage error codes
const (
	FLATTEN_FAILED  ErrorCode = "FLATTEN_FAILED"
	FLATTEN_NO_MESH ErrorCode = "FLATTEN_NO_MESH"
)

// Stats stage error codes
const (
	STATS_FAILED        ErrorCode = "STATS_FAILED"
	STATS_INPUT_MISSING ErrorCode = "STATS_INPUT_MISSING"
)

// Output layout error codes
const (
	LAYOUT_CREATE_FAILED ErrorCode = "LAYOUT_CREATE_FAILED"
	LAYOUT_READ_FAILED   ErrorCode = "LAYOUT_READ_FAILED"
)

// Error represents a structured error with error code, message, and optional cause.
// The Fatal flag distinguishes errors that must abort the whole run (bad input
// source, broken configuration) from per-segment errors that are converted to
// outcomes and never escape a unit of work.
type Error struct {
	Code    ErrorCode
	Message string
	Fatal   bool
	Cause   error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// NewError creates a new non-fatal Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewFatalError creates a new fatal Error with the given code and message.
// Fatal errors abort the run before any segment work starts.
func NewFatalError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Fatal:   true,
	}
}

// WrapError creates a new non-fatal Error that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapFatalError creates a new fatal Error that wraps an existing error.
func WrapFatalError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Fatal:   true,
		Cause:   cause,
	}
}

// IsFatal reports whether err (or any error in its chain) is a fatal Error.
func IsFatal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Fatal
	}
	return false
}

// CodeOf extracts the ErrorCode from err if it is (or wraps) an *Error.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
