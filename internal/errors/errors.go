// Package errors provides structured error types for the hostwatch system.
// All errors include a category, code, message, and retryable flag for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategorySerialize ErrorCategory = "SERIALIZE"
	ErrCategoryProtocol  ErrorCategory = "PROTOCOL"
	ErrCategoryBackend   ErrorCategory = "BACKEND"
	ErrCategoryConfig    ErrorCategory = "CONFIG"
	ErrCategoryInternal  ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Serialize codes
	CodeEncodingFailed = "ENCODING_FAILED"
	CodeParseFailed    = "PARSE_FAILED"

	// Protocol codes
	CodeMissingAction = "MISSING_ACTION"
	CodeUnknownAction = "UNKNOWN_ACTION"
	CodeMissingValue  = "MISSING_VALUE"
	CodeInvalidMax    = "INVALID_MAX"

	// Backend codes
	CodeBackendUnavailable = "BACKEND_UNAVAILABLE"
	CodeBackendIO          = "BACKEND_IO"
	CodeBackendReadOnly    = "BACKEND_READ_ONLY"

	// Config codes
	CodeInvalidConfig = "INVALID_CONFIG"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// HostwatchError is the structured error type used throughout the system.
type HostwatchError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *HostwatchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *HostwatchError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *HostwatchError) Is(target error) bool {
	var t *HostwatchError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new HostwatchError.
func New(category ErrorCategory, code, message string) *HostwatchError {
	return &HostwatchError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new HostwatchError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *HostwatchError {
	return &HostwatchError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var he *HostwatchError
	if errors.As(err, &he) {
		return he.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a HostwatchError.
func GetCategory(err error) ErrorCategory {
	var he *HostwatchError
	if errors.As(err, &he) {
		return he.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a HostwatchError.
func GetCode(err error) string {
	var he *HostwatchError
	if errors.As(err, &he) {
		return he.Code
	}
	return ""
}

// isRetryable determines if an error code is retryable. Only transient
// backend I/O failures qualify; protocol and serialization errors are
// deterministic and retrying them cannot succeed.
func isRetryable(category ErrorCategory, code string) bool {
	return category == ErrCategoryBackend && code == CodeBackendIO
}

// Convenience constructors for common errors.

func NewSerializeError(code, message string, cause error) *HostwatchError {
	return Wrap(ErrCategorySerialize, code, message, cause)
}

func NewProtocolError(code, message string) *HostwatchError {
	return New(ErrCategoryProtocol, code, message)
}

func NewBackendError(code, message string, cause error) *HostwatchError {
	return Wrap(ErrCategoryBackend, code, message, cause)
}

func NewInternalError(message string, cause error) *HostwatchError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
