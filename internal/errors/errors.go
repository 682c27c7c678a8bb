// Package errors provides a centralized error handling system with typed
// errors and a registry pattern for consistent error creation across the
// sun2 daemon.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of an error for machine-readable
// classification.
type ErrorType int

const (
	// ErrorTypeUnknown is the default error type for unclassified errors.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeValidation covers input validation and service-call misuse.
	ErrorTypeValidation
	// ErrorTypeConfig covers configuration errors such as unresolvable
	// timezones or malformed option files.
	ErrorTypeConfig
	// ErrorTypeTransport covers WebSocket and REST errors talking to the host.
	ErrorTypeTransport
	// ErrorTypeNotFound covers entry or entity lookup failures.
	ErrorTypeNotFound
	// ErrorTypeInternal covers internal/unexpected errors.
	ErrorTypeInternal
)

// typeNames maps error types to their string representations.
var typeNames = map[ErrorType]string{
	ErrorTypeUnknown:    "unknown",
	ErrorTypeValidation: "validation",
	ErrorTypeConfig:     "config",
	ErrorTypeTransport:  "transport",
	ErrorTypeNotFound:   "not_found",
	ErrorTypeInternal:   "internal",
}

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Error represents a typed error with additional context.
// It implements the error interface and supports error wrapping.
type Error struct {
	// Type is the category of the error.
	Type ErrorType
	// Code is an optional machine-readable error code (e.g., "entry_not_found").
	Code string
	// Message is the human-readable error message.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var prefix string
	if e.Code != "" {
		prefix = fmt.Sprintf("[%s] ", e.Code)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s%s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s%s", prefix, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether the error matches the target error.
// It matches if the target is an *Error with the same Type and,
// when both are set, the same Code.
func (e *Error) Is(target error) bool {
	var targetErr *Error
	if errors.As(target, &targetErr) {
		if e.Type != targetErr.Type {
			return false
		}
		if e.Code != "" && targetErr.Code != "" {
			return e.Code == targetErr.Code
		}
		return true
	}
	return false
}

// WithCause returns a copy of the error with the specified cause.
func (e *Error) WithCause(cause error) *Error {
	newErr := *e
	newErr.Cause = cause
	return &newErr
}

// WithMessage returns a copy of the error with a new message.
func (e *Error) WithMessage(msg string) *Error {
	newErr := *e
	newErr.Message = msg
	return &newErr
}

// WithMessagef returns a copy of the error with a formatted message.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	newErr := *e
	newErr.Message = fmt.Sprintf(format, args...)
	return &newErr
}

// New creates a new Error with the specified type and message.
func New(errType ErrorType, message string) *Error {
	return &Error{Type: errType, Message: message}
}

// Newf creates a new Error with the specified type and formatted message.
func Newf(errType ErrorType, format string, args ...any) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...)}
}

// NewWithCode creates a new Error with the specified type, code, and message.
func NewWithCode(errType ErrorType, code, message string) *Error {
	return &Error{Type: errType, Code: code, Message: message}
}

// Wrap wraps an existing error with a typed Error.
func Wrap(errType ErrorType, cause error, message string) *Error {
	return &Error{Type: errType, Message: message, Cause: cause}
}

// Wrapf wraps an existing error with a typed Error and formatted message.
func Wrapf(errType ErrorType, cause error, format string, args ...any) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// GetType extracts the ErrorType from an error.
// Returns ErrorTypeUnknown if the error is not an *Error.
func GetType(err error) ErrorType {
	var typedErr *Error
	if errors.As(err, &typedErr) {
		return typedErr.Type
	}
	return ErrorTypeUnknown
}

// GetCode extracts the error code from an error.
// Returns an empty string if the error is not an *Error or has no code.
func GetCode(err error) string {
	var typedErr *Error
	if errors.As(err, &typedErr) {
		return typedErr.Code
	}
	return ""
}

// IsType checks if an error is of a specific ErrorType.
func IsType(err error, errType ErrorType) bool {
	return GetType(err) == errType
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsConfig checks if an error is a configuration error.
func IsConfig(err error) bool {
	return IsType(err, ErrorTypeConfig)
}

// IsTransport checks if an error is a transport error.
func IsTransport(err error) bool {
	return IsType(err, ErrorTypeTransport)
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}
