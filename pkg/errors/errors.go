// Package errors provides structured error handling for resourcekit
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeStructural represents attempts to deserialize into a non-record type
	ErrorTypeStructural ErrorType = "structural"
	// ErrorTypeConversion represents raw values that cannot be coerced into their declared type
	ErrorTypeConversion ErrorType = "conversion"
	// ErrorTypeMissingField represents required configuration fields that are absent
	ErrorTypeMissingField ErrorType = "missing_field"
	// ErrorTypeNotFound represents resource not found errors
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeDeserialization represents failures while materializing a typed instance
	ErrorTypeDeserialization ErrorType = "deserialization"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNotSupported represents operations a provider does not support
	ErrorTypeNotSupported ErrorType = "not_supported"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// codeOf maps an error type to its wire-level error code.
func codeOf(t ErrorType) string {
	switch t {
	case ErrorTypeStructural:
		return "DS_RESOURCE_STRUCTURAL_ERROR"
	case ErrorTypeConversion:
		return "DS_RESOURCE_CONVERSION_ERROR"
	case ErrorTypeMissingField:
		return "DS_RESOURCE_MISSING_FIELD_ERROR"
	case ErrorTypeNotFound:
		return "DS_RESOURCE_NOT_FOUND_ERROR"
	case ErrorTypeDeserialization:
		return "DS_RESOURCE_DESERIALIZATION_ERROR"
	case ErrorTypeValidation:
		return "DS_RESOURCE_VALIDATION_ERROR"
	case ErrorTypeNotSupported:
		return "DS_RESOURCE_NOT_SUPPORTED_ERROR"
	case ErrorTypeConfig:
		return "DS_RESOURCE_CONFIG_ERROR"
	default:
		return "DS_RESOURCE_ERROR"
	}
}

// statusOf maps an error type to the HTTP status class callers surface it as.
func statusOf(t ErrorType) int {
	switch t {
	case ErrorTypeMissingField, ErrorTypeValidation, ErrorTypeConfig:
		return 400
	case ErrorTypeNotFound:
		return 404
	case ErrorTypeStructural, ErrorTypeConversion, ErrorTypeDeserialization:
		return 422
	case ErrorTypeNotSupported:
		return 501
	default:
		return 500
	}
}

// Error represents a structured error with context
type Error struct {
	Type       ErrorType
	Code       string
	StatusCode int
	Message    string
	Cause      error
	Details    map[string]interface{}
	Stack      []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:       errType,
		Code:       codeOf(errType),
		StatusCode: statusOf(errType),
		Message:    message,
		Stack:      captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:       errType,
			Code:       codeOf(errType),
			StatusCode: statusOf(errType),
			Message:    message,
			Cause:      err,
			Stack:      existingErr.Stack,
		}
	}

	return &Error{
		Type:       errType,
		Code:       codeOf(errType),
		StatusCode: statusOf(errType),
		Message:    message,
		Cause:      err,
		Stack:      captureStack(2),
	}
}

// NewStructural reports that a deserialization target is not record-shaped.
func NewStructural(message string) *Error {
	return New(ErrorTypeStructural, message)
}

// NewConversion reports a raw value that cannot be coerced into its declared type.
func NewConversion(message string) *Error {
	return New(ErrorTypeConversion, message)
}

// WrapConversion wraps a coercion failure with additional context.
func WrapConversion(err error, message string) *Error {
	return Wrap(err, ErrorTypeConversion, message)
}

// NewMissingField reports a required configuration field that is absent.
// The offending field name is recorded in the error details.
func NewMissingField(field string) *Error {
	return New(ErrorTypeMissingField, fmt.Sprintf("missing required field: %s", field)).
		WithDetail("field", field)
}

// NewUnknownResource reports that no descriptor matches the requested
// (kind, version) pair.
func NewUnknownResource(kind, version string) *Error {
	return New(ErrorTypeNotFound, fmt.Sprintf("no resource registered for %s:v%s", kind, version)).
		WithDetail("kind", kind).
		WithDetail("version", version)
}

// NewDeserialization reports a failure while materializing a typed instance.
func NewDeserialization(message string) *Error {
	return New(ErrorTypeDeserialization, message)
}

// WrapDeserialization wraps any failure encountered while materializing an
// instance, preserving the original cause's description in the details.
func WrapDeserialization(err error, message string) *Error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, ErrorTypeDeserialization, message).
		WithDetail("cause", err.Error())
	var inner *Error
	if errors.As(err, &inner) {
		wrapped = wrapped.WithDetail("cause_type", string(inner.Type))
	} else {
		wrapped = wrapped.WithDetail("cause_type", fmt.Sprintf("%T", err))
	}
	return wrapped
}

// NewValidation reports input that fails validation before reaching a backend.
func NewValidation(message string) *Error {
	return New(ErrorTypeValidation, message)
}

// NewNotSupported reports an optional operation a provider does not implement.
func NewNotSupported(message string) *Error {
	return New(ErrorTypeNotSupported, message)
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// StatusCode returns the HTTP status class of the error, or 500 for errors
// that do not carry one.
func StatusCode(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return 500
	}
	return e.StatusCode
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
