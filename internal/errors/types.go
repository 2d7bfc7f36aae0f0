// Package errors provides the structured error type used across the
// engine, the polling checker and the command line.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeUnsupported ErrorType = "unsupported"
	ErrorTypeIO          ErrorType = "io"
	ErrorTypeInternal    ErrorType = "internal"
)

// Error codes raised by this module.
const (
	ErrCodeUncloneable          = "ERR_UNCLONEABLE"
	ErrCodeUnsupportedContainer = "ERR_UNSUPPORTED_CONTAINER"
	ErrCodeInvalidPath          = "ERR_INVALID_PATH"
	ErrCodeInvalidConfig        = "ERR_INVALID_CONFIG"
	ErrCodeInvalidStep          = "ERR_INVALID_STEP"
	ErrCodeDecode               = "ERR_DECODE"
	ErrCodeWatch                = "ERR_WATCH"
	ErrCodeInvalidFilter        = "ERR_INVALID_FILTER"
	ErrCodeMultiple             = "ERR_MULTIPLE_ERRORS"
)

// Error is a structured error type with context.
type Error struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same type and code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewUnsupportedError creates an error for values the runtime cannot handle.
func NewUnsupportedError(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeUnsupported,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrUncloneable is returned when a polling baseline cannot be recorded.
func ErrUncloneable(kind string) *Error {
	return NewUnsupportedError(ErrCodeUncloneable, "value cannot be cloned for dirty checking").
		WithContext("kind", kind)
}

// ErrUnsupportedContainer is returned when a polled container cannot be indexed.
func ErrUnsupportedContainer(kind string) *Error {
	return NewValidationError(ErrCodeUnsupportedContainer, "container cannot be indexed by property").
		WithContext("kind", kind)
}

// ErrInvalidPath is returned when a dotted path does not resolve.
func ErrInvalidPath(path string) *Error {
	return NewValidationError(ErrCodeInvalidPath, "path does not resolve: "+path).
		WithContext("path", path)
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code string) bool {
	var e *Error
	for err != nil {
		if errors.As(err, &e) {
			if e.Code == code {
				return true
			}
			err = e.Cause
			continue
		}
		return false
	}
	return false
}
