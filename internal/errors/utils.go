package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context, creating an *Error if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *Error {
	if err == nil {
		return nil
	}

	// Preserve context of an existing *Error
	var e *Error
	if errors.As(err, &e) {
		return &Error{
			Type:    errType,
			Code:    code,
			Message: message,
			Cause:   e,
			Context: e.Context,
		}
	}

	return &Error{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapValidation wraps an error as a validation error
func WrapValidation(err error, code, message string) *Error {
	return Wrap(err, ErrorTypeValidation, code, message)
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *Error {
	return Wrap(err, ErrorTypeConfig, code, message)
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *Error {
	return Wrap(err, ErrorTypeIO, code, message)
}

// CollectErrors helper for common error collection patterns
func CollectErrors(errs ...error) []error {
	var collected []error
	for _, err := range errs {
		if err != nil {
			collected = append(collected, err)
		}
	}
	return collected
}

// CombineErrors combines multiple errors into a single error with context
func CombineErrors(errs ...error) error {
	nonNilErrs := CollectErrors(errs...)
	if len(nonNilErrs) == 0 {
		return nil
	}
	if len(nonNilErrs) == 1 {
		return nonNilErrs[0]
	}

	var messages []string
	for _, err := range nonNilErrs {
		messages = append(messages, err.Error())
	}

	return &Error{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeMultiple,
		Message: fmt.Sprintf("multiple errors occurred: %d errors", len(nonNilErrs)),
		Cause:   errors.Join(nonNilErrs...),
		Context: map[string]interface{}{
			"error_count": len(nonNilErrs),
			"errors":      messages,
		},
	}
}

// Chain returns err and every error it wraps, outermost first. Joined
// errors are not expanded.
func Chain(err error) []error {
	var chain []error
	for err != nil {
		chain = append(chain, err)
		err = errors.Unwrap(err)
	}
	return chain
}

// HasType reports whether any *Error in the chain has the given type.
func HasType(err error, errType ErrorType) bool {
	for _, e := range Chain(err) {
		if te, ok := e.(*Error); ok && te.Type == errType {
			return true
		}
	}
	return false
}

// ContextOf merges the context of every *Error in the chain. Outer errors
// win on conflicting keys.
func ContextOf(err error) map[string]interface{} {
	merged := make(map[string]interface{})
	chain := Chain(err)
	for i := len(chain) - 1; i >= 0; i-- {
		if te, ok := chain[i].(*Error); ok {
			for k, v := range te.Context {
				merged[k] = v
			}
		}
	}
	return merged
}

// Annotate attaches key to the outermost *Error in err's chain and returns
// err unchanged. Errors without an *Error in the chain pass through.
func Annotate(err error, key string, value interface{}) error {
	var e *Error
	if errors.As(err, &e) {
		e.WithContext(key, value)
	}
	return err
}
