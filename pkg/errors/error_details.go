package errors

import "fmt"

// ErrorDetails represents a classified error: a code that callers branch on,
// plus the field it occurred on, if any.
type ErrorDetails struct {
	// Message (required) is the human readable error message.
	// E.g. "odds must be non-zero with magnitude of at least 100".
	Message string

	// Code (required) is one of the ErrorCode values.
	// E.g. "invalid_action_payload".
	Code string

	// Field (optional) is the related field the error occurred on, if any.
	Field string

	// Err (optional) is the underlying cause.
	Err error
}

// NewErrorDetails creates a new ErrorDetails struct with the given parameters.
func NewErrorDetails(message, code, field string) *ErrorDetails {
	return &ErrorDetails{
		Message: message,
		Code:    code,
		Field:   field,
	}
}

// NewErrorDetailsWithCause creates a new ErrorDetails that keeps err as its cause.
func NewErrorDetailsWithCause(message string, code ErrorCode, field string, err error) *ErrorDetails {
	return &ErrorDetails{
		Message: message,
		Code:    string(code),
		Field:   field,
		Err:     err,
	}
}

// Error() is used to implement the Golang `error` interface.
func (e *ErrorDetails) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *ErrorDetails) Unwrap() error {
	return e.Err
}

// ErrorCodeEquals checks whether a given `error` has a specific code.
func ErrorCodeEquals(err error, code string) bool {
	errDetails, ok := err.(*ErrorDetails)
	if !ok {
		return false
	}

	return errDetails.Code == code
}
