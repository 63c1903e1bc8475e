package entities

import (
	"errors"
	"fmt"
)

// ErrorCode classifies operation failures so callers can decide whether to
// adjust their inputs and retry.
type ErrorCode string

const (
	ErrCodeCreationArgument ErrorCode = "CREATION_ARGUMENT"
	ErrCodeQuantityExceeded ErrorCode = "QUANTITY_EXCEEDED"
	ErrCodeQuantityMismatch ErrorCode = "QUANTITY_MISMATCH"
	ErrCodeStateConflict    ErrorCode = "STATE_CONFLICT"
	ErrCodeMissingProperty  ErrorCode = "MISSING_PROPERTY"
	ErrCodeUnsupported      ErrorCode = "UNSUPPORTED"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeInvalidBehaviour ErrorCode = "INVALID_BEHAVIOUR"
)

// Error represents a domain-level operation error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error with a formatted message.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsKind reports whether err carries the given code anywhere in its chain.
func IsKind(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// KindOf returns the code of the first domain error in the chain, or "" if none.
func KindOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return ""
}
