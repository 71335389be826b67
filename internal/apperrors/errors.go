package apperrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers that need to decide between retrying,
// surfacing, or treating the condition as success.
type Code string

const (
	// Business
	CodeGatewayFailure   Code = "GATEWAY_FAILURE"
	CodeOrderNotFound    Code = "ORDER_NOT_FOUND"
	CodeDuplicateRequest Code = "DUPLICATE_REQUEST"
	CodeNotFound         Code = "NOT_FOUND"
	CodeValidationFailed Code = "VALIDATION_FAILED"

	// Auth
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"

	// Technical
	CodeDatabaseError Code = "DATABASE_ERROR"
	CodeUnknown       Code = "UNKNOWN_ERROR"
)

// Error carries a code alongside the message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error around an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the code from err, or CodeUnknown if err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsRetryable reports whether the caller may retry the whole operation.
// Gateway and database failures are transient; everything else needs a
// different request or manual intervention.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case CodeGatewayFailure, CodeDatabaseError:
		return true
	}
	return false
}
