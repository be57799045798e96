package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	// ErrUnsupportedSource: input is neither a PDF nor a text archive. The source yields no records.
	ErrUnsupportedSource = errors.New("unsupported source")
	// ErrMissingCapability: a text/layout extraction facility is unavailable.
	ErrMissingCapability = errors.New("missing extraction capability")
	ErrNoPages           = errors.New("no extractable pages")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrDatabase          = errors.New("database error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func UnsupportedSourceError(path string) error {
	return NewAppError("UNSUPPORTED_SOURCE", fmt.Sprintf("%s is neither a PDF nor a zip of page texts", path), ErrUnsupportedSource)
}

func MissingCapabilityError(what string, cause error) error {
	if cause == nil {
		cause = ErrMissingCapability
	} else {
		cause = fmt.Errorf("%w: %w", ErrMissingCapability, cause)
	}
	return NewAppError("MISSING_CAPABILITY", what, cause)
}
