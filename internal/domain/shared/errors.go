package shared

import (
	"context"
	"errors"
	"fmt"
)

// DomainError is the base error type for all domain errors
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

// Error kinds reported on job outcomes
const (
	KindReadError   = "ReadError"
	KindWriteError  = "WriteError"
	KindConfigError = "ConfigError"
	KindCanceled    = "Canceled"
)

// Grid I/O errors

// ReadError reports a grid that is missing, unreadable or malformed.
type ReadError struct {
	*DomainError
	Identifier string
	Cause      error
}

func NewReadError(identifier string, cause error) *ReadError {
	return &ReadError{
		DomainError: &DomainError{Message: fmt.Sprintf("failed to read grid %s: %v", identifier, cause)},
		Identifier:  identifier,
		Cause:       cause,
	}
}

func (e *ReadError) Unwrap() error {
	return e.Cause
}

// WriteError reports a label or date grid that could not be written.
type WriteError struct {
	*DomainError
	Identifier string
	Cause      error
}

func NewWriteError(identifier string, cause error) *WriteError {
	return &WriteError{
		DomainError: &DomainError{Message: fmt.Sprintf("failed to write grid %s: %v", identifier, cause)},
		Identifier:  identifier,
		Cause:       cause,
	}
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

// Configuration errors

// ConfigError reports an invalid parameter. It is raised before any job starts.
type ConfigError struct {
	*DomainError
	Field string
}

func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		DomainError: &DomainError{Message: fmt.Sprintf("invalid %s: %s", field, message)},
		Field:       field,
	}
}

// ErrorKind classifies err into one of the outcome error kinds.
// Returns "" for nil or unclassified errors.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return KindConfigError
	}

	var readErr *ReadError
	if errors.As(err, &readErr) {
		return KindReadError
	}

	var writeErr *WriteError
	if errors.As(err, &writeErr) {
		return KindWriteError
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}

	return ""
}

// IsConfigError reports whether err carries a ConfigError
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}
