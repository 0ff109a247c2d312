// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies an error for presentation and retry decisions.
type ErrorKind string

const (
	// KindValidation marks malformed or missing input. Never retryable.
	KindValidation ErrorKind = "validation"
	// KindBusiness marks a domain-rule violation. Never retryable.
	KindBusiness ErrorKind = "business"
	// KindDatabase marks an underlying storage failure. Retryable when transient.
	KindDatabase ErrorKind = "database"
)

// Common application errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrCategoryInUse  = errors.New("category in use")
	ErrDefaultLocked  = errors.New("default category cannot be deleted")
)

// Error is the typed error crossing the repository boundary. Every error a
// repository or service returns is one of these; anything untyped coming out
// of the storage driver gets wrapped as a database error first.
type Error struct {
	Err       error
	Message   string
	Kind      ErrorKind
	Retryable bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError aggregates every violated rule for a call into one
// error instead of short-circuiting on the first failure.
func NewValidationError(violations []string) error {
	return &Error{
		Kind:    KindValidation,
		Message: strings.Join(violations, "; "),
	}
}

// NewBusinessError wraps a domain-rule violation.
func NewBusinessError(message string, err error) error {
	return &Error{
		Kind:    KindBusiness,
		Message: message,
		Err:     err,
	}
}

// NewDatabaseError wraps a storage failure. Transient failures should pass
// retryable=true so callers can offer a retry.
func NewDatabaseError(message string, err error, retryable bool) error {
	return &Error{
		Kind:      KindDatabase,
		Message:   message,
		Err:       err,
		Retryable: retryable,
	}
}

// WrapStorage re-wraps an error as a retryable database error unless it is
// already a typed domain error, which passes through unchanged.
func WrapStorage(message string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return NewDatabaseError(message, err, true)
}

// KindOf returns the kind of a typed error, or an empty kind for untyped errors.
func KindOf(err error) ErrorKind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return ""
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Retryable
	}
	return false
}
