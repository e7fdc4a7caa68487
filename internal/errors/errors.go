// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrExecutionLocked = errors.New("execution is locked")
	ErrNotFound        = errors.New("not found")
	ErrTagExists       = errors.New("tag already exists")
	ErrProfileExists   = errors.New("profile already exists")
	ErrProfileClosed   = errors.New("profile record is closed")
	ErrEmptyBatch      = errors.New("empty batch")
)

// ValidationError represents a rejected input, reported before any write.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// InvariantError represents a programming-error-class failure, e.g.
// deriving a trade from an empty execution list. It is never recovered
// from; the enclosing transaction rolls back.
type InvariantError struct {
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("invariant violated [%s]: %s", e.Invariant, e.Detail)
	}
	return fmt.Sprintf("invariant violated [%s]", e.Invariant)
}

// NewInvariantError creates a new InvariantError.
func NewInvariantError(invariant, detail string) *InvariantError {
	return &InvariantError{Invariant: invariant, Detail: detail}
}

// StorageError represents a failure inside the storage port.
type StorageError struct {
	Entity    string
	Operation string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [%s] %s: %v", e.Entity, e.Operation, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError.
func NewStorageError(entity, operation string, err error) *StorageError {
	return &StorageError{Entity: entity, Operation: operation, Err: err}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
