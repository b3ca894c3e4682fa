package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an application error for callers and transport layers.
type Code string

const (
	CodeValidation        Code = "VALIDATION"
	CodeInvalidSnapshot   Code = "INVALID_SNAPSHOT"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeDependency        Code = "DEPENDENCY"
)

// AppError is the typed error carried across service boundaries.
type AppError struct {
	Code    Code
	Message string
	Err     error
}

// Error returns the human-readable message, including the wrapped cause.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError reports invalid caller-supplied input. Retrying with the
// same input will fail again.
func NewValidationError(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg}
}

// NewInvalidSnapshotError reports a corrupted persisted policy snapshot.
// Surfaced for manual review, never silently defaulted.
func NewInvalidSnapshotError(msg string) *AppError {
	return &AppError{Code: CodeInvalidSnapshot, Message: msg}
}

// NewInvalidTransitionError reports an illegal state-machine move. The booking
// itself is untouched.
func NewInvalidTransitionError(from, to string) *AppError {
	return &AppError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("illegal status transition from %q to %q", from, to),
	}
}

// NewForbiddenError reports a failed ownership or permission check.
func NewForbiddenError(msg string) *AppError {
	return &AppError{Code: CodeForbidden, Message: msg}
}

// NewNotFoundError reports a missing resource.
func NewNotFoundError(resource, id string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s not found", resource, id),
	}
}

// NewConflictError reports a concurrent-modification conflict. The caller
// should re-read and retry the whole operation.
func NewConflictError(msg string) *AppError {
	return &AppError{Code: CodeConflict, Message: msg}
}

// NewDependencyError reports a failed out-of-process collaborator call.
func NewDependencyError(dependency string, err error) *AppError {
	return &AppError{
		Code:    CodeDependency,
		Message: fmt.Sprintf("%s call failed", dependency),
		Err:     err,
	}
}

// CodeOf returns the error's code, or empty if err is not an AppError.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
