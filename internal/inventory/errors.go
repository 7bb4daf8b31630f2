package inventory

import (
	"errors"
	"fmt"
)

// Error represents a failure surfaced by an engine operation.
//
// All engine errors are local, synchronous, and non-retryable: they are
// scoped to the single operation that produced them and carry no
// partial-rollback logic of their own (rolling back is the transaction
// owner's job).
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Entity names the entity involved, when one is known.
	Entity string

	// Message is a human-readable description.
	Message string
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a referenced entity or variable does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeConflict indicates a create collided with an existing name.
	ErrCodeConflict ErrorCode = "CONFLICT"

	// ErrCodeValidation indicates a malformed desired-state document,
	// including any attempt to rename an entity.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeReference indicates a desired-state document names a
	// related entity that cannot be resolved during an add.
	ErrCodeReference ErrorCode = "REFERENCE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("%s: %s (entity=%s)", e.Code, e.Message, e.Entity)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNotFound returns true if the error is a not-found error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsConflict returns true if the error is a name conflict error.
func IsConflict(err error) bool {
	return hasCode(err, ErrCodeConflict)
}

// IsValidation returns true if the error is a validation error.
func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

// IsReference returns true if the error is a dangling-reference error.
func IsReference(err error) bool {
	return hasCode(err, ErrCodeReference)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// NewNotFoundError creates an Error for a missing entity.
func NewNotFoundError(kind, name string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Entity:  name,
		Message: fmt.Sprintf("%s %q does not exist", kind, name),
	}
}

// NewVarNotFoundError creates an Error for removing an absent variable.
func NewVarNotFoundError(entity, key string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Entity:  entity,
		Message: fmt.Sprintf("variable %q not found", key),
	}
}

// NewConflictError creates an Error for a duplicate entity name.
func NewConflictError(kind, name string) *Error {
	return &Error{
		Code:    ErrCodeConflict,
		Entity:  name,
		Message: fmt.Sprintf("%s %q already exists", kind, name),
	}
}

// NewValidationError creates an Error for a malformed document.
func NewValidationError(entity, message string) *Error {
	return &Error{
		Code:    ErrCodeValidation,
		Entity:  entity,
		Message: message,
	}
}

// NewReferenceError creates an Error for an unresolvable related entity.
func NewReferenceError(kind, name string) *Error {
	return &Error{
		Code:    ErrCodeReference,
		Entity:  name,
		Message: fmt.Sprintf("referenced %s %q does not exist", kind, name),
	}
}
