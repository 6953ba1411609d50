package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates that the actor is not allowed to perform the operation.
var ErrForbidden = errors.New("forbidden")

// ErrConflict indicates that the resource changed underneath the caller.
var ErrConflict = errors.New("conflict")

// ErrInvalidState indicates an operation attempted against the wrong lifecycle state.
var ErrInvalidState = errors.New("invalid state")

// ErrAlreadyPosted indicates a duplicate posting attempt.
var ErrAlreadyPosted = errors.New("entry already posted")

// ErrImport indicates that one or more statement rows could not be imported.
var ErrImport = errors.New("import error")

// ErrIncompleteReconciliation indicates unreconciled items remain in a session.
var ErrIncompleteReconciliation = errors.New("reconciliation incomplete")

// ErrInternal indicates an unexpected infrastructure failure.
var ErrInternal = errors.New("internal error")

// AppError wraps an infrastructure failure with an HTTP-ish status code.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError returns an error wrapping ErrNotFound for the given resource.
func NewNotFoundError(resource string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, resource)
}
