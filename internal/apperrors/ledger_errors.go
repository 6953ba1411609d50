package apperrors

import (
	"fmt"
	"strings"
)

// Violation is a single failed field or rule check.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError carries every violation found, not just the first.
type ValidationError struct {
	Violations []Violation
}

// NewValidationError builds a ValidationError from one or more violations.
func NewValidationError(violations ...Violation) *ValidationError {
	return &ValidationError{Violations: violations}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if v.Field != "" {
			msgs = append(msgs, v.Field+": "+v.Message)
		} else {
			msgs = append(msgs, v.Message)
		}
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(msgs, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// HasRule reports whether any violation was raised by the given rule.
func (e *ValidationError) HasRule(rule string) bool {
	for _, v := range e.Violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}

// AuthorizationError is returned when an actor's role lacks a capability.
type AuthorizationError struct {
	ActorID    string
	Role       string
	Capability string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s: actor %s with role %q lacks capability %q", ErrForbidden.Error(), e.ActorID, e.Role, e.Capability)
}

func (e *AuthorizationError) Is(target error) bool {
	return target == ErrForbidden
}

// InvalidStateError is returned when an operation does not apply to the current lifecycle state.
type InvalidStateError struct {
	Entity    string
	ID        string
	State     string
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: cannot %s %s %s in state %s", ErrInvalidState.Error(), e.Operation, e.Entity, e.ID, e.State)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// AlreadyPostedError is returned on a second posting attempt for the same entry.
type AlreadyPostedError struct {
	EntryID string
}

func (e *AlreadyPostedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAlreadyPosted.Error(), e.EntryID)
}

// Is matches ErrAlreadyPosted and ErrInvalidState; a posted entry is in the wrong state for posting.
func (e *AlreadyPostedError) Is(target error) bool {
	return target == ErrAlreadyPosted || target == ErrInvalidState
}

// RowError describes why one statement row was rejected. Row is 1-based over data rows.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ImportError reports every rejected row of a statement import.
type ImportError struct {
	Rows []RowError
}

func (e *ImportError) Error() string {
	parts := make([]string, 0, len(e.Rows))
	for _, r := range e.Rows {
		if r.Field != "" {
			parts = append(parts, fmt.Sprintf("row %d %s: %s", r.Row, r.Field, r.Message))
		} else {
			parts = append(parts, fmt.Sprintf("row %d: %s", r.Row, r.Message))
		}
	}
	return fmt.Sprintf("%s: %s", ErrImport.Error(), strings.Join(parts, "; "))
}

func (e *ImportError) Is(target error) bool {
	return target == ErrImport
}

// IncompleteReconciliationError carries the remaining unreconciled counts.
type IncompleteReconciliationError struct {
	UnmatchedBank   int
	UnmatchedLedger int
}

func (e *IncompleteReconciliationError) Error() string {
	return fmt.Sprintf("%s: %d bank and %d ledger transactions unreconciled", ErrIncompleteReconciliation.Error(), e.UnmatchedBank, e.UnmatchedLedger)
}

func (e *IncompleteReconciliationError) Is(target error) bool {
	return target == ErrIncompleteReconciliation
}

// StaleMatchError is returned when matched ledger lines changed after they were matched.
type StaleMatchError struct {
	SessionID            string
	LedgerTransactionIDs []string
}

func (e *StaleMatchError) Error() string {
	return fmt.Sprintf("%s: session %s has stale ledger matches [%s]", ErrConflict.Error(), e.SessionID, strings.Join(e.LedgerTransactionIDs, ", "))
}

func (e *StaleMatchError) Is(target error) bool {
	return target == ErrConflict
}
