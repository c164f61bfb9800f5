/*
errors.go - Error taxonomy for the leave workflows

PURPOSE:
  All workflow error types in one place. Every error is returned to the
  caller synchronously with enough structure to render a user message;
  nothing is retried internally.

CATEGORIES:
  ValidationError        malformed input (date range, half-day mismatch,
                         missing required approval actor)
  ConflictError          overlapping leave period, carries the conflict list
  InvalidStateTransition action not permitted from the current status
  AuthorizationError     actor lacks standing for the transition
  (insufficient balance lives in the balance package)

USAGE:
  Callers branch with errors.Is/errors.As:

    if errors.Is(err, leave.ErrConflict) { ... }
    var ce *leave.ConflictError
    if errors.As(err, &ce) { render(ce.Conflicts) }

SEE ALSO:
  - balance/errors.go: InsufficientBalanceError
  - api package: maps this taxonomy to HTTP status codes
*/
package leave

import (
	"errors"
	"fmt"

	"github.com/warp/leave-engine/balance"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("overlapping leave period")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrNotAuthorized     = errors.New("not authorized")

	ErrEmployeeNotFound = errors.New("employee not found")
	ErrTypeNotFound     = errors.New("leave type not found")
	ErrRequestNotFound  = errors.New("leave request not found")
	ErrScheduleNotFound = errors.New("leave schedule not found")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError reports malformed or inconsistent input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictError carries the complete, unordered list of conflicting records.
// No conflict has special meaning over another.
type ConflictError struct {
	EmployeeID string
	Conflicts  []Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("overlapping leave period for %s: %d conflict(s)",
		e.EmployeeID, len(e.Conflicts))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// TransitionError reports an action attempted from a status that does not
// permit it, e.g. approving an already-approved request.
type TransitionError struct {
	EntityType EntityType
	EntityID   string
	Status     string
	Action     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s %s %s from status %q",
		e.Action, e.EntityType, e.EntityID, e.Status)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// AuthorizationError reports an actor without standing for a transition.
type AuthorizationError struct {
	ActorID  string
	Action   string
	EntityID string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("actor %s is not authorized to %s %s",
		e.ActorID, e.Action, e.EntityID)
}

func (e *AuthorizationError) Unwrap() error { return ErrNotAuthorized }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid client input
// rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, balance.ErrInsufficientBalance) ||
		errors.Is(err, balance.ErrInvalidAmount)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrTypeNotFound) ||
		errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, balance.ErrRecordNotFound)
}
