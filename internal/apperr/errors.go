// Package apperr defines the error kinds surfaced by the core: invalid
// transitions, validation failures, missing entities and permission
// violations. Callers match with errors.Is / errors.As.
package apperr

import (
	"errors"
	"fmt"

	"gitlab.com/yelinaung/po-tracker/internal/models"
)

// Sentinel errors shared across the core packages.
var (
	// ErrNotFound reports that a referenced entity does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied reports that the actor lacks the required role.
	ErrPermissionDenied = errors.New("permission denied")
)

// InvalidTransitionError reports a status change that is not permitted from
// the current state for the acting role. The engine never coerces or
// partially applies an invalid transition.
type InvalidTransitionError struct {
	From      models.Status
	Requested models.Status
	Role      models.Role
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q for role %q",
		e.From, e.Requested, e.Role)
}

// ValidationError reports malformed input: a missing decline reason, an
// allocation that does not sum to the total, a bad import row.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInvalidTransition reports whether err is (or wraps) an
// InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var te *InvalidTransitionError
	return errors.As(err, &te)
}
