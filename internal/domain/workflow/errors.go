package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not valid
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when a guard condition fails
	ErrGuardFailed = errors.New("guard condition failed")

	// ErrAlreadyPending is returned when a report that is not open is submitted
	ErrAlreadyPending = fmt.Errorf("%w: report is not open for submission", ErrInvalidTransition)

	// ErrMissingJustification is returned when a rejection carries no comment
	ErrMissingJustification = errors.New("rejection requires a comment")

	// ErrTokenAlreadyConsumed is returned when an approval token no longer matches
	ErrTokenAlreadyConsumed = errors.New("approval token already consumed")

	// ErrReportNotPending is returned when a review arrives for a report that left pending_approval
	ErrReportNotPending = errors.New("report is not pending approval")

	// ErrStaleDecision is returned when a conditional update lost against a concurrent decision
	ErrStaleDecision = errors.New("decision is stale")

	// ErrForbidden is returned when the acting identity may not perform the operation
	ErrForbidden = errors.New("actor is not permitted to perform this action")

	// ErrInvalidInput is returned for caller-correctable request errors
	ErrInvalidInput = errors.New("invalid input")
)

// IsConflict reports whether err means someone else already acted on the entity.
// Callers should refresh and show current state instead of a generic failure.
func IsConflict(err error) bool {
	return errors.Is(err, ErrTokenAlreadyConsumed) ||
		errors.Is(err, ErrReportNotPending) ||
		errors.Is(err, ErrStaleDecision)
}
