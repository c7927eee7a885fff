// Package apperrors defines the error kinds shared by the capacity, reservation
// and reconciliation layers. Callers test for a kind with errors.Is and
// handlers translate kinds into HTTP status codes with HTTPStatus.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Pure computation / data integrity
	ErrInvalidCapacity        = errors.New("invalid capacity")
	ErrInvalidPersonCount     = errors.New("invalid person count")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrTerminalStateViolation = errors.New("reservation is in a terminal state")
	ErrWaitlistActivation     = errors.New("waitlist cannot be activated while capacity is available")
	ErrUnknownEventType       = errors.New("unknown event type")
	ErrValidation             = errors.New("validation failed")

	// Storage
	ErrNotFound            = errors.New("not found")
	ErrConcurrencyConflict = errors.New("concurrent modification")
	ErrReferencedEvent     = errors.New("event is still referenced by reservations")

	// Orchestration
	ErrReconciliationConflict = errors.New("reconciliation conflict")
)

// TransitionError reports a rejected status change. It unwraps to either
// ErrInvalidTransition or ErrTerminalStateViolation.
type TransitionError struct {
	From string
	To   string
	Kind error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", e.Kind, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return e.Kind
}

// NotFound wraps ErrNotFound with the missing resource.
func NotFound(resource, id string) error {
	return fmt.Errorf("%s %s: %w", resource, id, ErrNotFound)
}

// Conflict wraps ErrConcurrencyConflict with the contended resource.
func Conflict(resource, id string) error {
	return fmt.Errorf("%s %s: %w", resource, id, ErrConcurrencyConflict)
}

// IsRetryable reports whether the orchestration layer may retry after err.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// HTTPStatus maps an error kind to the status code handlers should answer with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCapacity),
		errors.Is(err, ErrInvalidPersonCount),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrTerminalStateViolation),
		errors.Is(err, ErrWaitlistActivation),
		errors.Is(err, ErrUnknownEventType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConcurrencyConflict),
		errors.Is(err, ErrReconciliationConflict),
		errors.Is(err, ErrReferencedEvent):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
