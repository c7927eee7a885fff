package waitlist

import (
	"fmt"

	"showbook/internal/shared/apperrors"
)

// Change describes what happened to the waitlist flag of an event.
type Change string

const (
	ChangeNone        Change = "NONE"
	ChangeActivated   Change = "ACTIVATED"
	ChangeDeactivated Change = "DEACTIVATED"
)

// Decide returns the waitlist flag an event must carry given its remaining
// capacity. Available seats always switch the waitlist off; a full event keeps
// whatever flag it had, because activation is an explicit admin or customer
// action and never automatic.
func Decide(remainingCapacity int, currentlyActive bool) bool {
	if remainingCapacity > 0 {
		return false
	}
	return currentlyActive
}

// CanActivate validates an explicit activation request. A sold-out event
// only gets a waitlist while someone is pending or already waitlisted.
func CanActivate(remainingCapacity, waitingReservations int) error {
	if remainingCapacity > 0 {
		return fmt.Errorf("%d seats remaining: %w", remainingCapacity, apperrors.ErrWaitlistActivation)
	}
	if waitingReservations <= 0 {
		return fmt.Errorf("no pending or waitlisted reservations: %w", apperrors.ErrWaitlistActivation)
	}
	return nil
}

// Diff classifies a flag change.
func Diff(before, after bool) Change {
	switch {
	case before == after:
		return ChangeNone
	case after:
		return ChangeActivated
	default:
		return ChangeDeactivated
	}
}
