package reservations

import (
	"fmt"

	"showbook/internal/capacity"
	"showbook/internal/shared/apperrors"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusWaitlisted Status = "waitlisted"
	StatusConfirmed  Status = "confirmed"
	StatusCancelled  Status = "cancelled"
	StatusRejected   Status = "rejected"
)

// IsValid checks if the reservation status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusWaitlisted, StatusConfirmed, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusRejected
}

// Bucket says how a reservation in this status occupies seats
func (s Status) Bucket() capacity.Bucket {
	switch s {
	case StatusPending:
		return capacity.BucketPending
	case StatusWaitlisted:
		return capacity.BucketWaitlisted
	case StatusConfirmed:
		return capacity.BucketConfirmed
	default:
		return capacity.BucketReleased
	}
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled, StatusRejected, StatusWaitlisted},
	StatusWaitlisted: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusCancelled},
}

// CanTransitionTo checks the transition table only
func (s Status) CanTransitionTo(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Effect is what a transition means for the owning event
type Effect struct {
	CapacityFreed int  // persons released back to the event
	Recompute     bool // derived event state must be reconciled
}

// Transition validates from -> to for a reservation of the given size and
// reports its effect. It never mutates anything.
func Transition(from, to Status, persons int) (Effect, error) {
	if from.IsTerminal() {
		return Effect{}, &apperrors.TransitionError{From: string(from), To: string(to), Kind: apperrors.ErrTerminalStateViolation}
	}
	if !from.CanTransitionTo(to) {
		return Effect{}, &apperrors.TransitionError{From: string(from), To: string(to), Kind: apperrors.ErrInvalidTransition}
	}
	if persons <= 0 {
		return Effect{}, fmt.Errorf("%d persons: %w", persons, apperrors.ErrInvalidPersonCount)
	}

	effect := Effect{}
	switch to {
	case StatusCancelled, StatusRejected:
		effect.CapacityFreed = persons
		effect.Recompute = true
	case StatusConfirmed:
		effect.Recompute = true
	}
	return effect, nil
}
