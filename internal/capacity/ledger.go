package capacity

import (
	"fmt"
	"math"

	"showbook/internal/shared/apperrors"
)

// Bucket classifies how a hold occupies seats.
type Bucket int

const (
	BucketReleased Bucket = iota // cancelled or rejected, kept for audit only
	BucketPending
	BucketWaitlisted
	BucketConfirmed
)

// Hold is anything that occupies seats of an event.
type Hold interface {
	PersonCount() int
	Bucket() Bucket
}

// Active reports whether the bucket counts toward occupied capacity.
func (b Bucket) Active() bool {
	return b != BucketReleased
}

// Snapshot is the full occupancy picture of one event.
type Snapshot struct {
	BaseCapacity      int  `json:"base_capacity"`
	EffectiveCapacity int  `json:"effective_capacity"`
	OverrideActive    bool `json:"override_active"`

	ConfirmedPersons  int `json:"confirmed_persons"`
	PendingPersons    int `json:"pending_persons"`
	WaitlistedPersons int `json:"waitlisted_persons"`
	TotalBooked       int `json:"total_booked"`

	ConfirmedCount  int `json:"confirmed_count"`
	PendingCount    int `json:"pending_count"`
	WaitlistedCount int `json:"waitlisted_count"`

	RemainingCapacity  int  `json:"remaining_capacity"`
	IsOverbooked       bool `json:"is_overbooked"`
	OverbookedBy       int  `json:"overbooked_by"`
	UtilizationPercent int  `json:"utilization_percent"`
}

// ComputeRemaining returns max(0, capacity - persons of all active holds).
func ComputeRemaining[H Hold](capacity int, holds []H) (int, error) {
	booked, err := activePersons(capacity, holds)
	if err != nil {
		return 0, err
	}
	return clamp(capacity - booked), nil
}

// EffectiveCapacity applies an optional override to the base capacity.
func EffectiveCapacity(capacity int, override *int) int {
	if override != nil {
		return *override
	}
	return capacity
}

// TakeSnapshot computes remaining capacity plus the per-status breakdown.
func TakeSnapshot[H Hold](capacity int, override *int, holds []H) (Snapshot, error) {
	if override != nil && *override < 0 {
		return Snapshot{}, fmt.Errorf("override %d: %w", *override, apperrors.ErrInvalidCapacity)
	}
	effective := EffectiveCapacity(capacity, override)
	if _, err := activePersons(effective, holds); err != nil {
		return Snapshot{}, err
	}

	s := Snapshot{
		BaseCapacity:      capacity,
		EffectiveCapacity: effective,
		OverrideActive:    override != nil,
	}
	for _, h := range holds {
		switch h.Bucket() {
		case BucketConfirmed:
			s.ConfirmedPersons += h.PersonCount()
			s.ConfirmedCount++
		case BucketPending:
			s.PendingPersons += h.PersonCount()
			s.PendingCount++
		case BucketWaitlisted:
			s.WaitlistedPersons += h.PersonCount()
			s.WaitlistedCount++
		}
	}

	s.TotalBooked = s.ConfirmedPersons + s.PendingPersons + s.WaitlistedPersons
	s.RemainingCapacity = clamp(effective - s.TotalBooked)
	s.IsOverbooked = s.TotalBooked > effective
	s.OverbookedBy = clamp(s.TotalBooked - effective)
	if effective > 0 {
		s.UtilizationPercent = int(math.Round(float64(s.TotalBooked) / float64(effective) * 100))
	}
	return s, nil
}

func activePersons[H Hold](capacity int, holds []H) (int, error) {
	if capacity < 0 {
		return 0, fmt.Errorf("capacity %d: %w", capacity, apperrors.ErrInvalidCapacity)
	}
	sum := 0
	for i, h := range holds {
		if h.PersonCount() <= 0 {
			return 0, fmt.Errorf("hold %d has %d persons: %w", i, h.PersonCount(), apperrors.ErrInvalidPersonCount)
		}
		if h.Bucket().Active() {
			sum += h.PersonCount()
		}
	}
	return sum, nil
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
