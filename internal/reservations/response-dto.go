package reservations

import (
	"time"

	"showbook/internal/events"
)

type ReservationResponse struct {
	ID                    string    `json:"id"`
	EventID               string    `json:"event_id"`
	CustomerName          string    `json:"customer_name"`
	Email                 string    `json:"email"`
	Phone                 string    `json:"phone,omitempty"`
	Notes                 string    `json:"notes,omitempty"`
	NumberOfPersons       int       `json:"number_of_persons"`
	Status                Status    `json:"status"`
	RequestedOverCapacity bool      `json:"requested_over_capacity"`
	StatusChangedAt       time.Time `json:"status_changed_at"`
	CreatedAt             time.Time `json:"created_at"`
}

// StatusChangeResponse reports a transition together with the event state it produced
type StatusChangeResponse struct {
	Reservation   ReservationResponse `json:"reservation"`
	From          Status              `json:"from"`
	To            Status              `json:"to"`
	CapacityFreed int                 `json:"capacity_freed"`
	Event         *events.Derived     `json:"event,omitempty"`
}

type SubmitResponse struct {
	Reservation ReservationResponse `json:"reservation"`
	Event       *events.Derived     `json:"event,omitempty"`
}

func toResponse(r *Reservation) ReservationResponse {
	return ReservationResponse{
		ID:                    r.ID.String(),
		EventID:               r.EventID.String(),
		CustomerName:          r.CustomerName,
		Email:                 r.Email,
		Phone:                 r.Phone,
		Notes:                 r.Notes,
		NumberOfPersons:       r.NumberOfPersons,
		Status:                r.Status,
		RequestedOverCapacity: r.RequestedOverCapacity,
		StatusChangedAt:       r.StatusChangedAt,
		CreatedAt:             r.CreatedAt,
	}
}
