package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind identifies why a notification is sent.
type Kind string

const (
	KindWaitlistDeactivated   Kind = "waitlistDeactivated"
	KindReservationSubmitted  Kind = "reservationSubmitted"
	KindReservationConfirmed  Kind = "reservationConfirmed"
	KindReservationCancelled  Kind = "reservationCancelled"
	KindReservationRejected   Kind = "reservationRejected"
	KindReservationWaitlisted Kind = "reservationWaitlisted"
)

// IsValid checks if the kind is one we know how to deliver
func (k Kind) IsValid() bool {
	switch k {
	case KindWaitlistDeactivated, KindReservationSubmitted, KindReservationConfirmed,
		KindReservationCancelled, KindReservationRejected, KindReservationWaitlisted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusQueued   Status = "QUEUED"
	StatusSending  Status = "SENDING"
	StatusSent     Status = "SENT"
	StatusFailed   Status = "FAILED"
	StatusRetrying Status = "RETRYING"
	StatusExpired  Status = "EXPIRED"
)

// EventInfo is the part of an event a notification needs.
type EventInfo struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Date              time.Time `json:"date"`
	Type              string    `json:"type"`
	RemainingCapacity int       `json:"remaining_capacity"`
	WaitlistActive    bool      `json:"waitlist_active"`
}

// ReservationInfo is the part of a reservation a notification needs.
type ReservationInfo struct {
	ID              uuid.UUID `json:"id"`
	CustomerName    string    `json:"customer_name"`
	Email           string    `json:"email"`
	NumberOfPersons int       `json:"number_of_persons"`
	Status          string    `json:"status"`
}

// Notification is the message carried by every transport.
type Notification struct {
	ID       uuid.UUID `json:"id"`
	Kind     Kind      `json:"kind"`
	Priority Priority  `json:"priority"`

	RecipientEmail string `json:"recipient_email,omitempty"`
	RecipientName  string `json:"recipient_name,omitempty"`
	Subject        string `json:"subject"`

	Event       EventInfo        `json:"event"`
	Reservation *ReservationInfo `json:"reservation,omitempty"`

	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	Status     Status     `json:"status"`
	RetryCount int        `json:"retry_count"`
	MaxRetries int        `json:"max_retries"`
	LastError  *string    `json:"last_error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
}

type Builder struct {
	notification *Notification
}

func NewBuilder() *Builder {
	now := time.Now()
	return &Builder{
		notification: &Notification{
			ID:         uuid.New(),
			Status:     StatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
			MaxRetries: 3,
		},
	}
}

func (b *Builder) WithKind(kind Kind) *Builder {
	b.notification.Kind = kind
	b.notification.Priority = DefaultPriority(kind)
	b.notification.Subject = DefaultSubject(kind, b.notification.Event.Name)
	return b
}

func (b *Builder) WithEvent(event EventInfo) *Builder {
	b.notification.Event = event
	if b.notification.Kind != "" {
		b.notification.Subject = DefaultSubject(b.notification.Kind, event.Name)
	}
	return b
}

// WithReservation also sets the recipient from the reservation contact data.
func (b *Builder) WithReservation(reservation *ReservationInfo) *Builder {
	b.notification.Reservation = reservation
	if reservation != nil {
		b.notification.RecipientEmail = reservation.Email
		b.notification.RecipientName = reservation.CustomerName
	}
	return b
}

func (b *Builder) WithRecipient(email, name string) *Builder {
	b.notification.RecipientEmail = email
	b.notification.RecipientName = name
	return b
}

func (b *Builder) WithSubject(subject string) *Builder {
	b.notification.Subject = subject
	return b
}

func (b *Builder) WithExpiration(expiresAt *time.Time) *Builder {
	b.notification.ExpiresAt = expiresAt
	return b
}

func (b *Builder) WithMaxRetries(maxRetries int) *Builder {
	b.notification.MaxRetries = maxRetries
	return b
}

func (b *Builder) Build() *Notification {
	return b.notification
}

// DefaultPriority ranks kinds for delivery
func DefaultPriority(kind Kind) Priority {
	switch kind {
	case KindWaitlistDeactivated, KindReservationConfirmed:
		return PriorityHigh
	case KindReservationSubmitted:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// DefaultSubject generates the mail subject for a kind
func DefaultSubject(kind Kind, eventName string) string {
	if eventName == "" {
		eventName = "your show"
	}
	switch kind {
	case KindReservationSubmitted:
		return "We received your reservation for " + eventName
	case KindReservationConfirmed:
		return "Reservation confirmed: " + eventName
	case KindReservationCancelled:
		return "Reservation cancelled: " + eventName
	case KindReservationRejected:
		return "We could not accept your reservation for " + eventName
	case KindReservationWaitlisted:
		return "You are on the waitlist for " + eventName
	case KindWaitlistDeactivated:
		return "Seats available again: " + eventName
	default:
		return "Message from Showbook"
	}
}

// PartitionKey keeps every message about one event on the same partition.
func (n *Notification) PartitionKey() string {
	return n.Event.ID.String()
}

func (n *Notification) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}

// HasRecipient reports whether the notification can be mailed to a customer.
func (n *Notification) HasRecipient() bool {
	return n.RecipientEmail != ""
}

func (n *Notification) IsExpired() bool {
	return n.ExpiresAt != nil && time.Now().After(*n.ExpiresAt)
}

func (n *Notification) ShouldRetry() bool {
	return n.RetryCount < n.MaxRetries &&
		n.Status == StatusFailed &&
		!n.IsExpired()
}

func (n *Notification) MarkSent() {
	now := time.Now()
	n.Status = StatusSent
	n.SentAt = &now
	n.UpdatedAt = now
}

func (n *Notification) MarkFailed(err error) {
	n.Status = StatusFailed
	n.UpdatedAt = time.Now()

	errorStr := err.Error()
	n.LastError = &errorStr
}

func (n *Notification) IncrementRetry() {
	n.RetryCount++
	n.UpdatedAt = time.Now()
	if n.ShouldRetry() {
		n.Status = StatusRetrying
	} else {
		n.Status = StatusExpired
	}
}
