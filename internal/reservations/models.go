package reservations

import (
	"time"

	"showbook/internal/capacity"
	"showbook/internal/events"
	"showbook/internal/notifications"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reservation defines a party's request for seats at one event
type Reservation struct {
	ID                    uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	EventID               uuid.UUID `gorm:"type:char(36);not null;index:idx_reservations_event_status,priority:1" json:"event_id"`
	CustomerName          string    `gorm:"not null;size:255" json:"customer_name"`
	Email                 string    `gorm:"not null;size:255" json:"email"`
	Phone                 string    `gorm:"size:50" json:"phone,omitempty"`
	Notes                 string    `gorm:"type:text" json:"notes,omitempty"`
	NumberOfPersons       int       `gorm:"not null;check:number_of_persons > 0" json:"number_of_persons"`
	Status                Status    `gorm:"type:varchar(20);not null;index:idx_reservations_event_status,priority:2" json:"status"`
	RequestedOverCapacity bool      `gorm:"not null" json:"requested_over_capacity"`
	StatusChangedAt       time.Time `gorm:"not null" json:"status_changed_at"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`

	Event *events.Event `json:"-" gorm:"foreignKey:EventID;constraint:OnDelete:RESTRICT;"`
}

func (Reservation) TableName() string {
	return "reservations"
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.StatusChangedAt.IsZero() {
		r.StatusChangedAt = time.Now()
	}
	return nil
}

// PersonCount and Bucket make a reservation a capacity.Hold
func (r Reservation) PersonCount() int {
	return r.NumberOfPersons
}

func (r Reservation) Bucket() capacity.Bucket {
	return r.Status.Bucket()
}

func (r *Reservation) ToNotification() *notifications.ReservationInfo {
	return &notifications.ReservationInfo{
		ID:              r.ID,
		CustomerName:    r.CustomerName,
		Email:           r.Email,
		NumberOfPersons: r.NumberOfPersons,
		Status:          string(r.Status),
	}
}
