package events

import (
	"context"
	"time"

	"showbook/internal/capacity"
	"showbook/internal/notifications"
	"showbook/internal/waitlist"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	ID                uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name              string    `json:"name" gorm:"not null;size:255"`
	Date              time.Time `json:"date" gorm:"not null;index"`
	Type              EventType `json:"type" gorm:"type:varchar(32);not null;index"`
	Capacity          int       `json:"capacity" gorm:"not null;check:capacity >= 0"`
	CapacityOverride  *int      `json:"capacity_override"`
	RemainingCapacity int       `json:"remaining_capacity" gorm:"not null"`
	WaitlistActive    bool      `json:"waitlist_active" gorm:"not null"`
	Version           int64     `json:"version" gorm:"not null"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Event) TableName() string {
	return "events"
}

// BeforeCreate assigns the id in Go so every driver gets the same primary key format
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Version == 0 {
		e.Version = 1
	}
	return nil
}

// EffectiveCapacity is the capacity the ledger works against
func (e *Event) EffectiveCapacity() int {
	return capacity.EffectiveCapacity(e.Capacity, e.CapacityOverride)
}

func (e *Event) Derived() Derived {
	return Derived{RemainingCapacity: e.RemainingCapacity, WaitlistActive: e.WaitlistActive}
}

func (e *Event) ToNotification() notifications.EventInfo {
	return notifications.EventInfo{
		ID:                e.ID,
		Name:              e.Name,
		Date:              e.Date,
		Type:              string(e.Type),
		RemainingCapacity: e.RemainingCapacity,
		WaitlistActive:    e.WaitlistActive,
	}
}

// Derived holds the two projections recomputed from reservations
type Derived struct {
	RemainingCapacity int  `json:"remaining_capacity"`
	WaitlistActive    bool `json:"waitlist_active"`
}

// Reconciliation is the outcome of re-deriving one event
type Reconciliation struct {
	Event    *Event   `json:"-"`
	EventID  string   `json:"event_id"`
	Before   Derived  `json:"before"`
	After    Derived  `json:"after"`
	Changed  []string `json:"changed"`
	Attempts int      `json:"attempts"`
}

func (r *Reconciliation) WaitlistDeactivated() bool {
	return waitlist.Diff(r.Before.WaitlistActive, r.After.WaitlistActive) == waitlist.ChangeDeactivated
}

// Reconciler re-derives remaining capacity and the waitlist flag of an event
type Reconciler interface {
	Reconcile(ctx context.Context, eventID uuid.UUID) (*Reconciliation, error)
}

// HoldSource lists the seat holds of an event, i.e. its reservations
type HoldSource interface {
	Holds(ctx context.Context, eventID uuid.UUID) ([]capacity.Hold, error)
}

// ================== REQUESTS ==================

type CreateEventRequest struct {
	Name             string    `json:"name" binding:"required,min=3,max=255" validate:"required,min=3,max=255"`
	Date             time.Time `json:"date" binding:"required" validate:"required"`
	Type             string    `json:"type" binding:"required" validate:"required"`
	Capacity         *int      `json:"capacity" binding:"required,min=0,max=100000" validate:"required,min=0,max=100000"`
	CapacityOverride *int      `json:"capacity_override" binding:"omitempty,min=0,max=100000" validate:"omitempty,min=0,max=100000"`
}

type UpdateCapacityRequest struct {
	Capacity         *int `json:"capacity" binding:"omitempty,min=0,max=100000"`
	CapacityOverride *int `json:"capacity_override" binding:"omitempty,min=0,max=100000"`
	ClearOverride    bool `json:"clear_override"`
}

type EventListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Type     string `form:"type" binding:"omitempty,oneof=weekday weekend matinee care_heroes special_event"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
}

// ================== RESPONSES ==================

type EventResponse struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Date              time.Time          `json:"date"`
	Type              EventType          `json:"type"`
	Capacity          int                `json:"capacity"`
	CapacityOverride  *int               `json:"capacity_override,omitempty"`
	RemainingCapacity int                `json:"remaining_capacity"`
	WaitlistActive    bool               `json:"waitlist_active"`
	Version           int64              `json:"version"`
	Snapshot          *capacity.Snapshot `json:"snapshot,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

type PaginatedEvents struct {
	Events     []EventResponse `json:"events"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

// TypeMigrationReport describes one run of the legacy event-type migration
type TypeMigrationReport struct {
	TableVersion int               `json:"table_version"`
	DryRun       bool              `json:"dry_run"`
	Scanned      int               `json:"scanned"`
	Changes      []TypeChange      `json:"changes"`
	Unmapped     []UnmappedType    `json:"unmapped"`
	Failed       map[string]string `json:"failed,omitempty"`
}

type TypeChange struct {
	EventID string    `json:"event_id"`
	From    string    `json:"from"`
	To      EventType `json:"to"`
}

type UnmappedType struct {
	EventID string `json:"event_id"`
	Value   string `json:"value"`
}

func toResponse(e *Event) EventResponse {
	return EventResponse{
		ID:                e.ID.String(),
		Name:              e.Name,
		Date:              e.Date,
		Type:              e.Type,
		Capacity:          e.Capacity,
		CapacityOverride:  e.CapacityOverride,
		RemainingCapacity: e.RemainingCapacity,
		WaitlistActive:    e.WaitlistActive,
		Version:           e.Version,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}
