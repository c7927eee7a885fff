package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"showbook/internal/capacity"
	"showbook/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, reservation *Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID, statuses ...Status) ([]Reservation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error
	Holds(ctx context.Context, eventID uuid.UUID) ([]capacity.Hold, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, reservation *Reservation) error {
	if err := r.db.WithContext(ctx).Create(reservation).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return apperrors.NotFound("event", reservation.EventID.String())
		}
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	var reservation Reservation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("reservation", id.String())
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return &reservation, nil
}

func (r *repository) ListByEvent(ctx context.Context, eventID uuid.UUID, statuses ...Status) ([]Reservation, error) {
	var reservations []Reservation
	db := r.db.WithContext(ctx).Where("event_id = ?", eventID)
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, status := range statuses {
			values[i] = string(status)
		}
		db = db.Where("status IN ?", values)
	}
	if err := db.Order("created_at ASC").Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}

// UpdateStatus is a compare-and-set on the previous status. Losing the race
// to another writer yields ErrConcurrencyConflict.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&Reservation{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]interface{}{
			"status":            string(to),
			"status_changed_at": now,
			"updated_at":        now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update reservation status: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&Reservation{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check reservation: %w", err)
	}
	if count == 0 {
		return apperrors.NotFound("reservation", id.String())
	}
	return apperrors.Conflict("reservation", id.String())
}

// Holds returns every reservation of the event as a capacity hold, released
// ones included so the ledger sees the full picture.
func (r *repository) Holds(ctx context.Context, eventID uuid.UUID) ([]capacity.Hold, error) {
	reservations, err := r.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	holds := make([]capacity.Hold, len(reservations))
	for i, reservation := range reservations {
		holds[i] = reservation
	}
	return holds, nil
}
