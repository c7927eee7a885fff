package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"showbook/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	GetAll(ctx context.Context, query EventListQuery) ([]Event, int64, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	ListWithLegacyType(ctx context.Context) ([]Event, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}, expectedVersion int64) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, event *Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event", id.String())
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

func (r *repository) GetAll(ctx context.Context, query EventListQuery) ([]Event, int64, error) {
	var events []Event
	var totalCount int64

	db := r.db.WithContext(ctx).Model(&Event{})

	if query.Type != "" {
		db = db.Where("type = ?", query.Type)
	}

	// Date filters
	if query.DateFrom != "" {
		if dateFrom, err := time.Parse("2006-01-02", query.DateFrom); err == nil {
			db = db.Where("date >= ?", dateFrom)
		}
	}

	if query.DateTo != "" {
		if dateTo, err := time.Parse("2006-01-02", query.DateTo); err == nil {
			// Add 24 hours to include the entire day
			db = db.Where("date < ?", dateTo.Add(24*time.Hour))
		}
	}

	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 10
	}
	offset := (query.Page - 1) * query.Limit

	err := db.Order("date ASC").
		Offset(offset).
		Limit(query.Limit).
		Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}

	return events, totalCount, nil
}

func (r *repository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&Event{}).Order("date ASC").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list event ids: %w", err)
	}
	return ids, nil
}

func (r *repository) ListWithLegacyType(ctx context.Context) ([]Event, error) {
	current := make([]string, 0, len(eventTypes))
	for _, t := range eventTypes {
		current = append(current, string(t))
	}

	var events []Event
	err := r.db.WithContext(ctx).Where("type NOT IN ?", current).Order("date ASC").Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy events: %w", err)
	}
	return events, nil
}

// Update writes fields only if the stored version still equals expectedVersion
// and bumps the version in the same statement.
func (r *repository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}, expectedVersion int64) error {
	updates := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		updates[k] = v
	}
	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).Model(&Event{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update event: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&Event{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check event: %w", err)
	}
	if count == 0 {
		return apperrors.NotFound("event", id.String())
	}
	return apperrors.Conflict("event", id.String())
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var references int64
		if err := tx.Table("reservations").Where("event_id = ?", id).Count(&references).Error; err != nil {
			return fmt.Errorf("failed to count reservations: %w", err)
		}
		if references > 0 {
			return fmt.Errorf("event %s has %d reservations: %w", id, references, apperrors.ErrReferencedEvent)
		}

		// The foreign key catches a reservation inserted after the count
		result := tx.Where("id = ?", id).Delete(&Event{})
		if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
			return fmt.Errorf("event %s: %w", id, apperrors.ErrReferencedEvent)
		}
		if result.Error != nil {
			return fmt.Errorf("failed to delete event: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("event", id.String())
		}
		return nil
	})
}
