package events

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"showbook/internal/capacity"
	"showbook/internal/notifications"
	"showbook/internal/shared/apperrors"
	"showbook/internal/shared/constants"
	"showbook/internal/waitlist"
	"showbook/pkg/cache"
	"showbook/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Admin writes that lose a versioned update to a concurrent reconcile are
// re-read and re-applied this many times before the conflict is returned.
const (
	maxWriteAttempts = 3
	writeBackoff     = 10 * time.Millisecond
)

type Service interface {
	// Service dependency injection
	SetCacheService(cacheService cache.Service, ttl time.Duration)
	SetNotifier(notifier notifications.Notifier)

	CreateEvent(ctx context.Context, req CreateEventRequest) (*EventResponse, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*EventResponse, error)
	GetAllEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error)
	UpdateCapacity(ctx context.Context, id uuid.UUID, req UpdateCapacityRequest) (*EventResponse, error)
	ActivateWaitlist(ctx context.Context, id uuid.UUID) (*EventResponse, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	MigrateTypes(ctx context.Context, dryRun bool) (*TypeMigrationReport, error)

	// Used by the reservations module
	GetEventModel(ctx context.Context, id uuid.UUID) (*Event, error)
	InvalidateSnapshot(ctx context.Context, id uuid.UUID)
}

type service struct {
	repo         Repository
	holds        HoldSource
	reconciler   Reconciler
	cacheService cache.Service
	snapshotTTL  time.Duration
	notifier     notifications.Notifier
	validate     *validator.Validate
	log          *logger.Logger
}

func NewService(repo Repository, holds HoldSource, reconciler Reconciler, log *logger.Logger) Service {
	return &service{
		repo:        repo,
		holds:       holds,
		reconciler:  reconciler,
		snapshotTTL: constants.TTL_EVENT_SNAPSHOT,
		validate:    validator.New(),
		log:         log.WithComponent("events"),
	}
}

// SetCacheService injects the snapshot cache. A zero ttl keeps the default.
func (s *service) SetCacheService(cacheService cache.Service, ttl time.Duration) {
	s.cacheService = cacheService
	if ttl > 0 {
		s.snapshotTTL = ttl
	}
}

func (s *service) SetNotifier(notifier notifications.Notifier) {
	s.notifier = notifier
}

func (s *service) CreateEvent(ctx context.Context, req CreateEventRequest) (*EventResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	eventType, err := ParseEventType(req.Type)
	if err != nil {
		return nil, err
	}

	event := &Event{
		Name:             req.Name,
		Date:             req.Date,
		Type:             eventType,
		Capacity:         *req.Capacity,
		CapacityOverride: req.CapacityOverride,
	}
	// No reservations yet, so the whole effective capacity is free
	event.RemainingCapacity = event.EffectiveCapacity()

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Event created",
		"event_id", event.ID.String(),
		"type", string(event.Type),
		"capacity", event.EffectiveCapacity(),
	)

	return s.withSnapshot(ctx, event)
}

func (s *service) GetEvent(ctx context.Context, id uuid.UUID) (*EventResponse, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withSnapshot(ctx, event)
}

func (s *service) GetEventModel(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetAllEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error) {
	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 10
	}

	events, total, err := s.repo.GetAll(ctx, query)
	if err != nil {
		return nil, err
	}

	responses := make([]EventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, toResponse(&events[i]))
	}

	return &PaginatedEvents{
		Events:     responses,
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(query.Limit))),
	}, nil
}

func (s *service) UpdateCapacity(ctx context.Context, id uuid.UUID, req UpdateCapacityRequest) (*EventResponse, error) {
	fields := make(map[string]interface{})
	if req.Capacity != nil {
		if *req.Capacity < 0 {
			return nil, fmt.Errorf("capacity %d: %w", *req.Capacity, apperrors.ErrInvalidCapacity)
		}
		fields["capacity"] = *req.Capacity
	}
	switch {
	case req.ClearOverride:
		fields["capacity_override"] = nil
	case req.CapacityOverride != nil:
		if *req.CapacityOverride < 0 {
			return nil, fmt.Errorf("override %d: %w", *req.CapacityOverride, apperrors.ErrInvalidCapacity)
		}
		fields["capacity_override"] = *req.CapacityOverride
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", apperrors.ErrValidation)
	}

	err := s.retryOnConflict(ctx, id, func() error {
		event, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return s.repo.Update(ctx, id, fields, event.Version)
	})
	if err != nil {
		return nil, err
	}
	s.InvalidateSnapshot(ctx, id)

	rec, err := s.reconciler.Reconcile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("capacity updated but reconciliation failed: %w", err)
	}
	s.log.InfoContext(ctx, "Event capacity updated",
		"event_id", id.String(),
		"effective_capacity", rec.Event.EffectiveCapacity(),
		"remaining_capacity", rec.After.RemainingCapacity,
	)

	if rec.WaitlistDeactivated() {
		s.notify(ctx, notifications.KindWaitlistDeactivated, rec.Event)
	}

	return s.withSnapshot(ctx, rec.Event)
}

// ActivateWaitlist switches the waitlist on for a sold-out event that has
// guests pending or waitlisted. The derived state is refreshed first so the
// decision uses current numbers.
func (s *service) ActivateWaitlist(ctx context.Context, id uuid.UUID) (*EventResponse, error) {
	var event *Event
	activated := false
	err := s.retryOnConflict(ctx, id, func() error {
		rec, err := s.reconciler.Reconcile(ctx, id)
		if err != nil {
			return err
		}
		event = rec.Event
		if event.WaitlistActive {
			return nil
		}

		holds, err := s.holds.Holds(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load holds: %w", err)
		}
		snapshot, err := capacity.TakeSnapshot(event.Capacity, event.CapacityOverride, holds)
		if err != nil {
			return err
		}
		if err := waitlist.CanActivate(snapshot.RemainingCapacity, snapshot.PendingCount+snapshot.WaitlistedCount); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, id, map[string]interface{}{"waitlist_active": true}, event.Version); err != nil {
			return err
		}
		event.WaitlistActive = true
		event.Version++
		activated = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if activated {
		s.log.InfoContext(ctx, "Waitlist activated", "event_id", id.String())
	}
	return s.withSnapshot(ctx, event)
}

// retryOnConflict runs write until it stops failing with a version conflict
func (s *service) retryOnConflict(ctx context.Context, id uuid.UUID, write func() error) error {
	var err error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("event %s: %w", id, ctx.Err())
			case <-time.After(time.Duration(attempt-1) * writeBackoff):
			}
		}
		if err = write(); !apperrors.IsRetryable(err) {
			return err
		}
		s.log.DebugContext(ctx, "Event write lost a concurrent update, retrying",
			"event_id", id.String(),
			"attempt", attempt,
		)
	}
	return err
}

func (s *service) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.InvalidateSnapshot(ctx, id)
	s.log.InfoContext(ctx, "Event deleted", "event_id", id.String())
	return nil
}

// MigrateTypes rewrites legacy type values through the migration table.
// Values the table does not know are reported, never guessed.
func (s *service) MigrateTypes(ctx context.Context, dryRun bool) (*TypeMigrationReport, error) {
	legacy, err := s.repo.ListWithLegacyType(ctx)
	if err != nil {
		return nil, err
	}

	report := &TypeMigrationReport{
		TableVersion: TypeMigrationVersion,
		DryRun:       dryRun,
		Scanned:      len(legacy),
		Changes:      []TypeChange{},
		Unmapped:     []UnmappedType{},
	}

	for i := range legacy {
		event := &legacy[i]
		to, ok := MigrateType(string(event.Type), event.Date)
		if !ok {
			report.Unmapped = append(report.Unmapped, UnmappedType{EventID: event.ID.String(), Value: string(event.Type)})
			continue
		}

		if !dryRun {
			if err := s.repo.Update(ctx, event.ID, map[string]interface{}{"type": string(to)}, event.Version); err != nil {
				if report.Failed == nil {
					report.Failed = make(map[string]string)
				}
				report.Failed[event.ID.String()] = err.Error()
				continue
			}
		}
		report.Changes = append(report.Changes, TypeChange{EventID: event.ID.String(), From: string(event.Type), To: to})
	}

	s.log.InfoContext(ctx, "Event type migration finished",
		"table_version", TypeMigrationVersion,
		"dry_run", dryRun,
		"scanned", report.Scanned,
		"changed", len(report.Changes),
		"unmapped", len(report.Unmapped),
		"failed", len(report.Failed),
	)

	if !dryRun {
		s.setCache(ctx, constants.CACHE_KEY_EVENT_TYPE_MIGR, report, constants.TTL_TYPE_MIGRATION)
	}

	return report, nil
}

// InvalidateSnapshot drops the cached capacity snapshot of an event
func (s *service) InvalidateSnapshot(ctx context.Context, id uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.Delete(ctx, constants.BuildEventSnapshotKey(id.String())); err != nil {
		s.log.WarnContext(ctx, "Failed to invalidate snapshot", "event_id", id.String(), "error", err)
	}
}

func (s *service) withSnapshot(ctx context.Context, event *Event) (*EventResponse, error) {
	snapshot, err := s.snapshot(ctx, event)
	if err != nil {
		return nil, err
	}
	response := toResponse(event)
	response.Snapshot = snapshot
	return &response, nil
}

// snapshot serves the capacity breakdown from cache, computing it on a miss
func (s *service) snapshot(ctx context.Context, event *Event) (*capacity.Snapshot, error) {
	key := constants.BuildEventSnapshotKey(event.ID.String())

	var cached capacity.Snapshot
	if s.cacheService != nil {
		err := s.cacheService.Get(ctx, key, &cached)
		if err == nil && cached.BaseCapacity == event.Capacity && cached.EffectiveCapacity == event.EffectiveCapacity() {
			return &cached, nil
		}
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WarnContext(ctx, "Snapshot cache read failed", "event_id", event.ID.String(), "error", err)
		}
	}

	holds, err := s.holds.Holds(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load holds: %w", err)
	}
	snapshot, err := capacity.TakeSnapshot(event.Capacity, event.CapacityOverride, holds)
	if err != nil {
		return nil, err
	}

	s.setCache(ctx, key, snapshot, s.snapshotTTL)
	return &snapshot, nil
}

func (s *service) setCache(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.Set(ctx, key, value, ttl); err != nil {
		// Log error but don't fail the request
		s.log.WarnContext(ctx, "Cache write failed", "key", key, "error", err)
	}
}

func (s *service) notify(ctx context.Context, kind notifications.Kind, event *Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, kind, event.ToNotification(), nil); err != nil {
		s.log.WarnContext(ctx, "Notification failed", "kind", string(kind), "event_id", event.ID.String(), "error", err)
	}
}
