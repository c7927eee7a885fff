package reconciliation

import (
	"context"
	"fmt"
	"time"

	"showbook/internal/capacity"
	"showbook/internal/events"
	"showbook/internal/shared/apperrors"
	"showbook/internal/shared/config"
	"showbook/internal/waitlist"
	"showbook/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	FieldRemainingCapacity = "remaining_capacity"
	FieldWaitlistActive    = "waitlist_active"
)

// Service re-derives remainingCapacity and waitlistActive of events from
// their reservations. Stored values are never trusted as input.
type Service struct {
	events  EventStore
	holds   events.HoldSource
	config  config.ReconcileConfig
	backoff time.Duration
	log     *logger.Logger
}

func NewService(store EventStore, holds events.HoldSource, cfg config.ReconcileConfig, log *logger.Logger) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Service{
		events:  store,
		holds:   holds,
		config:  cfg,
		backoff: 10 * time.Millisecond,
		log:     log.WithComponent("reconciliation"),
	}
}

// Reconcile brings one event in line with its reservations. A lost
// optimistic write is retried from a fresh read up to MaxAttempts times.
func (s *Service) Reconcile(ctx context.Context, eventID uuid.UUID) (*events.Reconciliation, error) {
	if _, ok := ctx.Deadline(); !ok && s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= s.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("reconcile event %s: %w", eventID, ctx.Err())
			case <-time.After(time.Duration(attempt-1) * s.backoff):
			}
		}

		rec, err := s.reconcileOnce(ctx, eventID)
		if err == nil {
			rec.Attempts = attempt
			s.log.LogReconciliation(ctx, eventID.String(), rec.Changed, attempt, time.Since(start))
			return rec, nil
		}
		if !apperrors.IsRetryable(err) {
			return nil, err
		}

		lastErr = err
		s.log.DebugContext(ctx, "Reconciliation lost a concurrent write, retrying",
			"event_id", eventID.String(),
			"attempt", attempt,
		)
	}

	s.log.ErrorContext(ctx, "Reconciliation gave up",
		"event_id", eventID.String(),
		"attempts", s.config.MaxAttempts,
		"error", lastErr,
	)
	return nil, fmt.Errorf("event %s after %d attempts (%v): %w",
		eventID, s.config.MaxAttempts, lastErr, apperrors.ErrReconciliationConflict)
}

func (s *Service) reconcileOnce(ctx context.Context, eventID uuid.UUID) (*events.Reconciliation, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	holds, err := s.holds.Holds(ctx, eventID)
	if err != nil {
		return nil, err
	}

	remaining, err := capacity.ComputeRemaining(event.EffectiveCapacity(), holds)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", eventID, err)
	}

	before := event.Derived()
	after := events.Derived{
		RemainingCapacity: remaining,
		WaitlistActive:    waitlist.Decide(remaining, event.WaitlistActive),
	}

	fields := make(map[string]interface{})
	var changed []string
	if after.RemainingCapacity != before.RemainingCapacity {
		fields[FieldRemainingCapacity] = after.RemainingCapacity
		changed = append(changed, FieldRemainingCapacity)
	}
	if after.WaitlistActive != before.WaitlistActive {
		fields[FieldWaitlistActive] = after.WaitlistActive
		changed = append(changed, FieldWaitlistActive)
	}

	if len(changed) > 0 {
		if err := s.events.Update(ctx, eventID, fields, event.Version); err != nil {
			return nil, err
		}
		event.RemainingCapacity = after.RemainingCapacity
		event.WaitlistActive = after.WaitlistActive
		event.Version++
	}

	return &events.Reconciliation{
		Event:   event,
		EventID: eventID.String(),
		Before:  before,
		After:   after,
		Changed: changed,
	}, nil
}

// RepairOne reconciles a single event and reports it as a batch of one
func (s *Service) RepairOne(ctx context.Context, eventID uuid.UUID) *BatchReport {
	report := &BatchReport{StartedAt: time.Now()}
	report.Events = []EventReport{s.repair(ctx, eventID)}
	report.tally()
	report.Duration = time.Since(report.StartedAt)
	s.log.LogRepairSummary(ctx, report.Fixed, report.AlreadyCorrect, report.Failed, report.Duration)
	return report
}

// RepairAll reconciles every event. A failing event is recorded and never
// stops the batch; only failing to list events is returned as an error.
func (s *Service) RepairAll(ctx context.Context) (*BatchReport, error) {
	report := &BatchReport{StartedAt: time.Now()}

	ids, err := s.events.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	report.Events = make([]EventReport, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i, id := range ids {
		g.Go(func() error {
			report.Events[i] = s.repair(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	report.tally()
	report.Duration = time.Since(report.StartedAt)
	s.log.LogRepairSummary(ctx, report.Fixed, report.AlreadyCorrect, report.Failed, report.Duration)
	return report, nil
}

func (s *Service) repair(ctx context.Context, eventID uuid.UUID) EventReport {
	rec, err := s.Reconcile(ctx, eventID)
	if err != nil {
		return EventReport{EventID: eventID.String(), Outcome: OutcomeFailed, Reason: err.Error()}
	}
	return reportFrom(rec)
}
