package reservations

import (
	"context"
	"fmt"
	"time"

	"showbook/internal/capacity"
	"showbook/internal/events"
	"showbook/internal/notifications"
	"showbook/internal/shared/apperrors"
	"showbook/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// EventService is the part of the events module reservations depend on
type EventService interface {
	GetEventModel(ctx context.Context, id uuid.UUID) (*events.Event, error)
	InvalidateSnapshot(ctx context.Context, id uuid.UUID)
}

type Service interface {
	SetNotifier(notifier notifications.Notifier)

	Submit(ctx context.Context, req SubmitReservationRequest) (*SubmitResponse, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, to Status) (*StatusChangeResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*ReservationResponse, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID, status string) ([]ReservationResponse, error)
}

type service struct {
	repo         Repository
	eventService EventService
	reconciler   events.Reconciler
	notifier     notifications.Notifier
	validate     *validator.Validate
	log          *logger.Logger
}

func NewService(repo Repository, eventService EventService, reconciler events.Reconciler, log *logger.Logger) Service {
	return &service{
		repo:         repo,
		eventService: eventService,
		reconciler:   reconciler,
		validate:     validator.New(),
		log:          log.WithComponent("reservations"),
	}
}

func (s *service) SetNotifier(notifier notifications.Notifier) {
	s.notifier = notifier
}

// Submit records a pending reservation and re-derives the event. Requests
// larger than the free capacity are accepted and flagged for the box office.
func (s *service) Submit(ctx context.Context, req SubmitReservationRequest) (*SubmitResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid event id", apperrors.ErrValidation)
	}

	event, err := s.eventService.GetEventModel(ctx, eventID)
	if err != nil {
		return nil, err
	}

	holds, err := s.repo.Holds(ctx, eventID)
	if err != nil {
		return nil, err
	}
	remaining, err := capacity.ComputeRemaining(event.EffectiveCapacity(), holds)
	if err != nil {
		return nil, err
	}

	reservation := &Reservation{
		EventID:               eventID,
		CustomerName:          req.CustomerName,
		Email:                 req.Email,
		Phone:                 req.Phone,
		Notes:                 req.Notes,
		NumberOfPersons:       req.NumberOfPersons,
		Status:                StatusPending,
		RequestedOverCapacity: req.NumberOfPersons > remaining,
	}
	if err := s.repo.Create(ctx, reservation); err != nil {
		return nil, err
	}
	s.log.LogReservationSubmitted(ctx, reservation.ID.String(), eventID.String(), reservation.NumberOfPersons, reservation.RequestedOverCapacity)

	rec, err := s.settle(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("reservation %s stored but event not reconciled: %w", reservation.ID, err)
	}

	s.notify(ctx, notifications.KindReservationSubmitted, rec.Event, reservation)

	return &SubmitResponse{Reservation: toResponse(reservation), Event: &rec.After}, nil
}

// ChangeStatus applies one state machine transition and, when the transition
// affects capacity, reconciles the owning event.
func (s *service) ChangeStatus(ctx context.Context, id uuid.UUID, to Status) (*StatusChangeResponse, error) {
	reservation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := reservation.Status
	effect, err := Transition(from, to, reservation.NumberOfPersons)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, from, to); err != nil {
		return nil, err
	}
	reservation.Status = to
	reservation.StatusChangedAt = time.Now()
	s.log.LogStatusTransition(ctx, id.String(), string(from), string(to), effect.CapacityFreed)

	resp := &StatusChangeResponse{
		Reservation:   toResponse(reservation),
		From:          from,
		To:            to,
		CapacityFreed: effect.CapacityFreed,
	}

	var event *events.Event
	if effect.Recompute {
		rec, err := s.settle(ctx, reservation.EventID)
		if err != nil {
			return nil, fmt.Errorf("status of %s changed but event not reconciled: %w", id, err)
		}
		event = rec.Event
		resp.Event = &rec.After

		if rec.WaitlistDeactivated() {
			s.notify(ctx, notifications.KindWaitlistDeactivated, event, nil)
		}
	} else {
		s.eventService.InvalidateSnapshot(ctx, reservation.EventID)
		if event, err = s.eventService.GetEventModel(ctx, reservation.EventID); err != nil {
			s.log.WarnContext(ctx, "Event lookup for notification failed", "event_id", reservation.EventID.String(), "error", err)
			return resp, nil
		}
	}

	if kind, ok := statusNotifications[to]; ok {
		s.notify(ctx, kind, event, reservation)
	}

	return resp, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ReservationResponse, error) {
	reservation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := toResponse(reservation)
	return &response, nil
}

func (s *service) ListByEvent(ctx context.Context, eventID uuid.UUID, status string) ([]ReservationResponse, error) {
	if _, err := s.eventService.GetEventModel(ctx, eventID); err != nil {
		return nil, err
	}

	var filter []Status
	if status != "" {
		st := Status(status)
		if !st.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, status)
		}
		filter = append(filter, st)
	}

	reservations, err := s.repo.ListByEvent(ctx, eventID, filter...)
	if err != nil {
		return nil, err
	}

	responses := make([]ReservationResponse, 0, len(reservations))
	for i := range reservations {
		responses = append(responses, toResponse(&reservations[i]))
	}
	return responses, nil
}

var statusNotifications = map[Status]notifications.Kind{
	StatusConfirmed:  notifications.KindReservationConfirmed,
	StatusCancelled:  notifications.KindReservationCancelled,
	StatusRejected:   notifications.KindReservationRejected,
	StatusWaitlisted: notifications.KindReservationWaitlisted,
}

// settle reconciles the event and drops its cached snapshot
func (s *service) settle(ctx context.Context, eventID uuid.UUID) (*events.Reconciliation, error) {
	defer s.eventService.InvalidateSnapshot(ctx, eventID)
	return s.reconciler.Reconcile(ctx, eventID)
}

// notify never fails the caller; state is already committed
func (s *service) notify(ctx context.Context, kind notifications.Kind, event *events.Event, reservation *Reservation) {
	if s.notifier == nil || event == nil {
		return
	}
	var info *notifications.ReservationInfo
	if reservation != nil {
		info = reservation.ToNotification()
	}
	if err := s.notifier.Notify(ctx, kind, event.ToNotification(), info); err != nil {
		s.log.WarnContext(ctx, "Notification failed", "kind", string(kind), "event_id", event.ID.String(), "error", err)
	}
}
