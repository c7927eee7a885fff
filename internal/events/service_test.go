package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"showbook/internal/capacity"
	"showbook/internal/notifications"
	"showbook/internal/shared/apperrors"
	"showbook/internal/waitlist"
	"showbook/pkg/cache"
	"showbook/pkg/logger"

	"github.com/google/uuid"
)

type seat struct {
	persons int
	bucket  capacity.Bucket
}

func (s seat) PersonCount() int { return s.persons }
func (s seat) Bucket() capacity.Bucket { return s.bucket }

type fakeHolds struct {
	calls int
	holds []capacity.Hold
}

func (f *fakeHolds) Holds(ctx context.Context, eventID uuid.UUID) ([]capacity.Hold, error) {
	f.calls++
	return f.holds, nil
}

// stubReconciler re-derives the event straight from the fake holds
type stubReconciler struct {
	repo  Repository
	holds *fakeHolds
}

func (r *stubReconciler) Reconcile(ctx context.Context, id uuid.UUID) (*Reconciliation, error) {
	event, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	remaining, err := capacity.ComputeRemaining(event.EffectiveCapacity(), r.holds.holds)
	if err != nil {
		return nil, err
	}
	before := event.Derived()
	after := Derived{RemainingCapacity: remaining, WaitlistActive: waitlist.Decide(remaining, event.WaitlistActive)}
	if after != before {
		fields := map[string]interface{}{"remaining_capacity": after.RemainingCapacity, "waitlist_active": after.WaitlistActive}
		if err := r.repo.Update(ctx, id, fields, event.Version); err != nil {
			return nil, err
		}
		event.RemainingCapacity = after.RemainingCapacity
		event.WaitlistActive = after.WaitlistActive
		event.Version++
	}
	return &Reconciliation{Event: event, EventID: id.String(), Before: before, After: after, Attempts: 1}, nil
}

type memoryCache struct {
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryCache) Ping(ctx context.Context) error { return nil }

type recordingNotifier struct {
	kinds []notifications.Kind
}

func (n *recordingNotifier) Notify(ctx context.Context, kind notifications.Kind, event notifications.EventInfo, reservation *notifications.ReservationInfo) error {
	n.kinds = append(n.kinds, kind)
	return nil
}

type fixture struct {
	repo     Repository
	holds    *fakeHolds
	cache    *memoryCache
	notifier *recordingNotifier
	svc      Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := NewRepository(newTestDB(t))
	holds := &fakeHolds{}
	f := &fixture{
		repo:     repo,
		holds:    holds,
		cache:    newMemoryCache(),
		notifier: &recordingNotifier{},
	}
	f.svc = NewService(repo, holds, &stubReconciler{repo: repo, holds: holds}, logger.Discard())
	f.svc.SetCacheService(f.cache, 0)
	f.svc.SetNotifier(f.notifier)
	return f
}

func intPtr(n int) *int { return &n }

func (f *fixture) create(t *testing.T, seats int) *EventResponse {
	t.Helper()
	event, err := f.svc.CreateEvent(context.Background(), CreateEventRequest{
		Name:     "Murder at the Manor",
		Date:     time.Date(2026, 11, 14, 19, 0, 0, 0, time.UTC),
		Type:     "weekend",
		Capacity: intPtr(seats),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return event
}

func TestCreateEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	event := f.create(t, 50)
	if event.RemainingCapacity != 50 || event.WaitlistActive {
		t.Errorf("new event should be fully available: %+v", event)
	}
	if event.Snapshot == nil || event.Snapshot.EffectiveCapacity != 50 {
		t.Errorf("missing snapshot: %+v", event.Snapshot)
	}

	tests := []struct {
		name    string
		req     CreateEventRequest
		wantErr error
	}{
		{"legacy type", CreateEventRequest{Name: "Show", Date: time.Now(), Type: "zondag", Capacity: intPtr(10)}, apperrors.ErrUnknownEventType},
		{"missing capacity", CreateEventRequest{Name: "Show", Date: time.Now(), Type: "weekday"}, apperrors.ErrValidation},
		{"negative capacity", CreateEventRequest{Name: "Show", Date: time.Now(), Type: "weekday", Capacity: intPtr(-1)}, apperrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.CreateEvent(ctx, tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetEventServesSnapshotFromCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, 50)
	id := uuid.MustParse(created.ID)

	f.holds.holds = []capacity.Hold{seat{10, capacity.BucketConfirmed}}
	f.svc.InvalidateSnapshot(ctx, id)
	calls := f.holds.calls

	first, err := f.svc.GetEvent(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := f.svc.GetEvent(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if f.holds.calls != calls+1 {
		t.Errorf("holds loaded %d times, want once", f.holds.calls-calls)
	}
	if first.Snapshot.ConfirmedPersons != 10 || second.Snapshot.ConfirmedPersons != 10 {
		t.Errorf("unexpected snapshots %+v / %+v", first.Snapshot, second.Snapshot)
	}
}

func TestActivateWaitlist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := uuid.MustParse(f.create(t, 50).ID)

	f.holds.holds = []capacity.Hold{seat{20, capacity.BucketConfirmed}}
	if _, err := f.svc.ActivateWaitlist(ctx, id); !errors.Is(err, apperrors.ErrWaitlistActivation) {
		t.Fatalf("expected activation to be rejected with seats left, got %v", err)
	}

	f.holds.holds = append(f.holds.holds, seat{30, capacity.BucketPending})
	event, err := f.svc.ActivateWaitlist(ctx, id)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !event.WaitlistActive || event.RemainingCapacity != 0 {
		t.Errorf("unexpected event %+v", event)
	}

	stored, _ := f.repo.GetByID(ctx, id)
	if !stored.WaitlistActive || stored.Version != event.Version {
		t.Errorf("stored event out of sync: %+v", stored)
	}

	again, err := f.svc.ActivateWaitlist(ctx, id)
	if err != nil || again.Version != event.Version {
		t.Errorf("second activation should be a no-op: %v %+v", err, again)
	}
}

func TestActivateWaitlistNeedsWaitingGuests(t *testing.T) {
	tests := []struct {
		name  string
		seats int
		holds []capacity.Hold
	}{
		{"capacity 0 without reservations", 0, nil},
		{"sold out to confirmed guests only", 30, []capacity.Hold{seat{30, capacity.BucketConfirmed}}},
		{"released holds do not wait", 10, []capacity.Hold{seat{10, capacity.BucketConfirmed}, seat{4, capacity.BucketReleased}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			id := uuid.MustParse(f.create(t, tt.seats).ID)

			f.holds.holds = tt.holds
			if _, err := f.svc.ActivateWaitlist(ctx, id); !errors.Is(err, apperrors.ErrWaitlistActivation) {
				t.Fatalf("expected activation to be rejected, got %v", err)
			}
			stored, _ := f.repo.GetByID(ctx, id)
			if stored.WaitlistActive {
				t.Error("waitlist must stay off")
			}
		})
	}
}

// racingRepo lets another writer bump the event version right before the
// next versioned write, races times.
type racingRepo struct {
	Repository
	races int
}

func (r *racingRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}, expectedVersion int64) error {
	if r.races > 0 {
		r.races--
		if err := r.Repository.Update(ctx, id, map[string]interface{}{}, expectedVersion); err != nil {
			return err
		}
	}
	return r.Repository.Update(ctx, id, fields, expectedVersion)
}

func TestAdminWritesRetryConcurrentUpdates(t *testing.T) {
	tests := []struct {
		name      string
		races     int
		expectErr error
	}{
		{"no race", 0, nil},
		{"one lost write", 1, nil},
		{"two lost writes", 2, nil},
		{"budget exhausted", maxWriteAttempts, apperrors.ErrConcurrencyConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			id := uuid.MustParse(f.create(t, 50).ID)

			racing := &racingRepo{Repository: f.repo, races: tt.races}
			svc := NewService(racing, f.holds, &stubReconciler{repo: f.repo, holds: f.holds}, logger.Discard())

			event, err := svc.UpdateCapacity(ctx, id, UpdateCapacityRequest{Capacity: intPtr(40)})
			if !errors.Is(err, tt.expectErr) {
				t.Fatalf("update capacity: err = %v, want %v", err, tt.expectErr)
			}
			if tt.expectErr == nil && event.Capacity != 40 {
				t.Errorf("capacity = %d, want 40", event.Capacity)
			}

			// sold out either way, with a waitlisted party
			f.holds.holds = []capacity.Hold{seat{30, capacity.BucketConfirmed}, seat{20, capacity.BucketWaitlisted}}
			racing.races = tt.races
			activated, err := svc.ActivateWaitlist(ctx, id)
			if !errors.Is(err, tt.expectErr) {
				t.Fatalf("activate: err = %v, want %v", err, tt.expectErr)
			}
			if tt.expectErr == nil && !activated.WaitlistActive {
				t.Error("waitlist should be active")
			}
		})
	}
}

func TestUpdateCapacityDeactivatesWaitlist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := uuid.MustParse(f.create(t, 50).ID)

	f.holds.holds = []capacity.Hold{seat{40, capacity.BucketConfirmed}, seat{10, capacity.BucketPending}}
	if _, err := f.svc.ActivateWaitlist(ctx, id); err != nil {
		t.Fatalf("activate: %v", err)
	}

	event, err := f.svc.UpdateCapacity(ctx, id, UpdateCapacityRequest{CapacityOverride: intPtr(60)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if event.RemainingCapacity != 10 || event.WaitlistActive {
		t.Errorf("expected 10 seats and no waitlist, got %+v", event)
	}
	if event.Snapshot.EffectiveCapacity != 60 || !event.Snapshot.OverrideActive {
		t.Errorf("snapshot not refreshed: %+v", event.Snapshot)
	}
	if len(f.notifier.kinds) != 1 || f.notifier.kinds[0] != notifications.KindWaitlistDeactivated {
		t.Errorf("expected waitlist deactivation notice, got %v", f.notifier.kinds)
	}

	if _, err := f.svc.UpdateCapacity(ctx, id, UpdateCapacityRequest{}); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("empty update should be rejected, got %v", err)
	}
}

func TestMigrateTypes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	friday := time.Date(2026, 11, 13, 19, 0, 0, 0, time.UTC)
	for _, typ := range []EventType{"zondag", "REGULAR", "REQUEST", TypeWeekday} {
		e := newEvent(typ, 10)
		e.Date = friday
		if err := f.repo.Create(ctx, e); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	dry, err := f.svc.MigrateTypes(ctx, true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if dry.Scanned != 3 || len(dry.Changes) != 2 || len(dry.Unmapped) != 1 || dry.Unmapped[0].Value != "REQUEST" {
		t.Fatalf("unexpected dry-run report %+v", dry)
	}

	applied, err := f.svc.MigrateTypes(ctx, false)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if len(applied.Changes) != 2 || len(applied.Failed) != 0 {
		t.Fatalf("unexpected report %+v", applied)
	}
	for _, c := range applied.Changes {
		if c.From == "REGULAR" && c.To != TypeWeekend {
			t.Errorf("REGULAR on a Friday should become weekend, got %s", c.To)
		}
	}

	rest, err := f.svc.MigrateTypes(ctx, false)
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if rest.Scanned != 1 || len(rest.Changes) != 0 {
		t.Errorf("only the unmapped event should remain: %+v", rest)
	}
}
