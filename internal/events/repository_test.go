package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"showbook/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_fk=1"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Event{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if err := db.Exec("CREATE TABLE reservations (id TEXT PRIMARY KEY, event_id TEXT NOT NULL REFERENCES events(id) ON DELETE RESTRICT)").Error; err != nil {
		t.Fatalf("failed to create reservations table: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newEvent(eventType EventType, seats int) *Event {
	return &Event{
		Name:              "Murder at the Manor",
		Date:              time.Date(2026, 11, 14, 19, 0, 0, 0, time.UTC),
		Type:              eventType,
		Capacity:          seats,
		RemainingCapacity: seats,
	}
}

func TestRepositoryCreateAndGet(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	event := newEvent(TypeWeekend, 50)
	if err := repo.Create(ctx, event); err != nil {
		t.Fatalf("create: %v", err)
	}
	if event.ID == uuid.Nil || event.Version != 1 {
		t.Fatalf("id/version not assigned: %+v", event)
	}

	got, err := repo.GetByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Capacity != 50 || got.Type != TypeWeekend || got.WaitlistActive {
		t.Errorf("unexpected event %+v", got)
	}

	if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestRepositoryVersionedUpdate(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	event := newEvent(TypeWeekday, 50)
	if err := repo.Create(ctx, event); err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name    string
		id      uuid.UUID
		version int64
		wantErr error
	}{
		{"matching version", event.ID, 1, nil},
		{"stale version", event.ID, 1, apperrors.ErrConcurrencyConflict},
		{"missing event", uuid.New(), 1, apperrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Update(ctx, tt.id, map[string]interface{}{"remaining_capacity": 40}, tt.version)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	got, err := repo.GetByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RemainingCapacity != 40 || got.Version != 2 {
		t.Errorf("remaining=%d version=%d, want 40 and 2", got.RemainingCapacity, got.Version)
	}
}

func TestRepositoryDeleteGuard(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	booked := newEvent(TypeMatinee, 20)
	empty := newEvent(TypeMatinee, 20)
	for _, e := range []*Event{booked, empty} {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := db.Exec("INSERT INTO reservations (id, event_id) VALUES (?, ?)", uuid.NewString(), booked.ID.String()).Error; err != nil {
		t.Fatalf("insert reservation: %v", err)
	}

	if err := repo.Delete(ctx, booked.ID); !errors.Is(err, apperrors.ErrReferencedEvent) {
		t.Errorf("expected referenced event error, got %v", err)
	}
	if _, err := repo.GetByID(ctx, booked.ID); err != nil {
		t.Errorf("referenced event must survive: %v", err)
	}

	if err := repo.Delete(ctx, empty.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, empty.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("second delete: expected not found, got %v", err)
	}
}

// A reservation committed between the reference count and the delete must
// still block the delete.
func TestRepositoryDeleteLateReservation(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	event := newEvent(TypeWeekday, 40)
	if err := repo.Create(ctx, event); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := db.Callback().Delete().Before("gorm:delete").Register("test:late_reservation", func(tx *gorm.DB) {
		if tx.Statement.Table != "events" {
			return
		}
		insert := tx.Session(&gorm.Session{NewDB: true}).
			Exec("INSERT INTO reservations (id, event_id) VALUES (?, ?)", uuid.NewString(), event.ID.String())
		if insert.Error != nil {
			tx.AddError(insert.Error)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	if err := repo.Delete(ctx, event.ID); !errors.Is(err, apperrors.ErrReferencedEvent) {
		t.Fatalf("expected referenced event error, got %v", err)
	}
	if _, err := repo.GetByID(ctx, event.ID); err != nil {
		t.Errorf("referenced event must survive: %v", err)
	}
}

func TestRepositoryListWithLegacyType(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	for _, typ := range []EventType{TypeWeekday, "zondag", "REQUEST"} {
		if err := repo.Create(ctx, newEvent(typ, 10)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	legacy, err := repo.ListWithLegacyType(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(legacy) != 2 {
		t.Fatalf("expected 2 legacy events, got %d", len(legacy))
	}

	ids, err := repo.ListIDs(ctx)
	if err != nil || len(ids) != 3 {
		t.Errorf("ListIDs = %d ids, err %v", len(ids), err)
	}
}
