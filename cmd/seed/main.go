package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"showbook/internal/events"
	"showbook/internal/reconciliation"
	"showbook/internal/reservations"
	"showbook/internal/shared/config"
	"showbook/internal/shared/database"
	"showbook/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Seeder struct {
	db           *database.DB
	events       events.Service
	reservations reservations.Service
}

func main() {
	fmt.Println("🌱 Starting Showbook Database Seeder...")

	_ = godotenv.Load()
	cfg := config.Load()
	appLogger := logger.New()

	db, err := database.InitDB(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db.SQL); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}

	eventRepo := events.NewRepository(db.SQL)
	reservationRepo := reservations.NewRepository(db.SQL)
	reconciler := reconciliation.NewService(eventRepo, reservationRepo, cfg.Reconcile, appLogger)
	eventService := events.NewService(eventRepo, reservationRepo, reconciler, appLogger)

	seeder := &Seeder{
		db:           db,
		events:       eventService,
		reservations: reservations.NewService(reservationRepo, eventService, reconciler, appLogger),
	}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(context.Background()); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase removes all reservations and events. Reservations go first
// since events with reservations cannot be deleted.
func (s *Seeder) CleanDatabase() error {
	for _, table := range []string{"reservations", "events"} {
		fmt.Printf("  Clearing table: %s\n", table)
		if err := s.db.SQL.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}
	return nil
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll(ctx context.Context) error {
	eventIDs, err := s.SeedEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed events: %w", err)
	}

	if err := s.SeedReservations(ctx, eventIDs); err != nil {
		return fmt.Errorf("failed to seed reservations: %w", err)
	}

	if err := s.SeedLegacyEvents(ctx); err != nil {
		return fmt.Errorf("failed to seed legacy events: %w", err)
	}

	// Clear Redis cache to ensure fresh state
	if s.db.Redis != nil {
		if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
			log.Printf("Warning: Failed to clear Redis cache: %v", err)
		}
	}

	return nil
}

// SeedEvents creates one show of every type over the coming weeks
func (s *Seeder) SeedEvents(ctx context.Context) (map[string]uuid.UUID, error) {
	fmt.Println("  🎭 Seeding events...")

	base := time.Now().Truncate(24 * time.Hour).AddDate(0, 0, 7)
	eventsData := []struct {
		key      string
		name     string
		offset   int
		hour     int
		kind     events.EventType
		capacity int
		override *int
	}{
		{"weekday", "Murder at the Manor", 0, 19, events.TypeWeekday, 50, nil},
		{"weekend", "The Phantom Dinner", 2, 19, events.TypeWeekend, 80, nil},
		{"matinee", "Sunday Matinee Mystery", 3, 13, events.TypeMatinee, 40, nil},
		{"care_heroes", "Care Heroes Evening", 5, 19, events.TypeCareHeroes, 60, intPtr(30)},
		{"special", "New Year's Gala", 14, 20, events.TypeSpecialEvent, 120, nil},
	}

	eventIDs := make(map[string]uuid.UUID)
	for _, data := range eventsData {
		seats := data.capacity
		event, err := s.events.CreateEvent(ctx, events.CreateEventRequest{
			Name:             data.name,
			Date:             base.AddDate(0, 0, data.offset).Add(time.Duration(data.hour) * time.Hour),
			Type:             string(data.kind),
			Capacity:         &seats,
			CapacityOverride: data.override,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create event %s: %w", data.name, err)
		}
		eventIDs[data.key] = uuid.MustParse(event.ID)
		fmt.Printf("    ✓ %s (%s, %d seats)\n", event.Name, event.Type, event.RemainingCapacity)
	}

	return eventIDs, nil
}

// SeedReservations fills the weekday show to capacity so its waitlist can be
// exercised, and leaves a mix of statuses on the others
func (s *Seeder) SeedReservations(ctx context.Context, eventIDs map[string]uuid.UUID) error {
	fmt.Println("  🎟️  Seeding reservations...")

	reservationsData := []struct {
		event   string
		name    string
		persons int
		status  reservations.Status
	}{
		{"weekday", "Robin Jansen", 20, reservations.StatusConfirmed},
		{"weekday", "Sam de Vries", 20, reservations.StatusConfirmed},
		{"weekday", "Noor Bakker", 10, reservations.StatusPending},
		{"weekday", "Alex Visser", 4, reservations.StatusWaitlisted},
		{"weekend", "Jip Smit", 6, reservations.StatusConfirmed},
		{"weekend", "Lou Mulder", 2, reservations.StatusCancelled},
		{"matinee", "Kim de Boer", 8, reservations.StatusPending},
		{"care_heroes", "Eva Meijer", 12, reservations.StatusConfirmed},
		{"special", "Daan Bos", 10, reservations.StatusRejected},
	}

	for i, data := range reservationsData {
		submitted, err := s.reservations.Submit(ctx, reservations.SubmitReservationRequest{
			EventID:         eventIDs[data.event].String(),
			CustomerName:    data.name,
			Email:           fmt.Sprintf("guest%d@example.com", i+1),
			NumberOfPersons: data.persons,
		})
		if err != nil {
			return fmt.Errorf("failed to submit reservation for %s: %w", data.name, err)
		}

		if data.status != reservations.StatusPending {
			id := uuid.MustParse(submitted.Reservation.ID)
			if _, err := s.reservations.ChangeStatus(ctx, id, data.status); err != nil {
				return fmt.Errorf("failed to move reservation of %s to %s: %w", data.name, data.status, err)
			}
		}
		fmt.Printf("    ✓ %s: %d persons, %s\n", data.name, data.persons, data.status)
	}

	if _, err := s.events.ActivateWaitlist(ctx, eventIDs["weekday"]); err != nil {
		return fmt.Errorf("failed to activate waitlist: %w", err)
	}
	fmt.Println("    ✓ Waitlist activated for Murder at the Manor")

	return nil
}

// SeedLegacyEvents writes events with pre-migration type labels directly,
// leaving them for the type migration to rewrite
func (s *Seeder) SeedLegacyEvents(ctx context.Context) error {
	fmt.Println("  🗂️  Seeding legacy-typed events...")

	base := time.Now().Truncate(24 * time.Hour).AddDate(0, 1, 0)
	legacy := []struct {
		name string
		kind string
	}{
		{"Archive Show (regular)", "REGULAR"},
		{"Archive Matinee", "MATINEE"},
		{"Archive Special", "special-event"},
	}

	for i, data := range legacy {
		event := &events.Event{
			Name:              data.name,
			Date:              base.AddDate(0, 0, i).Add(19 * time.Hour),
			Type:              events.EventType(data.kind),
			Capacity:          40,
			RemainingCapacity: 40,
		}
		if err := s.db.SQL.WithContext(ctx).Create(event).Error; err != nil {
			return fmt.Errorf("failed to create legacy event %s: %w", data.name, err)
		}
		fmt.Printf("    ✓ %s (%s)\n", data.name, data.kind)
	}

	return nil
}

func intPtr(v int) *int {
	return &v
}
