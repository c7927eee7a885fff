package database

import (
	"errors"
	"testing"

	"showbook/internal/shared/config"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		driver  string
		name    string
		wantErr bool
	}{
		{"postgres", "postgres", false},
		{"mysql", "mysql", false},
		{"sqlite", "sqlite", false},
		{"oracle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := dialector(config.DatabaseConfig{Driver: tt.driver, DSN: "x"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && d.Name() != tt.name {
				t.Errorf("name = %s, want %s", d.Name(), tt.name)
			}
		})
	}
}

func TestMigrateSQLite(t *testing.T) {
	cfg := &config.Config{GinMode: "release", Database: config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"}}
	db, err := OpenSQL(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("second migrate must be a no-op: %v", err)
	}
	for _, table := range []string{"events", "reservations"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("missing table %s", table)
		}
	}
}

func TestWithForeignKeys(t *testing.T) {
	tests := []struct {
		dsn      string
		expected string
	}{
		{"dev.db", "dev.db?_fk=1"},
		{"file::memory:", "file::memory:?_fk=1"},
		{"file:x?mode=memory", "file:x?mode=memory&_fk=1"},
		{"dev.db?_foreign_keys=0", "dev.db?_foreign_keys=0"},
	}

	for _, tt := range tests {
		if got := withForeignKeys(tt.dsn); got != tt.expected {
			t.Errorf("withForeignKeys(%q) = %q, want %q", tt.dsn, got, tt.expected)
		}
	}
}

func TestReservationsRequireEvent(t *testing.T) {
	cfg := &config.Config{GinMode: "release", Database: config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"}}
	db, err := OpenSQL(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	err = db.Exec(`INSERT INTO reservations
		(id, event_id, customer_name, email, number_of_persons, status, requested_over_capacity, status_changed_at)
		VALUES (?, ?, 'Robin', 'robin@example.com', 2, 'pending', false, CURRENT_TIMESTAMP)`,
		uuid.NewString(), uuid.NewString()).Error
	if !errors.Is(err, gorm.ErrForeignKeyViolated) {
		t.Errorf("err = %v, want foreign key violation", err)
	}
}

func TestCloseWithoutRedis(t *testing.T) {
	cfg := &config.Config{GinMode: "release", Database: config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"}}
	sqlDB, err := OpenSQL(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db := &DB{SQL: sqlDB}

	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	pool, err := sqlDB.DB()
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if err := pool.Ping(); err == nil {
		t.Error("connection pool still open after Close")
	}
}
