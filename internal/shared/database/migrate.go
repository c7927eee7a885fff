package database

import (
	"showbook/internal/events"
	"showbook/internal/reservations"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&events.Event{},
		&reservations.Reservation{},
	); err != nil {
		return err
	}
	return MigrateConstraints(db)
}
