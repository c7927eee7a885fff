package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds indexes GORM tags cannot express
func MigrateConstraints(db *gorm.DB) error {
	// MySQL has no partial indexes; the composite (event_id, status) index covers it there
	if db.Dialector.Name() == "mysql" {
		return nil
	}

	// Ledger reads only touch reservations that still hold seats
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reservations_active_event
		ON reservations (event_id)
		WHERE status NOT IN ('cancelled', 'rejected');
	`).Error
}
