package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds critical database constraints for concurrency control
func MigrateConstraints(db *gorm.DB) error {
	// A confirmed booking slot may exist at most once per court and start time
	err := db.Exec(`
		ALTER TABLE booking_slots
		ADD CONSTRAINT IF NOT EXISTS unique_slot_per_court
		UNIQUE (court_id, slot_date, start_time);
	`).Error
	if err != nil {
		return err
	}

	// One live booking per reservation session, enforced at the database
	// level so duplicate submissions cannot slip past the application
	// check. Cancelled bookings are excluded so the session can rebook.
	err = db.Exec(`
		CREATE UNIQUE INDEX CONCURRENTLY IF NOT EXISTS idx_bookings_session_id_live
		ON bookings (session_id) WHERE status != 'CANCELLED';
	`).Error
	if err != nil {
		return err
	}

	// Index for payment lookups by provider order reference
	err = db.Exec(`
		CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_payments_provider_ref
		ON payments (provider, provider_ref);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
