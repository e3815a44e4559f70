package database

import (
	"courtside/internal/bookings"
	"courtside/internal/users"
	"courtside/internal/venues"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&venues.Venue{},
		&venues.Court{},
		&bookings.Booking{},
		&bookings.BookingSlot{},
		&bookings.Payment{},
	)
}
