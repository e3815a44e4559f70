package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"courtside/internal/shared/config"
	"courtside/internal/shared/database"
	"courtside/internal/users"
	"courtside/internal/venues"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Courtside Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"payments",
		"booking_slots",
		"bookings",
		"courts",
		"venues",
		"users",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to defer constraints: %w", err)
	}

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	if err := tx.Exec("SET CONSTRAINTS ALL IMMEDIATE").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to restore constraints: %w", err)
	}

	return tx.Commit().Error
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	adminID, err := s.SeedUsers()
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	if err := s.SeedVenues(adminID); err != nil {
		return fmt.Errorf("failed to seed venues: %w", err)
	}

	// Clear Redis so no stale holds or cached availability survive
	if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
		log.Printf("Warning: Failed to clear Redis cache: %v", err)
	}

	return nil
}

// SeedUsers creates 1 admin and 2 regular users
func (s *Seeder) SeedUsers() (uuid.UUID, error) {
	fmt.Println("  👤 Seeding users...")

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var adminID uuid.UUID

	usersData := []struct {
		firstName string
		lastName  string
		email     string
		role      users.Role
	}{
		{"Admin", "User", "admin@courtside.lk", users.RoleAdmin},
		{"Nimal", "Perera", "nimal@example.com", users.RoleUser},
		{"Kasun", "Silva", "kasun@example.com", users.RoleUser},
	}

	for _, userData := range usersData {
		user := users.User{
			ID:        uuid.New(),
			FirstName: userData.firstName,
			LastName:  userData.lastName,
			Email:     userData.email,
			Password:  string(hashedPassword),
			Role:      userData.role,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return uuid.Nil, fmt.Errorf("failed to create user %s: %w", userData.email, err)
		}

		if user.Role == users.RoleAdmin {
			adminID = user.ID
		}
		fmt.Printf("    ✅ Created user: %s (%s)\n", user.Email, user.Role)
	}

	return adminID, nil
}

// SeedVenues creates sample venues with courts
func (s *Seeder) SeedVenues(adminID uuid.UUID) error {
	fmt.Println("  🏟️ Seeding venues...")

	venuesData := []struct {
		name        string
		description string
		address     string
		city        string
		phone       string
		courts      []venues.Court
	}{
		{
			name:        "CR Park Sports Complex",
			description: "Indoor badminton and futsal facility with tournament-grade courts.",
			address:     "128 Longdon Place, Colombo 07",
			city:        "Colombo",
			phone:       "+94112695348",
			courts: []venues.Court{
				{Name: "Badminton Court 1", Sport: "badminton", Surface: "wooden", Indoor: true, OpenHour: 6, CloseHour: 22, SlotMinutes: 60, PricePerSlot: 1500, Active: true},
				{Name: "Badminton Court 2", Sport: "badminton", Surface: "wooden", Indoor: true, OpenHour: 6, CloseHour: 22, SlotMinutes: 60, PricePerSlot: 1500, Active: true},
				{Name: "Futsal Arena", Sport: "futsal", Surface: "artificial turf", Indoor: true, OpenHour: 8, CloseHour: 23, SlotMinutes: 60, PricePerSlot: 6000, Active: true},
			},
		},
		{
			name:        "Ocean View Tennis Club",
			description: "Outdoor clay and hard courts with ocean views.",
			address:     "45 Marine Drive, Mount Lavinia",
			city:        "Mount Lavinia",
			phone:       "+94112717890",
			courts: []venues.Court{
				{Name: "Clay Court A", Sport: "tennis", Surface: "clay", OpenHour: 6, CloseHour: 19, SlotMinutes: 60, PricePerSlot: 2500, Active: true},
				{Name: "Hard Court B", Sport: "tennis", Surface: "hard", OpenHour: 6, CloseHour: 21, SlotMinutes: 60, PricePerSlot: 2000, Active: true},
			},
		},
		{
			name:        "Kandy Indoor Stadium",
			description: "Multi-sport indoor stadium in the heart of Kandy.",
			address:     "22 Peradeniya Road, Kandy",
			city:        "Kandy",
			phone:       "+94812223456",
			courts: []venues.Court{
				{Name: "Basketball Full Court", Sport: "basketball", Surface: "wooden", Indoor: true, OpenHour: 7, CloseHour: 22, SlotMinutes: 90, PricePerSlot: 4500, Active: true},
				{Name: "Badminton Court 1", Sport: "badminton", Surface: "synthetic", Indoor: true, OpenHour: 6, CloseHour: 22, SlotMinutes: 60, PricePerSlot: 1200, Active: true},
			},
		},
	}

	for _, venueData := range venuesData {
		venue := venues.Venue{
			ID:          uuid.New(),
			Name:        venueData.name,
			Description: venueData.description,
			Address:     venueData.address,
			City:        venueData.city,
			Phone:       venueData.phone,
			Status:      venues.StatusPublished,
			CreatedBy:   adminID,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&venue).Error; err != nil {
			return fmt.Errorf("failed to create venue %s: %w", venue.Name, err)
		}
		fmt.Printf("    ✅ Created venue: %s\n", venue.Name)

		for _, court := range venueData.courts {
			court.ID = uuid.New()
			court.VenueID = venue.ID
			court.CreatedAt = time.Now()
			court.UpdatedAt = time.Now()

			if err := s.db.PostgreSQL.Create(&court).Error; err != nil {
				return fmt.Errorf("failed to create court %s: %w", court.Name, err)
			}
			fmt.Printf("      ✅ Created court: %s (%s)\n", court.Name, court.Sport)
		}
	}

	return nil
}
