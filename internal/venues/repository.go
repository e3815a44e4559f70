package venues

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrVenueNotFound = errors.New("venue not found")
	ErrCourtNotFound = errors.New("court not found")
)

type Repository interface {
	CreateVenue(ctx context.Context, venue *Venue) error
	GetVenueByID(ctx context.Context, id uuid.UUID) (*Venue, error)
	UpdateVenue(ctx context.Context, venue *Venue) error
	ListVenues(ctx context.Context, query VenueListQuery) ([]Venue, int64, error)

	CreateCourt(ctx context.Context, court *Court) error
	GetCourtByID(ctx context.Context, id uuid.UUID) (*Court, error)
	ListCourtsByVenue(ctx context.Context, venueID uuid.UUID) ([]Court, error)

	// BookedSlotKeys returns which of the given slot keys already belong to a
	// confirmed booking. Reads the booking_slots table directly to avoid a
	// package cycle with the bookings domain.
	BookedSlotKeys(ctx context.Context, slotKeys []string) (map[string]bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateVenue(ctx context.Context, venue *Venue) error {
	return r.db.WithContext(ctx).Create(venue).Error
}

func (r *repository) GetVenueByID(ctx context.Context, id uuid.UUID) (*Venue, error) {
	var venue Venue
	err := r.db.WithContext(ctx).Preload("Courts").Where("id = ?", id).First(&venue).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVenueNotFound
		}
		return nil, err
	}
	return &venue, nil
}

func (r *repository) UpdateVenue(ctx context.Context, venue *Venue) error {
	result := r.db.WithContext(ctx).Save(venue)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVenueNotFound
	}
	return nil
}

func (r *repository) ListVenues(ctx context.Context, query VenueListQuery) ([]Venue, int64, error) {
	db := r.db.WithContext(ctx).Model(&Venue{}).Where("status = ?", StatusPublished)

	if query.City != "" {
		db = db.Where("LOWER(city) = LOWER(?)", query.City)
	}
	if query.Sport != "" {
		db = db.Where("EXISTS (SELECT 1 FROM courts WHERE courts.venue_id = venues.id AND courts.sport = ? AND courts.active)", query.Sport)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var result []Venue
	offset := (query.Page - 1) * query.Limit
	err := db.Preload("Courts", "active = ?", true).
		Order("name ASC").
		Offset(offset).
		Limit(query.Limit).
		Find(&result).Error
	if err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

func (r *repository) CreateCourt(ctx context.Context, court *Court) error {
	return r.db.WithContext(ctx).Create(court).Error
}

func (r *repository) GetCourtByID(ctx context.Context, id uuid.UUID) (*Court, error) {
	var court Court
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&court).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}
	return &court, nil
}

func (r *repository) ListCourtsByVenue(ctx context.Context, venueID uuid.UUID) ([]Court, error) {
	var courts []Court
	err := r.db.WithContext(ctx).
		Where("venue_id = ? AND active = ?", venueID, true).
		Order("name ASC").
		Find(&courts).Error
	return courts, err
}

func (r *repository) BookedSlotKeys(ctx context.Context, slotKeys []string) (map[string]bool, error) {
	booked := make(map[string]bool, len(slotKeys))
	if len(slotKeys) == 0 {
		return booked, nil
	}

	var keys []string
	err := r.db.WithContext(ctx).
		Table("booking_slots").
		Where("slot_key IN ?", slotKeys).
		Pluck("slot_key", &keys).Error
	if err != nil {
		return nil, err
	}

	for _, k := range keys {
		booked[k] = true
	}
	return booked, nil
}
