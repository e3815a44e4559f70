package bookings

import (
	"context"
	"errors"
	"time"

	"courtside/internal/shared/constants"
	"courtside/pkg/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrPaymentNotFound = errors.New("payment not found")
)

type Repository interface {
	// Core booking operations
	CreateBooking(ctx context.Context, booking *Booking) error
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetBookingBySessionID(ctx context.Context, sessionID string) (*Booking, error)
	GetBookingByProviderRef(ctx context.Context, provider, providerRef string) (*Booking, error)
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, status Status, cancelledAt *time.Time) error
	ListSessionBookings(ctx context.Context, sessionID string, query BookingListQuery) ([]Booking, int64, error)

	// Payment operations
	UpdatePayment(ctx context.Context, payment *Payment) error
	GetPaymentByProviderRef(ctx context.Context, provider, providerRef string) (*Payment, error)

	// Session recovery record, cached in Redis
	SaveSessionBooking(ctx context.Context, sessionID string, record *BookingRecord, ttl time.Duration) error
	GetSessionBooking(ctx context.Context, sessionID string) (*BookingRecord, error)
	DeleteSessionBooking(ctx context.Context, sessionID string) error
}

type repository struct {
	db           *gorm.DB
	cacheService cache.Service
}

func NewRepository(db *gorm.DB, cacheService cache.Service) Repository {
	return &repository{
		db:           db,
		cacheService: cacheService,
	}
}

func (r *repository) CreateBooking(ctx context.Context, booking *Booking) error {
	// Booking, slots and the initial payment row commit together
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Slots").
		Preload("Payments").
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetBookingBySessionID(ctx context.Context, sessionID string) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Slots").
		Preload("Payments").
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetBookingByProviderRef(ctx context.Context, provider, providerRef string) (*Booking, error) {
	payment, err := r.GetPaymentByProviderRef(ctx, provider, providerRef)
	if err != nil {
		return nil, err
	}
	return r.GetBookingByID(ctx, payment.BookingID)
}

func (r *repository) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status Status, cancelledAt *time.Time) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if cancelledAt != nil {
		updates["cancelled_at"] = *cancelledAt
	}

	result := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *repository) ListSessionBookings(ctx context.Context, sessionID string, query BookingListQuery) ([]Booking, int64, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	baseQuery := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("session_id = ?", sessionID)
	if query.Status != "" {
		baseQuery = baseQuery.Where("status = ?", query.Status)
	}

	var totalCount int64
	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	var result []Booking
	offset := (query.Page - 1) * query.Limit
	err := baseQuery.
		Preload("Slots").
		Preload("Payments").
		Order("created_at DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&result).Error
	if err != nil {
		return nil, 0, err
	}

	return result, totalCount, nil
}

func (r *repository) UpdatePayment(ctx context.Context, payment *Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *repository) GetPaymentByProviderRef(ctx context.Context, provider, providerRef string) (*Payment, error) {
	var payment Payment
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_ref = ?", provider, providerRef).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) SaveSessionBooking(ctx context.Context, sessionID string, record *BookingRecord, ttl time.Duration) error {
	key := constants.BuildSessionBookingKey(sessionID)
	return r.cacheService.Set(ctx, key, record, ttl)
}

func (r *repository) GetSessionBooking(ctx context.Context, sessionID string) (*BookingRecord, error) {
	key := constants.BuildSessionBookingKey(sessionID)

	var record BookingRecord
	err := r.cacheService.Get(ctx, key, &record)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		if errors.Is(err, cache.ErrCacheCorrupt) {
			_ = r.cacheService.Delete(ctx, key)
			return nil, nil
		}
		return nil, err
	}

	if record.Version != constants.BookingRecordVersion {
		// Schema drift is a miss, never an error
		_ = r.cacheService.Delete(ctx, key)
		return nil, nil
	}

	return &record, nil
}

func (r *repository) DeleteSessionBooking(ctx context.Context, sessionID string) error {
	return r.cacheService.Delete(ctx, constants.BuildSessionBookingKey(sessionID))
}
