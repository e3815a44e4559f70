package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Booking defines the main booking structure
type Booking struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID  string     `gorm:"type:varchar(64);index;not null" json:"session_id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	VenueID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"venue_id"`
	HoldID     string     `gorm:"type:varchar(64);not null" json:"hold_id"`
	BookingRef string     `gorm:"unique;not null" json:"booking_ref"`

	CustomerName  string `gorm:"not null;size:255" json:"customer_name"`
	CustomerPhone string `gorm:"not null;size:20" json:"customer_phone"`
	CustomerEmail string `gorm:"not null;size:255" json:"customer_email"`

	TotalSlots  int     `gorm:"not null" json:"total_slots"`
	TotalPrice  float64 `gorm:"not null" json:"total_price"`
	Currency    string  `gorm:"type:varchar(3);default:'LKR'" json:"currency"`
	Status      string  `gorm:"type:varchar(20);check:status IN ('PENDING', 'CONFIRMED', 'CANCELLED');default:'PENDING'" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	// Relationships
	Slots    []BookingSlot `json:"slots,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
	Payments []Payment     `json:"payments,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:RESTRICT;"`
}

// BookingSlot defines the structure for individual booked court slots
type BookingSlot struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;index;not null" json:"booking_id"`
	CourtID   uuid.UUID `gorm:"type:uuid;index;not null" json:"court_id"`
	SlotKey   string    `gorm:"uniqueIndex;not null" json:"slot_key"`
	SlotDate  string    `gorm:"type:varchar(10);not null" json:"slot_date"`
	StartTime string    `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime   string    `gorm:"type:varchar(5);not null" json:"end_time"`
	SlotPrice float64   `gorm:"not null" json:"slot_price"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	Booking *Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
}

// Payment defines the structure for payment tracking
type Payment struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"booking_id"`
	Amount        float64    `gorm:"not null" json:"amount"`
	Currency      string     `gorm:"type:varchar(3);default:'LKR'" json:"currency"`
	Status        string     `gorm:"type:varchar(20);check:status IN ('PENDING', 'COMPLETED', 'FAILED', 'REFUNDED');default:'PENDING'" json:"status"`
	PaymentMethod string     `gorm:"type:varchar(50)" json:"payment_method"`
	Provider      string     `gorm:"type:varchar(50)" json:"provider,omitempty"`
	ProviderRef   string     `gorm:"index" json:"provider_ref,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Relationships
	Booking *Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// TableName sets the table name for BookingSlot
func (BookingSlot) TableName() string {
	return "booking_slots"
}

// TableName sets the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// Helper methods for booking management
func (b *Booking) IsConfirmed() bool {
	return b.Status == "CONFIRMED"
}

func (b *Booking) IsCancelled() bool {
	return b.Status == "CANCELLED"
}

func (b *Booking) Cancel() {
	b.Status = "CANCELLED"
	now := time.Now()
	b.CancelledAt = &now
	b.UpdatedAt = now
}

// Helper methods for payment management
func (p *Payment) IsPending() bool {
	return p.Status == "PENDING"
}

func (p *Payment) IsCompleted() bool {
	return p.Status == "COMPLETED"
}

func (p *Payment) IsFailed() bool {
	return p.Status == "FAILED"
}

func (p *Payment) MarkCompleted(transactionID string) {
	p.Status = "COMPLETED"
	p.TransactionID = transactionID
	now := time.Now()
	p.ProcessedAt = &now
	p.UpdatedAt = now
}

func (p *Payment) MarkFailed(reason string) {
	p.Status = "FAILED"
	p.FailureReason = reason
	now := time.Now()
	p.ProcessedAt = &now
	p.UpdatedAt = now
}

// Convert Payment to PaymentInfo
func (p *Payment) ToPaymentInfo() PaymentInfo {
	return PaymentInfo{
		ID:            p.ID.String(),
		Amount:        p.Amount,
		Currency:      p.Currency,
		Status:        p.Status,
		PaymentMethod: p.PaymentMethod,
		Provider:      p.Provider,
		ProviderRef:   p.ProviderRef,
		TransactionID: p.TransactionID,
		ProcessedAt:   p.ProcessedAt,
	}
}

// BookingRecord is the versioned recovery payload cached against the
// session. It carries the customer info alongside the booking because the
// success view needs both after a reload, and the provider reference once
// a payment has been dispatched.
type BookingRecord struct {
	Version     int             `json:"version"`
	Booking     BookingResponse `json:"booking"`
	Provider    string          `json:"provider,omitempty"`
	ProviderRef string          `json:"provider_ref,omitempty"`
}
