package venues

import (
	"time"

	"github.com/google/uuid"
)

type Venue struct {
	ID          uuid.UUID   `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name        string      `json:"name" gorm:"not null;size:255"`
	Description string      `json:"description" gorm:"type:text"`
	Address     string      `json:"address" gorm:"not null;size:500"`
	City        string      `json:"city" gorm:"not null;size:100;index"`
	Phone       string      `json:"phone" gorm:"size:20"`
	ImageURL    string      `json:"image_url" gorm:"size:500"`
	Status      VenueStatus `json:"status" gorm:"type:varchar(20);default:'draft'"`

	Courts []Court `json:"-" gorm:"foreignKey:VenueID;constraint:OnDelete:CASCADE;"`

	CreatedBy uuid.UUID  `json:"created_by" gorm:"type:uuid;not null"`
	UpdatedBy *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

type Court struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	VenueID uuid.UUID `json:"venue_id" gorm:"type:uuid;not null;index"`
	Name    string    `json:"name" gorm:"not null;size:255"`
	Sport   string    `json:"sport" gorm:"not null;size:50;index"`
	Surface string    `json:"surface" gorm:"size:50"`
	Indoor  bool      `json:"indoor" gorm:"default:false"`

	// Slot grid. Slots run from OpenHour to CloseHour in SlotMinutes steps.
	OpenHour    int     `json:"open_hour" gorm:"not null;default:6;check:open_hour >= 0 AND open_hour < 24"`
	CloseHour   int     `json:"close_hour" gorm:"not null;default:22;check:close_hour > 0 AND close_hour <= 24"`
	SlotMinutes int     `json:"slot_minutes" gorm:"not null;default:60;check:slot_minutes > 0"`
	PricePerSlot float64 `json:"price_per_slot" gorm:"not null;check:price_per_slot >= 0"`

	Active bool `json:"active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type VenueResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Address     string      `json:"address"`
	City        string      `json:"city"`
	Phone       string      `json:"phone"`
	ImageURL    string      `json:"image_url"`
	Status      VenueStatus `json:"status"`
	Courts      []CourtResponse `json:"courts,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type CourtResponse struct {
	ID           string  `json:"id"`
	VenueID      string  `json:"venue_id"`
	Name         string  `json:"name"`
	Sport        string  `json:"sport"`
	Surface      string  `json:"surface"`
	Indoor       bool    `json:"indoor"`
	OpenHour     int     `json:"open_hour"`
	CloseHour    int     `json:"close_hour"`
	SlotMinutes  int     `json:"slot_minutes"`
	PricePerSlot float64 `json:"price_per_slot"`
	Active       bool    `json:"active"`
}

// SlotResponse is one bookable slot in a court's daily grid.
type SlotResponse struct {
	SlotKey   string    `json:"slot_key"`
	CourtID   string    `json:"court_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Price     float64   `json:"price"`
	Status    SlotState `json:"status"`
}

type SlotState string

const (
	SlotAvailable SlotState = "available"
	SlotHeld      SlotState = "held"
	SlotBooked    SlotState = "booked"
)

type CreateVenueRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=255"`
	Description string `json:"description" binding:"max=2000"`
	Address     string `json:"address" binding:"required,min=5,max=500"`
	City        string `json:"city" binding:"required,min=2,max=100"`
	Phone       string `json:"phone" binding:"omitempty,max=20"`
	ImageURL    string `json:"image_url" binding:"omitempty,url"`
}

type UpdateVenueRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=3,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Address     *string `json:"address" binding:"omitempty,min=5,max=500"`
	City        *string `json:"city" binding:"omitempty,min=2,max=100"`
	Phone       *string `json:"phone" binding:"omitempty,max=20"`
	ImageURL    *string `json:"image_url" binding:"omitempty,url"`
	Status      *string `json:"status" binding:"omitempty,oneof=draft published archived"`
}

type CreateCourtRequest struct {
	Name         string  `json:"name" binding:"required,min=2,max=255"`
	Sport        string  `json:"sport" binding:"required,min=2,max=50"`
	Surface      string  `json:"surface" binding:"omitempty,max=50"`
	Indoor       bool    `json:"indoor"`
	OpenHour     int     `json:"open_hour" binding:"min=0,max=23"`
	CloseHour    int     `json:"close_hour" binding:"required,min=1,max=24"`
	SlotMinutes  int     `json:"slot_minutes" binding:"required,min=15,max=240"`
	PricePerSlot float64 `json:"price_per_slot" binding:"required,min=0"`
}

type VenueListQuery struct {
	City  string `form:"city"`
	Sport string `form:"sport"`
	Page  int    `form:"page,default=1" binding:"min=1"`
	Limit int    `form:"limit,default=20" binding:"min=1,max=100"`
}

type PaginatedVenues struct {
	Venues     []VenueResponse `json:"venues"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}
