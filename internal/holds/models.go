package holds

import (
	"errors"
	"time"

	"courtside/internal/venues"

	"github.com/google/uuid"
)

var (
	// ErrSlotUnavailable means another session already holds or booked one
	// of the requested slots. The caller gets the conflicting slot key in
	// the error message and must re-select.
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrHoldActive means the session already owns a live hold.
	ErrHoldActive = errors.New("session already has an active hold")

	ErrHoldNotFound = errors.New("hold not found")
)

// SlotRef identifies one court time-slot inside a hold.
type SlotRef struct {
	CourtID   uuid.UUID `json:"court_id"`
	Date      string    `json:"date"`       // YYYY-MM-DD
	StartTime string    `json:"start_time"` // HH:MM
	EndTime   string    `json:"end_time"`
	Price     float64   `json:"price"`
}

// Key returns the canonical slot key this ref claims.
func (s SlotRef) Key() string {
	return venues.SlotKey(s.CourtID.String(), s.Date, s.StartTime)
}

// Hold is a time-boxed exclusive claim on one or more court slots.
// It lives in Redis only; promotion to a Booking is the one way it
// becomes durable.
type Hold struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	VenueID    uuid.UUID `json:"venue_id"`
	Slots      []SlotRef `json:"slots"`
	Quantity   int       `json:"quantity"`
	TotalPrice float64   `json:"total_price"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Active reports whether the hold is still live at time now.
func (h *Hold) Active(now time.Time) bool {
	return now.Before(h.ExpiresAt)
}

// HoldRecord is the versioned recovery payload written to the session's
// hold slot in Redis. A record whose version does not match is treated as
// a cache miss, never a parse error.
type HoldRecord struct {
	Version int  `json:"version"`
	Hold    Hold `json:"hold"`
}

// AcquireRequest carries the slot selection handed off from browsing.
type AcquireRequest struct {
	VenueID uuid.UUID `json:"venue_id" validate:"required"`
	Slots   []SlotRef `json:"slots" validate:"required,min=1,max=10,dive"`
}
