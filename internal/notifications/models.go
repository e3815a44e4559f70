package notifications

import (
	"encoding/json"
	"time"

	"courtside/internal/bookings"

	"github.com/google/uuid"
)

// EventType identifies a reservation lifecycle event on the bus.
type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
	EventHoldExpired      EventType = "hold.expired"
)

// ReservationEvent is the message published for every booking transition.
// Downstream consumers (email, SMS, venue dashboards) fan out from here.
type ReservationEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	BookingID  string    `json:"booking_id,omitempty"`
	BookingRef string    `json:"booking_ref,omitempty"`
	HoldID     string    `json:"hold_id,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	VenueID    string    `json:"venue_id,omitempty"`
	TotalSlots int       `json:"total_slots,omitempty"`
	TotalPrice float64   `json:"total_price,omitempty"`
	Currency   string    `json:"currency,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewReservationEvent(eventType EventType, booking *bookings.BookingResponse) *ReservationEvent {
	return &ReservationEvent{
		ID:         uuid.New(),
		Type:       eventType,
		BookingID:  booking.BookingID,
		BookingRef: booking.BookingRef,
		SessionID:  booking.SessionID,
		VenueID:    booking.VenueID,
		TotalSlots: booking.TotalSlots,
		TotalPrice: booking.TotalPrice,
		Currency:   booking.Currency,
		OccurredAt: time.Now(),
	}
}

func (e *ReservationEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// GetPartitionKey keeps all events for one booking on one partition so
// consumers see them in order. Hold events have no booking yet and key
// on the hold instead.
func (e *ReservationEvent) GetPartitionKey() string {
	if e.BookingRef != "" {
		return e.BookingRef
	}
	return e.HoldID
}
