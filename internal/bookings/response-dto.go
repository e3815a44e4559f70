package bookings

import "time"

// BookingResponse is the API shape of a finalized booking.
type BookingResponse struct {
	BookingID     string           `json:"booking_id"`
	BookingRef    string           `json:"booking_ref"`
	SessionID     string           `json:"session_id"`
	VenueID       string           `json:"venue_id"`
	Status        string           `json:"status"`
	CustomerName  string           `json:"customer_name"`
	CustomerPhone string           `json:"customer_phone"`
	CustomerEmail string           `json:"customer_email"`
	TotalSlots    int              `json:"total_slots"`
	TotalPrice    float64          `json:"total_price"`
	Currency      string           `json:"currency"`
	Slots         []BookedSlotInfo `json:"slots"`
	Payment       PaymentInfo      `json:"payment"`
	CreatedAt     time.Time        `json:"created_at"`
}

// BookedSlotInfo represents one booked court slot in responses
type BookedSlotInfo struct {
	CourtID   string  `json:"court_id"`
	SlotKey   string  `json:"slot_key"`
	Date      string  `json:"date"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Price     float64 `json:"price"`
}

// PaymentInfo represents payment information in responses
type PaymentInfo struct {
	ID            string     `json:"id"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	PaymentMethod string     `json:"payment_method"`
	Provider      string     `json:"provider,omitempty"`
	ProviderRef   string     `json:"provider_ref,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

// PaginatedBookings wraps a booking listing.
type PaginatedBookings struct {
	Bookings   []BookingResponse `json:"bookings"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}
