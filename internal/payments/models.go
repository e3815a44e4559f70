package payments

import (
	"errors"

	"courtside/internal/bookings"
)

var (
	// ErrNoPendingBooking means dispatch was called with no submitted
	// booking on the session.
	ErrNoPendingBooking = errors.New("no pending booking for this session")

	ErrBookingCancelled = errors.New("booking has been cancelled")
)

// Dispatch modes. Inline means the flow completed on our side with no
// gateway involved; redirect means the client must navigate to the
// returned URL, replacing the current history entry.
const (
	ModeInline   = "inline"
	ModeRedirect = "redirect"
)

// Return statuses as shown to the client.
const (
	ReturnSuccess   = "success"
	ReturnFailed    = "failed"
	ReturnCancelled = "cancelled"
	ReturnPending   = "pending"
)

type DispatchResponse struct {
	Mode        string                    `json:"mode"`
	RedirectURL string                    `json:"redirect_url,omitempty"`
	Booking     *bookings.BookingResponse `json:"booking,omitempty"`
}

type ReturnResult struct {
	Status  string                    `json:"status"`
	Reason  string                    `json:"reason,omitempty"`
	Booking *bookings.BookingResponse `json:"booking,omitempty"`
}
