package bookings

// CustomerInfo is the contact information collected before confirmation.
type CustomerInfo struct {
	Name  string `json:"name" validate:"required,min=2,max=255"`
	Phone string `json:"phone" validate:"required,min=7,max=20,e164|numeric"`
	Email string `json:"email" validate:"required,email"`
}

// SubmitRequest converts the session's hold into a booking.
type SubmitRequest struct {
	Customer      CustomerInfo `json:"customer" validate:"required"`
	PaymentMethod string       `json:"payment_method" validate:"required,oneof=pay_at_venue payhere vnpay"`
}

// BookingListQuery paginates a booking listing.
type BookingListQuery struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=10" binding:"min=1,max=100"`
	Status string `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED CANCELLED"`
}
