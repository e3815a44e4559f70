package bookings

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

func (s Status) CanBeCancelled() bool {
	return s == StatusPending || s == StatusConfirmed
}

// PaymentMethod is how the customer chose to pay.
type PaymentMethod string

const (
	// MethodPayAtVenue settles offline at the venue counter.
	MethodPayAtVenue PaymentMethod = "pay_at_venue"
	// MethodPayHere pays online through the PayHere gateway.
	MethodPayHere PaymentMethod = "payhere"
	// MethodVNPay pays online through the VNPay gateway.
	MethodVNPay PaymentMethod = "vnpay"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodPayAtVenue, MethodPayHere, MethodVNPay:
		return true
	}
	return false
}

// RequiresProvider reports whether this method needs an external checkout
// redirect.
func (m PaymentMethod) RequiresProvider() bool {
	return m == MethodPayHere || m == MethodVNPay
}

func (m PaymentMethod) String() string {
	return string(m)
}
