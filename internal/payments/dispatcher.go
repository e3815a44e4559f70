package payments

import (
	"context"
	"fmt"

	"courtside/internal/bookings"
	"courtside/internal/payments/providers"
	"courtside/internal/shared/config"
	"courtside/pkg/logger"

	"github.com/google/uuid"
)

// RedirectGuard marks a session as intentionally leaving for a payment
// gateway so its navigation guard stands down.
type RedirectGuard interface {
	MarkRedirecting(sessionID string)
	ClearRedirect(sessionID string)
}

type Service interface {
	// Dispatch routes the session's pending booking to its payment method:
	// pay-at-venue completes inline, gateway methods return a redirect URL.
	Dispatch(ctx context.Context, sessionID string) (*DispatchResponse, error)

	// HandleReturn reconciles a gateway return callback into a final
	// payment state. It is idempotent.
	HandleReturn(ctx context.Context, sessionID, providerName string, params map[string]string) (*ReturnResult, error)
}

type service struct {
	bookings bookings.Service
	registry *providers.Registry
	guard    RedirectGuard
	config   *config.Config
	log      *logger.Logger
}

func NewService(bookingService bookings.Service, registry *providers.Registry, guard RedirectGuard, cfg *config.Config) Service {
	return &service{
		bookings: bookingService,
		registry: registry,
		guard:    guard,
		config:   cfg,
		log:      logger.GetDefault(),
	}
}

func (s *service) Dispatch(ctx context.Context, sessionID string) (*DispatchResponse, error) {
	record, err := s.bookings.GetSessionRecord(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNoPendingBooking
	}

	booking := record.Booking
	switch bookings.Status(booking.Status) {
	case bookings.StatusConfirmed:
		// Dispatch re-run after completion resolves inline
		return &DispatchResponse{Mode: ModeInline, Booking: &booking}, nil
	case bookings.StatusCancelled:
		return nil, ErrBookingCancelled
	}

	bookingID, err := uuid.Parse(booking.BookingID)
	if err != nil {
		return nil, fmt.Errorf("malformed booking ID in recovery record: %w", err)
	}

	if bookings.PaymentMethod(booking.Payment.PaymentMethod) == bookings.MethodPayAtVenue {
		confirmed, err := s.bookings.ConfirmOffline(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if err := s.bookings.ClearSessionRecord(ctx, sessionID); err != nil {
			s.log.ErrorWithContext(ctx, "booking recovery record clear failed", err, nil)
		}
		s.log.LogPaymentDispatched(ctx, booking.BookingID, "pay_at_venue", booking.BookingRef)
		return &DispatchResponse{Mode: ModeInline, Booking: confirmed}, nil
	}

	provider, err := s.registry.Get(booking.Payment.PaymentMethod)
	if err != nil {
		return nil, err
	}

	returnURL := fmt.Sprintf("%s/payments/return/%s?session=%s", s.config.Payments.ReturnBaseURL, provider.Name(), sessionID)

	// The guard must stand down before the browser leaves, or the redirect
	// itself would read as an abandonment
	s.guard.MarkRedirecting(sessionID)

	checkout, err := provider.CreateCheckout(ctx, providers.CheckoutRequest{
		BookingRef:    booking.BookingRef,
		Amount:        booking.TotalPrice,
		Currency:      booking.Currency,
		CustomerName:  booking.CustomerName,
		CustomerPhone: booking.CustomerPhone,
		CustomerEmail: booking.CustomerEmail,
		ReturnURL:     returnURL,
		CancelURL:     returnURL,
	})
	if err != nil {
		// Booking stays pending so the user can retry the dispatch
		s.guard.ClearRedirect(sessionID)
		return nil, fmt.Errorf("failed to start %s checkout: %w", provider.Name(), err)
	}

	if err := s.bookings.AttachProviderRef(ctx, sessionID, bookingID, provider.Name(), checkout.ProviderRef); err != nil {
		s.guard.ClearRedirect(sessionID)
		return nil, err
	}

	s.log.LogPaymentDispatched(ctx, booking.BookingID, provider.Name(), checkout.ProviderRef)
	return &DispatchResponse{Mode: ModeRedirect, RedirectURL: checkout.RedirectURL, Booking: &booking}, nil
}
