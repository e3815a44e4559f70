package payments

import (
	"context"
	"errors"

	"courtside/internal/bookings"
	"courtside/internal/payments/providers"

	"github.com/google/uuid"
)

func (s *service) HandleReturn(ctx context.Context, sessionID, providerName string, params map[string]string) (*ReturnResult, error) {
	// The user is back; re-arm the navigation guard whatever the outcome
	defer s.guard.ClearRedirect(sessionID)

	provider, err := s.registry.Get(providerName)
	if err != nil {
		return nil, err
	}

	ref := s.resolveRef(ctx, sessionID, provider, params)
	if ref == "" {
		// Without a reference nothing can be verified; never show success
		// on an unverifiable return
		s.log.LogPaymentReconciled(ctx, "", string(providers.OutcomeFailed), "missing provider reference")
		return &ReturnResult{Status: ReturnFailed, Reason: "payment could not be verified"}, nil
	}

	booking, err := s.bookings.FindByProviderRef(ctx, providerName, ref)
	if err != nil {
		if errors.Is(err, bookings.ErrBookingNotFound) || errors.Is(err, bookings.ErrPaymentNotFound) {
			return &ReturnResult{Status: ReturnFailed, Reason: "no booking matches this payment"}, nil
		}
		return nil, err
	}

	// Re-run of an already reconciled return: same success view, no second
	// state transition
	if booking.Payment.Status == "COMPLETED" {
		return &ReturnResult{Status: ReturnSuccess, Booking: booking}, nil
	}

	verification := s.verify(ctx, provider, ref, params)

	bookingID, err := uuid.Parse(booking.BookingID)
	if err != nil {
		return nil, err
	}

	s.log.LogPaymentReconciled(ctx, ref, string(verification.Outcome), verification.Reason)

	switch verification.Outcome {
	case providers.OutcomePaid:
		confirmed, err := s.bookings.CompletePayment(ctx, bookingID, verification.TransactionID)
		if err != nil {
			return nil, err
		}
		if err := s.bookings.ClearSessionRecord(ctx, sessionID); err != nil {
			s.log.ErrorWithContext(ctx, "booking recovery record clear failed", err, nil)
		}
		return &ReturnResult{Status: ReturnSuccess, Booking: confirmed}, nil

	case providers.OutcomeCancelled:
		if err := s.bookings.FailPayment(ctx, bookingID, verification.Reason); err != nil {
			return nil, err
		}
		return &ReturnResult{Status: ReturnCancelled, Reason: verification.Reason, Booking: booking}, nil

	case providers.OutcomePending:
		// Gateway has not settled yet; leave the payment pending
		return &ReturnResult{Status: ReturnPending, Reason: verification.Reason, Booking: booking}, nil

	default:
		if err := s.bookings.FailPayment(ctx, bookingID, verification.Reason); err != nil {
			return nil, err
		}
		return &ReturnResult{Status: ReturnFailed, Reason: verification.Reason, Booking: booking}, nil
	}
}

// resolveRef pulls the provider reference from the callback parameters,
// falling back to the one persisted at dispatch time. A reload that lost
// the query string can still reconcile through the recovery record.
func (s *service) resolveRef(ctx context.Context, sessionID string, provider providers.Provider, params map[string]string) string {
	if ref, err := provider.ExtractRef(params); err == nil {
		return ref
	}

	record, err := s.bookings.GetSessionRecord(ctx, sessionID)
	if err != nil || record == nil {
		return ""
	}
	if record.Provider != provider.Name() {
		return ""
	}
	return record.ProviderRef
}

// verify runs the two-stage check: the provider's own API is authoritative;
// only when it cannot answer do the signed callback parameters decide.
func (s *service) verify(ctx context.Context, provider providers.Provider, ref string, params map[string]string) *providers.Verification {
	remote, err := provider.VerifyRemote(ctx, ref)
	if err == nil && remote.Outcome != providers.OutcomeIndeterminate {
		return remote
	}

	local, err := provider.VerifyLocal(params)
	if err != nil {
		if errors.Is(err, providers.ErrBadSignature) {
			s.log.LogSignatureMismatch(ctx, provider.Name(), ref)
		}
		return &providers.Verification{Outcome: providers.OutcomeFailed, Reason: "payment could not be verified"}
	}
	return local
}
