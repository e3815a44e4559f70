package payments

import (
	"context"
	"errors"
	"testing"

	"courtside/internal/bookings"
	"courtside/internal/payments/providers"
	"courtside/internal/shared/config"
	"courtside/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBookings struct {
	bookings.Service

	record    *bookings.BookingRecord
	booking   *bookings.BookingResponse
	completed []string
	failed    []string
	cleared   int
	attached  []string
	confirmed int
}

func (f *fakeBookings) GetSessionRecord(ctx context.Context, sessionID string) (*bookings.BookingRecord, error) {
	return f.record, nil
}

func (f *fakeBookings) AttachProviderRef(ctx context.Context, sessionID string, bookingID uuid.UUID, provider, providerRef string) error {
	f.attached = append(f.attached, provider+":"+providerRef)
	if f.record != nil {
		f.record.Provider = provider
		f.record.ProviderRef = providerRef
	}
	return nil
}

func (f *fakeBookings) ClearSessionRecord(ctx context.Context, sessionID string) error {
	f.cleared++
	f.record = nil
	return nil
}

func (f *fakeBookings) ConfirmOffline(ctx context.Context, bookingID uuid.UUID) (*bookings.BookingResponse, error) {
	f.confirmed++
	confirmed := *f.booking
	confirmed.Status = "CONFIRMED"
	return &confirmed, nil
}

func (f *fakeBookings) CompletePayment(ctx context.Context, bookingID uuid.UUID, transactionID string) (*bookings.BookingResponse, error) {
	f.completed = append(f.completed, transactionID)
	confirmed := *f.booking
	confirmed.Status = "CONFIRMED"
	confirmed.Payment.Status = "COMPLETED"
	confirmed.Payment.TransactionID = transactionID
	f.booking = &confirmed
	return &confirmed, nil
}

func (f *fakeBookings) FailPayment(ctx context.Context, bookingID uuid.UUID, reason string) error {
	f.failed = append(f.failed, reason)
	return nil
}

func (f *fakeBookings) FindByProviderRef(ctx context.Context, provider, providerRef string) (*bookings.BookingResponse, error) {
	if f.booking != nil && f.booking.Payment.ProviderRef == providerRef {
		return f.booking, nil
	}
	return nil, bookings.ErrBookingNotFound
}

type fakeGuard struct {
	marked  []string
	cleared []string
}

func (f *fakeGuard) MarkRedirecting(sessionID string) { f.marked = append(f.marked, sessionID) }
func (f *fakeGuard) ClearRedirect(sessionID string)   { f.cleared = append(f.cleared, sessionID) }

type fakeProvider struct {
	name        string
	checkoutErr error
	remote      *providers.Verification
	local       *providers.Verification
	localErr    error

	guardMarkedAtCheckout bool
	guard                 *fakeGuard
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) CreateCheckout(ctx context.Context, req providers.CheckoutRequest) (*providers.CheckoutSession, error) {
	if f.guard != nil {
		f.guardMarkedAtCheckout = len(f.guard.marked) > 0
	}
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	return &providers.CheckoutSession{
		RedirectURL: "https://gateway.example/checkout/" + req.BookingRef,
		ProviderRef: req.BookingRef,
	}, nil
}

func (f *fakeProvider) ExtractRef(params map[string]string) (string, error) {
	if ref := params["ref"]; ref != "" {
		return ref, nil
	}
	return "", providers.ErrMissingReference
}

func (f *fakeProvider) VerifyRemote(ctx context.Context, providerRef string) (*providers.Verification, error) {
	if f.remote == nil {
		return &providers.Verification{Outcome: providers.OutcomeIndeterminate}, nil
	}
	return f.remote, nil
}

func (f *fakeProvider) VerifyLocal(params map[string]string) (*providers.Verification, error) {
	if f.localErr != nil {
		return nil, f.localErr
	}
	if f.local == nil {
		return &providers.Verification{Outcome: providers.OutcomeIndeterminate}, nil
	}
	return f.local, nil
}

func pendingRecord(method string) (*bookings.BookingRecord, *bookings.BookingResponse) {
	booking := &bookings.BookingResponse{
		BookingID:  uuid.NewString(),
		BookingRef: "CRT-20260905-ABCDEF",
		SessionID:  "sess-1",
		Status:     "PENDING",
		TotalPrice: 3000,
		Currency:   "LKR",
		Payment: bookings.PaymentInfo{
			Status:        "PENDING",
			PaymentMethod: method,
		},
	}
	return &bookings.BookingRecord{Version: 1, Booking: *booking}, booking
}

func testPaymentService(t *testing.T, provider *fakeProvider, store *fakeBookings) (*service, *fakeGuard) {
	t.Helper()
	guard := &fakeGuard{}
	provider.guard = guard
	cfg := &config.Config{}
	cfg.Payments.ReturnBaseURL = "https://courtside.example"
	return &service{
		bookings: store,
		registry: providers.NewRegistry(provider),
		guard:    guard,
		config:   cfg,
		log:      logger.GetDefault(),
	}, guard
}

func TestDispatchPayAtVenueConfirmsInline(t *testing.T) {
	record, booking := pendingRecord("pay_at_venue")
	store := &fakeBookings{record: record, booking: booking}
	svc, guard := testPaymentService(t, &fakeProvider{name: "payhere"}, store)

	result, err := svc.Dispatch(context.Background(), "sess-1")
	require.NoError(t, err)

	assert.Equal(t, ModeInline, result.Mode)
	assert.Empty(t, result.RedirectURL)
	assert.Equal(t, "CONFIRMED", result.Booking.Status)
	assert.Equal(t, 1, store.confirmed)
	assert.Equal(t, 1, store.cleared)
	assert.Empty(t, guard.marked)
}

func TestDispatchExternalMarksRedirectBeforeCheckout(t *testing.T) {
	record, booking := pendingRecord("payhere")
	store := &fakeBookings{record: record, booking: booking}
	provider := &fakeProvider{name: "payhere"}
	svc, guard := testPaymentService(t, provider, store)

	result, err := svc.Dispatch(context.Background(), "sess-1")
	require.NoError(t, err)

	assert.Equal(t, ModeRedirect, result.Mode)
	assert.Contains(t, result.RedirectURL, booking.BookingRef)
	assert.True(t, provider.guardMarkedAtCheckout, "guard must stand down before the checkout session is created")
	assert.Equal(t, []string{"sess-1"}, guard.marked)
	assert.Equal(t, []string{"payhere:" + booking.BookingRef}, store.attached)
}

func TestDispatchCheckoutFailurePreservesBooking(t *testing.T) {
	record, booking := pendingRecord("payhere")
	store := &fakeBookings{record: record, booking: booking}
	provider := &fakeProvider{name: "payhere", checkoutErr: errors.New("gateway down")}
	svc, guard := testPaymentService(t, provider, store)

	_, err := svc.Dispatch(context.Background(), "sess-1")
	require.Error(t, err)

	// Redirect flag rolled back, booking untouched, no ref attached
	assert.Equal(t, []string{"sess-1"}, guard.cleared)
	assert.NotNil(t, store.record)
	assert.Empty(t, store.attached)
}

func TestDispatchWithoutBookingFails(t *testing.T) {
	svc, _ := testPaymentService(t, &fakeProvider{name: "payhere"}, &fakeBookings{})

	_, err := svc.Dispatch(context.Background(), "sess-1")
	assert.ErrorIs(t, err, ErrNoPendingBooking)
}

func TestReturnSuccessUsesAuthoritativeVerdict(t *testing.T) {
	record, booking := pendingRecord("payhere")
	booking.Payment.Provider = "payhere"
	booking.Payment.ProviderRef = booking.BookingRef
	store := &fakeBookings{record: record, booking: booking}
	provider := &fakeProvider{
		name:   "payhere",
		remote: &providers.Verification{Outcome: providers.OutcomePaid, TransactionID: "TXN_remote"},
		// A forged local payload must not matter when the provider answers
		localErr: providers.ErrBadSignature,
	}
	svc, guard := testPaymentService(t, provider, store)

	result, err := svc.HandleReturn(context.Background(), "sess-1", "payhere", map[string]string{"ref": booking.BookingRef})
	require.NoError(t, err)

	assert.Equal(t, ReturnSuccess, result.Status)
	assert.Equal(t, "CONFIRMED", result.Booking.Status)
	assert.Equal(t, []string{"TXN_remote"}, store.completed)
	assert.Equal(t, 1, store.cleared)
	assert.Equal(t, []string{"sess-1"}, guard.cleared)
}

func TestReturnFallsBackToSignedCallback(t *testing.T) {
	record, booking := pendingRecord("payhere")
	booking.Payment.ProviderRef = booking.BookingRef
	store := &fakeBookings{record: record, booking: booking}
	provider := &fakeProvider{
		name:  "payhere",
		local: &providers.Verification{Outcome: providers.OutcomePaid, TransactionID: "TXN_local"},
	}
	svc, _ := testPaymentService(t, provider, store)

	result, err := svc.HandleReturn(context.Background(), "sess-1", "payhere", map[string]string{"ref": booking.BookingRef})
	require.NoError(t, err)

	// Same success shape as the authoritative path
	assert.Equal(t, ReturnSuccess, result.Status)
	assert.Equal(t, []string{"TXN_local"}, store.completed)
}

func TestReturnRejectsUnsignedCallback(t *testing.T) {
	record, booking := pendingRecord("payhere")
	booking.Payment.ProviderRef = booking.BookingRef
	store := &fakeBookings{record: record, booking: booking}
	provider := &fakeProvider{name: "payhere", localErr: providers.ErrBadSignature}
	svc, _ := testPaymentService(t, provider, store)

	result, err := svc.HandleReturn(context.Background(), "sess-1", "payhere", map[string]string{"ref": booking.BookingRef})
	require.NoError(t, err)

	assert.Equal(t, ReturnFailed, result.Status)
	assert.Empty(t, store.completed)
	assert.Len(t, store.failed, 1)
}

func TestReturnWithoutReferenceNeverSucceeds(t *testing.T) {
	store := &fakeBookings{}
	provider := &fakeProvider{
		name:   "payhere",
		remote: &providers.Verification{Outcome: providers.OutcomePaid},
	}
	svc, _ := testPaymentService(t, provider, store)

	result, err := svc.HandleReturn(context.Background(), "sess-1", "payhere", map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, ReturnFailed, result.Status)
	assert.Empty(t, store.completed)
}

func TestReturnRecoversReferenceFromRecord(t *testing.T) {
	record, booking := pendingRecord("payhere")
	record.Provider = "payhere"
	record.ProviderRef = booking.BookingRef
	booking.Payment.ProviderRef = booking.BookingRef
	store := &fakeBookings{record: record, booking: booking}
	provider := &fakeProvider{
		name:   "payhere",
		remote: &providers.Verification{Outcome: providers.OutcomePaid, TransactionID: "TXN_remote"},
	}
	svc, _ := testPaymentService(t, provider, store)

	// A reload stripped the callback params; the dispatch-time record fills in
	result, err := svc.HandleReturn(context.Background(), "sess-1", "payhere", map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, ReturnSuccess, result.Status)
	assert.Equal(t, []string{"TXN_remote"}, store.completed)
}

func TestReturnIsIdempotent(t *testing.T) {
	record, booking := pendingRecord("payhere")
	booking.Payment.ProviderRef = booking.BookingRef
	booking.Payment.Status = "COMPLETED"
	booking.Status = "CONFIRMED"
	store := &fakeBookings{record: record, booking: booking}
	provider := &fakeProvider{name: "payhere", localErr: providers.ErrBadSignature}
	svc, _ := testPaymentService(t, provider, store)

	result, err := svc.HandleReturn(context.Background(), "sess-1", "payhere", map[string]string{"ref": booking.BookingRef})
	require.NoError(t, err)

	assert.Equal(t, ReturnSuccess, result.Status)
	assert.Empty(t, store.completed)
	assert.Empty(t, store.failed)
}

func TestReturnCancelledKeepsBookingForRetry(t *testing.T) {
	record, booking := pendingRecord("payhere")
	booking.Payment.ProviderRef = booking.BookingRef
	store := &fakeBookings{record: record, booking: booking}
	provider := &fakeProvider{
		name:   "payhere",
		remote: &providers.Verification{Outcome: providers.OutcomeCancelled, Reason: "payment cancelled by customer"},
	}
	svc, _ := testPaymentService(t, provider, store)

	result, err := svc.HandleReturn(context.Background(), "sess-1", "payhere", map[string]string{"ref": booking.BookingRef})
	require.NoError(t, err)

	assert.Equal(t, ReturnCancelled, result.Status)
	assert.NotNil(t, store.record, "recovery record survives so the user can retry with another method")
	assert.Len(t, store.failed, 1)
}
