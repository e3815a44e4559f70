package bookings

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sync"
	"time"

	"courtside/internal/holds"
	"courtside/internal/shared/config"
	"courtside/internal/shared/constants"
	"courtside/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	// ErrSubmissionInFlight guards the confirm action: a second submit for
	// the same session while one is running is rejected, not queued.
	ErrSubmissionInFlight = errors.New("a submission is already in flight for this session")

	// ErrAlreadySubmitted means this session's hold was already promoted.
	ErrAlreadySubmitted = errors.New("booking already exists for this session")

	// ErrHoldGone means there is no live hold to promote (expired or
	// released).
	ErrHoldGone = errors.New("no active hold for this session")
)

// EventPublisher pushes booking lifecycle events onto the message bus.
// Nil publisher means notifications are disabled.
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, booking *BookingResponse) error
	PublishBookingConfirmed(ctx context.Context, booking *BookingResponse) error
	PublishBookingCancelled(ctx context.Context, bookingID, bookingRef string) error
}

type Service interface {
	// Submit promotes the session's hold into a booking, exactly once per
	// session. The hold is consumed only on success; a failed submit
	// leaves it active so the user can correct and retry within the
	// countdown.
	Submit(ctx context.Context, sessionID string, req SubmitRequest) (*BookingResponse, error)

	// SetPublisher wires the notification producer. Optional.
	SetPublisher(publisher EventPublisher)

	GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingResponse, error)
	ListSessionBookings(ctx context.Context, sessionID string, query BookingListQuery) (*PaginatedBookings, error)
	CancelBooking(ctx context.Context, sessionID string, bookingID uuid.UUID) error

	// Recovery record operations used across the payment flow
	GetSessionRecord(ctx context.Context, sessionID string) (*BookingRecord, error)
	AttachProviderRef(ctx context.Context, sessionID string, bookingID uuid.UUID, provider, providerRef string) error
	ClearSessionRecord(ctx context.Context, sessionID string) error

	// Payment state transitions. ConfirmOffline finalizes a pay-at-venue
	// booking with its payment left pending; CompletePayment and
	// FailPayment are driven by payment reconciliation only.
	ConfirmOffline(ctx context.Context, bookingID uuid.UUID) (*BookingResponse, error)
	CompletePayment(ctx context.Context, bookingID uuid.UUID, transactionID string) (*BookingResponse, error)
	FailPayment(ctx context.Context, bookingID uuid.UUID, reason string) error
	FindByProviderRef(ctx context.Context, provider, providerRef string) (*BookingResponse, error)
}

type service struct {
	repo      Repository
	holds     holds.Service
	publisher EventPublisher
	config    *config.Config
	validator *validator.Validate
	log       *logger.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewService(repo Repository, holdService holds.Service, cfg *config.Config) Service {
	return &service{
		repo:      repo,
		holds:     holdService,
		config:    cfg,
		validator: validator.New(),
		log:       logger.GetDefault(),
		inFlight:  make(map[string]bool),
	}
}

func (s *service) SetPublisher(publisher EventPublisher) {
	s.publisher = publisher
}

func (s *service) Submit(ctx context.Context, sessionID string, req SubmitRequest) (*BookingResponse, error) {
	if err := s.validator.Struct(&req); err != nil {
		return nil, err
	}

	// One submission in flight per session, mirroring the disabled confirm
	// button on the client
	s.mu.Lock()
	if s.inFlight[sessionID] {
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	s.inFlight[sessionID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, sessionID)
		s.mu.Unlock()
	}()

	// Exactly once per session: a prior non-cancelled booking wins
	if existing, err := s.repo.GetBookingBySessionID(ctx, sessionID); err == nil && !existing.IsCancelled() {
		return nil, ErrAlreadySubmitted
	}

	hold, err := s.holds.Recover(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if hold == nil {
		return nil, ErrHoldGone
	}

	bookingRef, err := s.generateBookingReference()
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}

	slots := make([]BookingSlot, 0, len(hold.Slots))
	for _, ref := range hold.Slots {
		slots = append(slots, BookingSlot{
			CourtID:   ref.CourtID,
			SlotKey:   ref.Key(),
			SlotDate:  ref.Date,
			StartTime: ref.StartTime,
			EndTime:   ref.EndTime,
			SlotPrice: ref.Price,
		})
	}

	booking := &Booking{
		SessionID:     sessionID,
		VenueID:       hold.VenueID,
		HoldID:        hold.ID,
		BookingRef:    bookingRef,
		CustomerName:  req.Customer.Name,
		CustomerPhone: req.Customer.Phone,
		CustomerEmail: req.Customer.Email,
		TotalSlots:    len(slots),
		TotalPrice:    hold.TotalPrice,
		Currency:      hold.Currency,
		Status:        StatusPending.String(),
		Slots:         slots,
		Payments: []Payment{{
			Amount:        hold.TotalPrice,
			Currency:      hold.Currency,
			Status:        "PENDING",
			PaymentMethod: req.PaymentMethod,
		}},
	}

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		// Hold stays active; the caller may retry within the countdown
		return nil, err
	}

	// The hold is consumed from here on and must never be independently
	// released
	if err := s.holds.Consume(ctx, sessionID, hold.ID); err != nil {
		s.log.ErrorWithContext(ctx, "hold consume failed after booking create", err, map[string]interface{}{
			"booking_id": booking.ID.String(),
			"hold_id":    hold.ID,
		})
	}

	resp := s.toResponse(booking)

	record := &BookingRecord{Version: constants.BookingRecordVersion, Booking: *resp}
	if err := s.repo.SaveSessionBooking(ctx, sessionID, record, s.config.Redis.BookingTTL); err != nil {
		s.log.ErrorWithContext(ctx, "booking recovery record save failed", err, map[string]interface{}{
			"booking_id": booking.ID.String(),
		})
	}

	if s.publisher != nil {
		if err := s.publisher.PublishBookingCreated(ctx, resp); err != nil {
			s.log.ErrorWithContext(ctx, "booking created event publish failed", err, nil)
		}
	}

	s.log.LogBookingCreated(ctx, booking.ID.String(), bookingRef, sessionID)
	return resp, nil
}

func (s *service) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingResponse, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(booking), nil
}

func (s *service) ListSessionBookings(ctx context.Context, sessionID string, query BookingListQuery) (*PaginatedBookings, error) {
	list, total, err := s.repo.ListSessionBookings(ctx, sessionID, query)
	if err != nil {
		return nil, err
	}

	responses := make([]BookingResponse, 0, len(list))
	for i := range list {
		responses = append(responses, *s.toResponse(&list[i]))
	}

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	return &PaginatedBookings{
		Bookings:   responses,
		Total:      total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(query.Limit))),
	}, nil
}

func (s *service) CancelBooking(ctx context.Context, sessionID string, bookingID uuid.UUID) error {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return err
	}

	if booking.SessionID != sessionID {
		return ErrBookingNotFound
	}
	if booking.IsCancelled() {
		return errors.New("booking is already cancelled")
	}

	now := time.Now()
	if err := s.repo.UpdateBookingStatus(ctx, bookingID, StatusCancelled, &now); err != nil {
		return err
	}

	_ = s.repo.DeleteSessionBooking(ctx, sessionID)

	if s.publisher != nil {
		if err := s.publisher.PublishBookingCancelled(ctx, bookingID.String(), booking.BookingRef); err != nil {
			s.log.ErrorWithContext(ctx, "booking cancelled event publish failed", err, nil)
		}
	}

	s.log.LogBookingCancelled(ctx, bookingID.String(), sessionID)
	return nil
}

func (s *service) GetSessionRecord(ctx context.Context, sessionID string) (*BookingRecord, error) {
	return s.repo.GetSessionBooking(ctx, sessionID)
}

func (s *service) AttachProviderRef(ctx context.Context, sessionID string, bookingID uuid.UUID, provider, providerRef string) error {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if len(booking.Payments) == 0 {
		return ErrPaymentNotFound
	}

	payment := &booking.Payments[0]
	payment.Provider = provider
	payment.ProviderRef = providerRef
	payment.UpdatedAt = time.Now()
	if err := s.repo.UpdatePayment(ctx, payment); err != nil {
		return err
	}

	// Keep the recovery record in step so a reload mid-redirect can still
	// match the provider callback to this booking
	record, err := s.repo.GetSessionBooking(ctx, sessionID)
	if err != nil || record == nil {
		record = &BookingRecord{Version: constants.BookingRecordVersion, Booking: *s.toResponse(booking)}
	}
	record.Provider = provider
	record.ProviderRef = providerRef
	record.Booking.Payment = payment.ToPaymentInfo()
	return s.repo.SaveSessionBooking(ctx, sessionID, record, s.config.Redis.BookingTTL)
}

func (s *service) ClearSessionRecord(ctx context.Context, sessionID string) error {
	return s.repo.DeleteSessionBooking(ctx, sessionID)
}

func (s *service) ConfirmOffline(ctx context.Context, bookingID uuid.UUID) (*BookingResponse, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateBookingStatus(ctx, bookingID, StatusConfirmed, nil); err != nil {
		return nil, err
	}
	booking.Status = StatusConfirmed.String()

	resp := s.toResponse(booking)
	if s.publisher != nil {
		if err := s.publisher.PublishBookingConfirmed(ctx, resp); err != nil {
			s.log.ErrorWithContext(ctx, "booking confirmed event publish failed", err, nil)
		}
	}
	return resp, nil
}

func (s *service) CompletePayment(ctx context.Context, bookingID uuid.UUID, transactionID string) (*BookingResponse, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if len(booking.Payments) == 0 {
		return nil, ErrPaymentNotFound
	}

	payment := &booking.Payments[0]
	if payment.IsCompleted() {
		// Re-run of reconciliation: same outcome, no second transition
		return s.toResponse(booking), nil
	}

	payment.MarkCompleted(transactionID)
	if err := s.repo.UpdatePayment(ctx, payment); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateBookingStatus(ctx, bookingID, StatusConfirmed, nil); err != nil {
		return nil, err
	}
	booking.Status = StatusConfirmed.String()

	resp := s.toResponse(booking)
	if s.publisher != nil {
		if err := s.publisher.PublishBookingConfirmed(ctx, resp); err != nil {
			s.log.ErrorWithContext(ctx, "booking confirmed event publish failed", err, nil)
		}
	}
	return resp, nil
}

func (s *service) FailPayment(ctx context.Context, bookingID uuid.UUID, reason string) error {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if len(booking.Payments) == 0 {
		return ErrPaymentNotFound
	}

	payment := &booking.Payments[0]
	if payment.IsCompleted() {
		// Never roll a completed payment back to failed
		return nil
	}
	if payment.IsFailed() {
		return nil
	}

	payment.MarkFailed(reason)
	return s.repo.UpdatePayment(ctx, payment)
}

func (s *service) FindByProviderRef(ctx context.Context, provider, providerRef string) (*BookingResponse, error) {
	booking, err := s.repo.GetBookingByProviderRef(ctx, provider, providerRef)
	if err != nil {
		return nil, err
	}
	return s.toResponse(booking), nil
}

func (s *service) toResponse(booking *Booking) *BookingResponse {
	slots := make([]BookedSlotInfo, 0, len(booking.Slots))
	for _, slot := range booking.Slots {
		slots = append(slots, BookedSlotInfo{
			CourtID:   slot.CourtID.String(),
			SlotKey:   slot.SlotKey,
			Date:      slot.SlotDate,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			Price:     slot.SlotPrice,
		})
	}

	var payment PaymentInfo
	if len(booking.Payments) > 0 {
		payment = booking.Payments[0].ToPaymentInfo()
	}

	return &BookingResponse{
		BookingID:     booking.ID.String(),
		BookingRef:    booking.BookingRef,
		SessionID:     booking.SessionID,
		VenueID:       booking.VenueID.String(),
		Status:        booking.Status,
		CustomerName:  booking.CustomerName,
		CustomerPhone: booking.CustomerPhone,
		CustomerEmail: booking.CustomerEmail,
		TotalSlots:    booking.TotalSlots,
		TotalPrice:    booking.TotalPrice,
		Currency:      booking.Currency,
		Slots:         slots,
		Payment:       payment,
		CreatedAt:     booking.CreatedAt,
	}
}

// generateBookingReference generates a unique booking reference
func (s *service) generateBookingReference() (string, error) {
	timestamp := time.Now().Format("20060102")

	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	randomPart := make([]byte, 6)

	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}

	return fmt.Sprintf("CRT-%s-%s", timestamp, string(randomPart)), nil
}
