package notifications

import (
	"context"
	"time"

	"courtside/internal/bookings"

	"github.com/google/uuid"
)

// Publisher adapts the Kafka producer to the booking lifecycle hooks.
// Constructed only when Kafka is enabled; the booking service treats a
// nil publisher as notifications off.
type Publisher struct {
	producer EventProducer
}

func NewPublisher(producer EventProducer) *Publisher {
	return &Publisher{producer: producer}
}

func (p *Publisher) PublishBookingCreated(ctx context.Context, booking *bookings.BookingResponse) error {
	return p.producer.Publish(ctx, NewReservationEvent(EventBookingCreated, booking))
}

func (p *Publisher) PublishBookingConfirmed(ctx context.Context, booking *bookings.BookingResponse) error {
	return p.producer.Publish(ctx, NewReservationEvent(EventBookingConfirmed, booking))
}

func (p *Publisher) PublishBookingCancelled(ctx context.Context, bookingID, bookingRef string) error {
	return p.producer.Publish(ctx, &ReservationEvent{
		ID:         uuid.New(),
		Type:       EventBookingCancelled,
		BookingID:  bookingID,
		BookingRef: bookingRef,
		OccurredAt: time.Now(),
	})
}

func (p *Publisher) PublishHoldExpired(ctx context.Context, holdID, sessionID string) error {
	return p.producer.Publish(ctx, &ReservationEvent{
		ID:         uuid.New(),
		Type:       EventHoldExpired,
		HoldID:     holdID,
		SessionID:  sessionID,
		OccurredAt: time.Now(),
	})
}
