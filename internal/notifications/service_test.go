package notifications

import (
	"context"
	"testing"

	"courtside/internal/bookings"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	events []*ReservationEvent
}

func (f *fakeProducer) Publish(ctx context.Context, event *ReservationEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func TestPublisherMapsBookingTransitions(t *testing.T) {
	producer := &fakeProducer{}
	publisher := NewPublisher(producer)

	booking := &bookings.BookingResponse{
		BookingID:  uuid.NewString(),
		BookingRef: "CRT-20260905-ABCDEF",
		SessionID:  "sess-1",
		TotalPrice: 3000,
		Currency:   "LKR",
	}

	require.NoError(t, publisher.PublishBookingCreated(context.Background(), booking))
	require.NoError(t, publisher.PublishBookingConfirmed(context.Background(), booking))
	require.NoError(t, publisher.PublishBookingCancelled(context.Background(), booking.BookingID, booking.BookingRef))

	require.Len(t, producer.events, 3)
	assert.Equal(t, EventBookingCreated, producer.events[0].Type)
	assert.Equal(t, EventBookingConfirmed, producer.events[1].Type)
	assert.Equal(t, EventBookingCancelled, producer.events[2].Type)

	for _, event := range producer.events {
		assert.Equal(t, "CRT-20260905-ABCDEF", event.GetPartitionKey())
		assert.False(t, event.OccurredAt.IsZero())
	}
}

func TestPublisherEmitsHoldExpired(t *testing.T) {
	producer := &fakeProducer{}
	publisher := NewPublisher(producer)

	require.NoError(t, publisher.PublishHoldExpired(context.Background(), "hold-1", "sess-1"))

	require.Len(t, producer.events, 1)
	event := producer.events[0]
	assert.Equal(t, EventHoldExpired, event.Type)
	assert.Equal(t, "hold-1", event.HoldID)
	assert.Equal(t, "sess-1", event.SessionID)
	assert.Equal(t, "hold-1", event.GetPartitionKey(), "no booking yet, keyed by hold")
	assert.False(t, event.OccurredAt.IsZero())
}
