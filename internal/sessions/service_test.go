package sessions

import (
	"context"
	"testing"
	"time"

	"courtside/internal/holds"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHoldService struct {
	hold       *holds.Hold
	acquireErr error
	releases   []string
}

func (f *fakeHoldService) Acquire(_ context.Context, sessionID string, req holds.AcquireRequest) (*holds.Hold, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	f.hold = &holds.Hold{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		VenueID:   req.VenueID,
		Slots:     req.Slots,
		Quantity:  len(req.Slots),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}
	return f.hold, nil
}

func (f *fakeHoldService) Release(_ context.Context, _, holdID, reason string) error {
	f.releases = append(f.releases, holdID+":"+reason)
	f.hold = nil
	return nil
}

func (f *fakeHoldService) Recover(_ context.Context, _ string) (*holds.Hold, error) {
	return f.hold, nil
}

func (f *fakeHoldService) Remaining(_ context.Context, _ string) (time.Duration, *holds.Hold, error) {
	if f.hold == nil {
		return 0, nil, holds.ErrHoldNotFound
	}
	return holds.Remaining(time.Now(), f.hold.ExpiresAt), f.hold, nil
}

func (f *fakeHoldService) Consume(_ context.Context, _, _ string) error {
	f.hold = nil
	return nil
}

func (f *fakeHoldService) HeldSlotKeys(_ context.Context, _ []string) (map[string]bool, error) {
	return map[string]bool{}, nil
}

func (f *fakeHoldService) SetPublisher(_ holds.ExpiryPublisher) {}

func reserveRequest() ReserveRequest {
	return ReserveRequest{
		VenueID: uuid.New(),
		Slots: []holds.SlotRef{{
			CourtID:   uuid.New(),
			Date:      "2026-03-10",
			StartTime: "10:00",
			EndTime:   "11:00",
			Price:     1500,
		}},
	}
}

func TestReserveStartsCountdown(t *testing.T) {
	holdSvc := &fakeHoldService{}
	svc := NewService(holdSvc, NewGuard(holdSvc, 10*time.Millisecond))

	status, err := svc.Reserve(context.Background(), "s1", reserveRequest())
	require.NoError(t, err)
	require.NotNil(t, status.Hold)
	assert.InDelta(t, 300, status.RemainingSeconds, 2)
}

func TestReserveClearsStaleRedirectFlag(t *testing.T) {
	holdSvc := &fakeHoldService{}
	guard := NewGuard(holdSvc, 10*time.Millisecond)
	svc := NewService(holdSvc, guard)

	guard.MarkRedirecting("s1")

	_, err := svc.Reserve(context.Background(), "s1", reserveRequest())
	require.NoError(t, err)
	assert.False(t, guard.IsRedirecting("s1"), "fresh flow starts unflagged")
}

func TestStatusWithNoHold(t *testing.T) {
	holdSvc := &fakeHoldService{}
	svc := NewService(holdSvc, NewGuard(holdSvc, 10*time.Millisecond))

	status, err := svc.Status(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestStatusRecoversHold(t *testing.T) {
	holdSvc := &fakeHoldService{}
	svc := NewService(holdSvc, NewGuard(holdSvc, 10*time.Millisecond))

	reserved, err := svc.Reserve(context.Background(), "s1", reserveRequest())
	require.NoError(t, err)

	status, err := svc.Status(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, reserved.Hold.ID, status.Hold.ID)
	assert.InDelta(t, reserved.RemainingSeconds, status.RemainingSeconds, 2)
}

func TestLeaveWithoutHoldIsMoot(t *testing.T) {
	holdSvc := &fakeHoldService{}
	svc := NewService(holdSvc, NewGuard(holdSvc, 10*time.Millisecond))

	resp, err := svc.Leave(context.Background(), "s1", LeaveRequest{Kind: LeaveUnload, Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, resp.Outcome)
	assert.Empty(t, holdSvc.releases)
}

func TestLeaveConfirmedReleasesHold(t *testing.T) {
	holdSvc := &fakeHoldService{}
	svc := NewService(holdSvc, NewGuard(holdSvc, 10*time.Millisecond))

	_, err := svc.Reserve(context.Background(), "s1", reserveRequest())
	require.NoError(t, err)

	resp, err := svc.Leave(context.Background(), "s1", LeaveRequest{Kind: LeaveBack, Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeReleased, resp.Outcome)
	require.Len(t, holdSvc.releases, 1)
}

func TestAbandonIsSafeWithoutHold(t *testing.T) {
	holdSvc := &fakeHoldService{}
	svc := NewService(holdSvc, NewGuard(holdSvc, 10*time.Millisecond))

	require.NoError(t, svc.Abandon(context.Background(), "s1"))
}
