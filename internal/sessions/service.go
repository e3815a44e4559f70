package sessions

import (
	"context"
	"time"

	"courtside/internal/holds"
)

type Service interface {
	// Reserve acquires a hold for the session's slot selection and enters
	// the guarded reservation flow.
	Reserve(ctx context.Context, sessionID string, req ReserveRequest) (*HoldStatusResponse, error)

	// Status recovers the session's hold and its remaining time.
	// Returns (nil, nil) when nothing is live: the flow is over.
	Status(ctx context.Context, sessionID string) (*HoldStatusResponse, error)

	// Leave routes a navigation event through the guard.
	Leave(ctx context.Context, sessionID string, req LeaveRequest) (*LeaveResponse, error)

	// Abandon explicitly releases the session's hold.
	Abandon(ctx context.Context, sessionID string) error
}

type service struct {
	holds holds.Service
	guard *Guard
	now   func() time.Time
}

func NewService(holdService holds.Service, guard *Guard) Service {
	return &service{
		holds: holdService,
		guard: guard,
		now:   time.Now,
	}
}

func (s *service) Reserve(ctx context.Context, sessionID string, req ReserveRequest) (*HoldStatusResponse, error) {
	hold, err := s.holds.Acquire(ctx, sessionID, req)
	if err != nil {
		return nil, err
	}

	// Fresh flow: any stale redirect flag from a previous attempt is gone
	s.guard.Forget(sessionID)

	return &HoldStatusResponse{
		Hold:             hold,
		RemainingSeconds: int64(holds.Remaining(s.now(), hold.ExpiresAt).Seconds()),
	}, nil
}

func (s *service) Status(ctx context.Context, sessionID string) (*HoldStatusResponse, error) {
	hold, err := s.holds.Recover(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if hold == nil {
		return nil, nil
	}

	return &HoldStatusResponse{
		Hold:             hold,
		RemainingSeconds: int64(holds.Remaining(s.now(), hold.ExpiresAt).Seconds()),
	}, nil
}

func (s *service) Leave(ctx context.Context, sessionID string, req LeaveRequest) (*LeaveResponse, error) {
	hold, err := s.holds.Recover(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if hold == nil {
		// Nothing to protect; the event is moot
		return &LeaveResponse{Outcome: OutcomeIgnored}, nil
	}

	outcome := s.guard.HandleLeave(ctx, sessionID, hold.ID, req)
	if outcome == OutcomeReleased {
		s.guard.Forget(sessionID)
	}
	return &LeaveResponse{Outcome: outcome}, nil
}

func (s *service) Abandon(ctx context.Context, sessionID string) error {
	hold, err := s.holds.Recover(ctx, sessionID)
	if err != nil {
		return err
	}

	holdID := ""
	if hold != nil {
		holdID = hold.ID
	}

	s.guard.Forget(sessionID)
	return s.holds.Release(ctx, sessionID, holdID, "abandoned")
}
