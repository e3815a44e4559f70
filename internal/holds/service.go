package holds

import (
	"context"
	"time"

	"courtside/internal/shared/config"
	"courtside/internal/shared/constants"
	"courtside/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	// Acquire claims the requested slots for the session. A previous hold
	// owned by the same session is released first, so the one-hold-per-
	// session invariant cannot be violated.
	Acquire(ctx context.Context, sessionID string, req AcquireRequest) (*Hold, error)

	// Release frees a hold. Releasing an unknown or already-released hold
	// is a no-op, never an error.
	Release(ctx context.Context, sessionID, holdID, reason string) error

	// Recover reconstructs the session's hold from its durable record.
	// Returns (nil, nil) when there is nothing live to recover; an expired
	// record is purged on the way out.
	Recover(ctx context.Context, sessionID string) (*Hold, error)

	// Remaining reports how much time the session's hold has left.
	Remaining(ctx context.Context, sessionID string) (time.Duration, *Hold, error)

	// Consume finalizes a hold that has been promoted into a booking. The
	// slots are freed (the booking rows now own them) and the recovery
	// record is dropped without the release side effects.
	Consume(ctx context.Context, sessionID, holdID string) error

	// HeldSlotKeys reports which slot keys carry an active hold.
	HeldSlotKeys(ctx context.Context, slotKeys []string) (map[string]bool, error)

	// SetPublisher enables expiry events on the message bus; nil leaves
	// them off.
	SetPublisher(publisher ExpiryPublisher)
}

// ExpiryPublisher announces hold expiries on the message bus.
type ExpiryPublisher interface {
	PublishHoldExpired(ctx context.Context, holdID, sessionID string) error
}

// SlotAtomics is the atomic claim/release surface backed by Redis Lua
// scripts. Kept as an interface so the race-sensitive paths are testable
// without a live Redis.
type SlotAtomics interface {
	AtomicHoldSlots(ctx context.Context, slotKeys []string, sessionID, holdID string, ttl time.Duration) error
	AtomicReleaseHold(ctx context.Context, holdID string) (int, error)
}

type service struct {
	repo      Repository
	atomic    SlotAtomics
	registry  *WatcherRegistry
	config    *config.Config
	log       *logger.Logger
	publisher ExpiryPublisher
	now       func() time.Time
}

func NewService(repo Repository, atomic SlotAtomics, registry *WatcherRegistry, cfg *config.Config) Service {
	return &service{
		repo:     repo,
		atomic:   atomic,
		registry: registry,
		config:   cfg,
		log:      logger.GetDefault(),
		now:      time.Now,
	}
}

func (s *service) SetPublisher(publisher ExpiryPublisher) {
	s.publisher = publisher
}

func (s *service) Acquire(ctx context.Context, sessionID string, req AcquireRequest) (*Hold, error) {
	// One active hold per session: a re-entry from slot selection replaces
	// the previous claim
	if existing, err := s.Recover(ctx, sessionID); err == nil && existing != nil {
		if err := s.Release(ctx, sessionID, existing.ID, "replaced"); err != nil {
			return nil, err
		}
	}

	now := s.now()
	holdID := uuid.New().String()
	ttl := s.config.Redis.HoldTTL

	slotKeys := make([]string, 0, len(req.Slots))
	total := 0.0
	for _, slot := range req.Slots {
		slotKeys = append(slotKeys, slot.Key())
		total += slot.Price
	}

	if err := s.atomic.AtomicHoldSlots(ctx, slotKeys, sessionID, holdID, ttl); err != nil {
		return nil, err
	}

	hold := &Hold{
		ID:         holdID,
		SessionID:  sessionID,
		VenueID:    req.VenueID,
		Slots:      req.Slots,
		Quantity:   len(req.Slots),
		TotalPrice: total,
		Currency:   s.config.Payments.Currency,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}

	record := &HoldRecord{Version: constants.HoldRecordVersion, Hold: *hold}
	if err := s.repo.SaveSessionHold(ctx, sessionID, record, s.config.Redis.SessionTTL); err != nil {
		// Could not persist the recovery record; free the slots rather than
		// strand a hold nothing can see
		_, _ = s.atomic.AtomicReleaseHold(ctx, holdID)
		return nil, err
	}

	s.startWatcher(hold)

	s.log.LogHoldAcquired(ctx, holdID, sessionID, len(req.Slots), hold.ExpiresAt)
	return hold, nil
}

func (s *service) Release(ctx context.Context, sessionID, holdID, reason string) error {
	s.registry.Stop(holdID)

	if holdID != "" {
		if _, err := s.atomic.AtomicReleaseHold(ctx, holdID); err != nil {
			// Best effort: the slots self-expire in Redis regardless
			s.log.ErrorWithContext(ctx, "hold release failed", err, map[string]interface{}{
				"hold_id": holdID,
			})
		}
	}

	if err := s.repo.DeleteSessionHold(ctx, sessionID); err != nil {
		return err
	}

	s.log.LogHoldReleased(ctx, holdID, reason)
	return nil
}

func (s *service) Recover(ctx context.Context, sessionID string) (*Hold, error) {
	record, err := s.repo.GetSessionHold(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	hold := record.Hold
	if !hold.Active(s.now()) {
		// Expired while nobody was watching: purge the record
		_ = s.repo.DeleteSessionHold(ctx, sessionID)
		s.notifyExpired(ctx, hold.ID, sessionID)
		return nil, nil
	}

	// A recovered hold needs its watcher back; Start replaces any stray
	// duplicate from a previous recovery
	if !s.registry.Active(hold.ID) {
		s.startWatcher(&hold)
	}

	return &hold, nil
}

func (s *service) Remaining(ctx context.Context, sessionID string) (time.Duration, *Hold, error) {
	hold, err := s.Recover(ctx, sessionID)
	if err != nil {
		return 0, nil, err
	}
	if hold == nil {
		return 0, nil, ErrHoldNotFound
	}
	return Remaining(s.now(), hold.ExpiresAt), hold, nil
}

func (s *service) Consume(ctx context.Context, sessionID, holdID string) error {
	s.registry.Stop(holdID)

	if _, err := s.atomic.AtomicReleaseHold(ctx, holdID); err != nil {
		s.log.ErrorWithContext(ctx, "hold consume release failed", err, map[string]interface{}{
			"hold_id": holdID,
		})
	}

	return s.repo.DeleteSessionHold(ctx, sessionID)
}

func (s *service) HeldSlotKeys(ctx context.Context, slotKeys []string) (map[string]bool, error) {
	return s.repo.HeldSlotKeys(ctx, slotKeys)
}

// notifyExpired logs the expiry and, when a publisher is wired, announces
// it on the bus. Publish failures are logged, never surfaced.
func (s *service) notifyExpired(ctx context.Context, holdID, sessionID string) {
	s.log.LogHoldExpired(ctx, holdID, sessionID)
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishHoldExpired(ctx, holdID, sessionID); err != nil {
		s.log.ErrorWithContext(ctx, "hold expired event publish failed", err, map[string]interface{}{
			"hold_id": holdID,
		})
	}
}

func (s *service) startWatcher(hold *Hold) {
	sessionID := hold.SessionID
	holdID := hold.ID

	var w *Watcher
	w = NewWatcher(holdID, hold.ExpiresAt, s.config.Session.TickInterval, nil, func(id string) {
		// Expiry side effects run once: drop the finished watcher from the
		// registry, purge the recovery record so the next recover sees
		// nothing, and free the slot claims
		s.registry.Remove(w)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_, _ = s.atomic.AtomicReleaseHold(ctx, id)
		_ = s.repo.DeleteSessionHold(ctx, sessionID)
		s.notifyExpired(ctx, id, sessionID)
	})
	w.now = s.now

	s.registry.Start(context.Background(), w)
}
