package holds

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"courtside/internal/shared/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu      sync.Mutex
	records map[string]*HoldRecord
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[string]*HoldRecord)}
}

func (f *fakeRepo) SaveSessionHold(_ context.Context, sessionID string, record *HoldRecord, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *record
	f.records[sessionID] = &copied
	return nil
}

func (f *fakeRepo) GetSessionHold(_ context.Context, sessionID string) (*HoldRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakeRepo) DeleteSessionHold(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, sessionID)
	return nil
}

func (f *fakeRepo) HoldExists(_ context.Context, holdID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range f.records {
		if record.Hold.ID == holdID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) HeldSlotKeys(_ context.Context, slotKeys []string) (map[string]bool, error) {
	return map[string]bool{}, nil
}

func (f *fakeRepo) has(sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[sessionID]
	return ok
}

type fakeAtomics struct {
	mu    sync.Mutex
	slots map[string]string   // slot key -> hold id
	holds map[string][]string // hold id -> slot keys
}

func newFakeAtomics() *fakeAtomics {
	return &fakeAtomics{
		slots: make(map[string]string),
		holds: make(map[string][]string),
	}
}

func (f *fakeAtomics) AtomicHoldSlots(_ context.Context, slotKeys []string, _, holdID string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range slotKeys {
		if _, taken := f.slots[key]; taken {
			return fmt.Errorf("%w: %s", ErrSlotUnavailable, key)
		}
	}
	for _, key := range slotKeys {
		f.slots[key] = holdID
	}
	f.holds[holdID] = slotKeys
	return nil
}

func (f *fakeAtomics) AtomicReleaseHold(_ context.Context, holdID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys, ok := f.holds[holdID]
	if !ok {
		return 0, nil
	}
	for _, key := range keys {
		delete(f.slots, key)
	}
	delete(f.holds, holdID)
	return len(keys), nil
}

func testConfig() *config.Config {
	return &config.Config{
		Redis: config.RedisConfig{
			HoldTTL:    5 * time.Minute,
			SessionTTL: time.Hour,
		},
		Session: config.SessionConfig{
			TickInterval: time.Millisecond,
		},
		Payments: config.PaymentsConfig{Currency: "LKR"},
	}
}

func testSlots() []SlotRef {
	return []SlotRef{
		{
			CourtID:   uuid.New(),
			Date:      "2026-03-10",
			StartTime: "10:00",
			EndTime:   "11:00",
			Price:     1500,
		},
	}
}

func newTestService(repo Repository, atomics SlotAtomics) *service {
	return NewService(repo, atomics, NewWatcherRegistry(), testConfig()).(*service)
}

func TestAcquirePersistsRecoveryRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeAtomics())

	hold, err := svc.Acquire(context.Background(), "session-1", AcquireRequest{
		VenueID: uuid.New(),
		Slots:   testSlots(),
	})
	require.NoError(t, err)
	require.NotNil(t, hold)

	assert.NotEmpty(t, hold.ID)
	assert.Equal(t, "session-1", hold.SessionID)
	assert.Equal(t, 1, hold.Quantity)
	assert.Equal(t, 1500.0, hold.TotalPrice)
	assert.True(t, hold.Active(time.Now()))

	record, err := repo.GetSessionHold(context.Background(), "session-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, hold.ID, record.Hold.ID)
}

func TestAcquireConflictingSlotFails(t *testing.T) {
	// Two sessions race for the same slot: the second must get a slot
	// conflict, never a second hold.
	atomics := newFakeAtomics()
	repoA := newFakeRepo()
	repoB := newFakeRepo()
	svcA := newTestService(repoA, atomics)
	svcB := newTestService(repoB, atomics)

	slots := testSlots()

	_, err := svcA.Acquire(context.Background(), "session-a", AcquireRequest{VenueID: uuid.New(), Slots: slots})
	require.NoError(t, err)

	hold, err := svcB.Acquire(context.Background(), "session-b", AcquireRequest{VenueID: uuid.New(), Slots: slots})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Nil(t, hold)
	assert.False(t, repoB.has("session-b"), "no local record on conflict")
}

func TestAcquireReplacesPreviousHold(t *testing.T) {
	atomics := newFakeAtomics()
	repo := newFakeRepo()
	svc := newTestService(repo, atomics)

	first, err := svc.Acquire(context.Background(), "session-1", AcquireRequest{VenueID: uuid.New(), Slots: testSlots()})
	require.NoError(t, err)

	second, err := svc.Acquire(context.Background(), "session-1", AcquireRequest{VenueID: uuid.New(), Slots: testSlots()})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	record, _ := repo.GetSessionHold(context.Background(), "session-1")
	require.NotNil(t, record)
	assert.Equal(t, second.ID, record.Hold.ID, "record points at the new hold")

	atomics.mu.Lock()
	_, firstAlive := atomics.holds[first.ID]
	atomics.mu.Unlock()
	assert.False(t, firstAlive, "previous hold released")
}

func TestReleaseIsIdempotent(t *testing.T) {
	atomics := newFakeAtomics()
	repo := newFakeRepo()
	svc := newTestService(repo, atomics)

	hold, err := svc.Acquire(context.Background(), "session-1", AcquireRequest{VenueID: uuid.New(), Slots: testSlots()})
	require.NoError(t, err)

	require.NoError(t, svc.Release(context.Background(), "session-1", hold.ID, "abandoned"))
	require.NoError(t, svc.Release(context.Background(), "session-1", hold.ID, "abandoned"), "second release is a no-op")
	require.NoError(t, svc.Release(context.Background(), "session-1", "never-existed", "abandoned"))

	assert.False(t, repo.has("session-1"))
}

func TestRecoverMissReturnsNil(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeAtomics())

	hold, err := svc.Recover(context.Background(), "unknown-session")
	require.NoError(t, err)
	assert.Nil(t, hold)
}

func TestRecoverPurgesExpiredRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeAtomics())

	hold, err := svc.Acquire(context.Background(), "session-1", AcquireRequest{VenueID: uuid.New(), Slots: testSlots()})
	require.NoError(t, err)

	// Jump the service clock past expiry
	svc.now = func() time.Time { return hold.ExpiresAt.Add(time.Second) }

	recovered, err := svc.Recover(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Nil(t, recovered)
	assert.False(t, repo.has("session-1"), "expired record purged")
}

func TestRecoverReturnsLiveHoldWithSameExpiry(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeAtomics())

	hold, err := svc.Acquire(context.Background(), "session-1", AcquireRequest{VenueID: uuid.New(), Slots: testSlots()})
	require.NoError(t, err)

	recovered, err := svc.Recover(context.Background(), "session-1")
	require.NoError(t, err)
	require.NotNil(t, recovered)
	assert.Equal(t, hold.ID, recovered.ID)
	assert.True(t, hold.ExpiresAt.Equal(recovered.ExpiresAt), "reload does not gain or lose time")
}

func TestServiceRemaining(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeAtomics())

	hold, err := svc.Acquire(context.Background(), "session-1", AcquireRequest{VenueID: uuid.New(), Slots: testSlots()})
	require.NoError(t, err)

	svc.now = func() time.Time { return hold.ExpiresAt.Add(-90 * time.Second) }

	remaining, got, err := svc.Remaining(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, remaining)
	assert.Equal(t, hold.ID, got.ID)

	_, _, err = svc.Remaining(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, ErrHoldNotFound)
}

func TestConsumeDropsRecordAndFreesSlots(t *testing.T) {
	atomics := newFakeAtomics()
	repo := newFakeRepo()
	svc := newTestService(repo, atomics)

	hold, err := svc.Acquire(context.Background(), "session-1", AcquireRequest{VenueID: uuid.New(), Slots: testSlots()})
	require.NoError(t, err)

	require.NoError(t, svc.Consume(context.Background(), "session-1", hold.ID))
	assert.False(t, repo.has("session-1"))

	atomics.mu.Lock()
	_, alive := atomics.holds[hold.ID]
	atomics.mu.Unlock()
	assert.False(t, alive)
}

type fakeExpiryPublisher struct {
	mu      sync.Mutex
	expired [][2]string // hold id, session id
}

func (f *fakeExpiryPublisher) PublishHoldExpired(_ context.Context, holdID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired = append(f.expired, [2]string{holdID, sessionID})
	return nil
}

func (f *fakeExpiryPublisher) events() [][2]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]string(nil), f.expired...)
}

func TestExpiryPublishesEventAndFreesWatcher(t *testing.T) {
	atomics := newFakeAtomics()
	repo := newFakeRepo()
	publisher := &fakeExpiryPublisher{}

	cfg := testConfig()
	cfg.Redis.HoldTTL = 30 * time.Millisecond
	registry := NewWatcherRegistry()
	svc := NewService(repo, atomics, registry, cfg).(*service)
	svc.SetPublisher(publisher)

	hold, err := svc.Acquire(context.Background(), "session-1", AcquireRequest{VenueID: uuid.New(), Slots: testSlots()})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(publisher.events()) == 1
	}, time.Second, 5*time.Millisecond, "expiry lands on the bus")

	events := publisher.events()
	assert.Equal(t, hold.ID, events[0][0])
	assert.Equal(t, "session-1", events[0][1])

	assert.False(t, registry.Active(hold.ID), "finished watcher leaves the registry")
}

func TestRecoverPurgePublishesExpiredEvent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeAtomics())
	publisher := &fakeExpiryPublisher{}
	svc.SetPublisher(publisher)

	hold, err := svc.Acquire(context.Background(), "session-1", AcquireRequest{VenueID: uuid.New(), Slots: testSlots()})
	require.NoError(t, err)

	svc.now = func() time.Time { return hold.ExpiresAt.Add(time.Second) }

	recovered, err := svc.Recover(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Nil(t, recovered)

	events := publisher.events()
	require.Len(t, events, 1)
	assert.Equal(t, hold.ID, events[0][0])
}

func TestExpiryPurgesRecordExactlyOnce(t *testing.T) {
	// Scenario: hold reaches its expiry while the watcher is running; the
	// durable record must be gone afterwards.
	atomics := newFakeAtomics()
	repo := newFakeRepo()

	cfg := testConfig()
	cfg.Redis.HoldTTL = 30 * time.Millisecond
	svc := NewService(repo, atomics, NewWatcherRegistry(), cfg).(*service)

	hold, err := svc.Acquire(context.Background(), "session-1", AcquireRequest{VenueID: uuid.New(), Slots: testSlots()})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return !repo.has("session-1")
	}, time.Second, 5*time.Millisecond, "expiry purges the recovery record")

	atomics.mu.Lock()
	_, alive := atomics.holds[hold.ID]
	atomics.mu.Unlock()
	assert.False(t, alive, "expiry releases the slot claims")
}
