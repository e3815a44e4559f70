package holds

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 5*time.Minute, Remaining(now, now.Add(5*time.Minute)))
	assert.Equal(t, time.Duration(0), Remaining(now, now))
	assert.Equal(t, time.Duration(0), Remaining(now, now.Add(-time.Second)), "past expiry clamps to zero")
}

func TestRemainingSurvivesRecompute(t *testing.T) {
	// Remaining is derived from the absolute expiry, so recomputing after a
	// simulated reload gives the same answer as continuous observation.
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	expiry := start.Add(300 * time.Second)

	continuous := Remaining(start.Add(120*time.Second), expiry)
	afterReload := Remaining(start.Add(120*time.Second), expiry)

	assert.Equal(t, continuous, afterReload)
	assert.Equal(t, 180*time.Second, afterReload)
}

func TestWatcherExpiresExactlyOnce(t *testing.T) {
	// Scenario: hold expires while the watcher ticks; expiry callback must
	// fire a single time even with an aggressive tick interval.
	var fired int32

	current := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	w := NewWatcher("hold-1", current.Add(50*time.Millisecond), time.Millisecond, nil, func(id string) {
		assert.Equal(t, "hold-1", id)
		atomic.AddInt32(&fired, 1)
	})
	w.now = now

	w.Start(context.Background())

	// Advance past expiry
	mu.Lock()
	current = current.Add(time.Minute)
	mu.Unlock()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 1
	}, time.Second, 5*time.Millisecond)

	// The watcher goroutine exits after firing; give it room to prove it
	// does not fire again
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestWatcherStartOnExpiredHoldFiresImmediately(t *testing.T) {
	var fired int32

	w := NewWatcher("hold-2", time.Now().Add(-time.Minute), time.Second, nil, func(string) {
		atomic.AddInt32(&fired, 1)
	})
	w.Start(context.Background())

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestWatcherStopPreventsExpiry(t *testing.T) {
	var fired int32

	w := NewWatcher("hold-3", time.Now().Add(30*time.Millisecond), time.Millisecond, nil, func(string) {
		atomic.AddInt32(&fired, 1)
	})
	w.Start(context.Background())
	w.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestWatcherEmitsTicks(t *testing.T) {
	var ticks int32

	w := NewWatcher("hold-4", time.Now().Add(time.Hour), 5*time.Millisecond, func(remaining time.Duration) {
		assert.Greater(t, remaining, time.Duration(0))
		atomic.AddInt32(&ticks, 1)
	}, func(string) {})
	w.Start(context.Background())
	defer w.Stop()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&ticks) >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestWatcherRegistrySingleTimerPerHold(t *testing.T) {
	// A remount must not leave two live timers for the same hold: starting
	// a second watcher replaces the first.
	registry := NewWatcherRegistry()

	var firstFired, secondFired int32

	first := NewWatcher("hold-5", time.Now().Add(40*time.Millisecond), time.Millisecond, nil, func(string) {
		atomic.AddInt32(&firstFired, 1)
	})
	second := NewWatcher("hold-5", time.Now().Add(40*time.Millisecond), time.Millisecond, nil, func(string) {
		atomic.AddInt32(&secondFired, 1)
	})

	registry.Start(context.Background(), first)
	registry.Start(context.Background(), second)
	assert.True(t, registry.Active("hold-5"))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&secondFired) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&firstFired), "replaced watcher must not fire")
}

func TestWatcherRegistryRemoveOnExpiry(t *testing.T) {
	// The expiry callback removes its own entry without blocking on the
	// watcher goroutine, so naturally-expired holds do not pile up.
	registry := NewWatcherRegistry()

	done := make(chan struct{})
	var w *Watcher
	w = NewWatcher("hold-7", time.Now().Add(-time.Second), time.Millisecond, nil, func(string) {
		registry.Remove(w)
		close(done)
	})

	registry.Start(context.Background(), w)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expiry callback never completed")
	}
	assert.False(t, registry.Active("hold-7"))
}

func TestWatcherRegistryRemoveSparesReplacement(t *testing.T) {
	registry := NewWatcherRegistry()

	stale := NewWatcher("hold-8", time.Now().Add(time.Hour), time.Second, nil, func(string) {})
	live := NewWatcher("hold-8", time.Now().Add(time.Hour), time.Second, nil, func(string) {})

	registry.Start(context.Background(), live)
	defer registry.Stop("hold-8")

	registry.Remove(stale)
	assert.True(t, registry.Active("hold-8"), "a different watcher owns the slot")
}

func TestWatcherRegistryStop(t *testing.T) {
	registry := NewWatcherRegistry()

	var fired int32
	w := NewWatcher("hold-6", time.Now().Add(30*time.Millisecond), time.Millisecond, nil, func(string) {
		atomic.AddInt32(&fired, 1)
	})

	registry.Start(context.Background(), w)
	registry.Stop("hold-6")

	assert.False(t, registry.Active("hold-6"))
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}
