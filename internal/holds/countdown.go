package holds

import (
	"context"
	"sync"
	"time"
)

// Remaining computes how much of a hold is left at time now. Deriving from
// the absolute expiry means a process restart or page reload recomputes the
// same value instead of resetting a relative counter.
func Remaining(now, expiresAt time.Time) time.Duration {
	d := expiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Watcher ticks down a single hold and fires the expiry callback exactly
// once when remaining time reaches zero. Running -> Expired is terminal.
type Watcher struct {
	holdID    string
	expiresAt time.Time
	interval  time.Duration

	onTick   func(remaining time.Duration)
	onExpire func(holdID string)

	now func() time.Time

	expireOnce sync.Once
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewWatcher creates a watcher for a hold. onTick may be nil. onExpire is
// required and is invoked at most once.
func NewWatcher(holdID string, expiresAt time.Time, interval time.Duration, onTick func(time.Duration), onExpire func(string)) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{
		holdID:    holdID,
		expiresAt: expiresAt,
		interval:  interval,
		onTick:    onTick,
		onExpire:  onExpire,
		now:       time.Now,
		done:      make(chan struct{}),
	}
}

// Start begins ticking in its own goroutine. Calling Start on an already
// expired hold fires onExpire immediately.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	go func() {
		defer close(w.done)

		if w.check() {
			return
		}

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if w.check() {
					return
				}
			}
		}
	}()
}

// check emits a tick and returns true once the hold has expired.
func (w *Watcher) check() bool {
	remaining := Remaining(w.now(), w.expiresAt)
	if w.onTick != nil {
		w.onTick(remaining)
	}
	if remaining > 0 {
		return false
	}
	w.expireOnce.Do(func() {
		w.onExpire(w.holdID)
	})
	return true
}

// Stop cancels the watcher without firing expiry.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	<-w.done
}

// WatcherRegistry guarantees at most one live watcher per hold. A second
// Start for the same hold replaces the first, so a re-entered flow cannot
// leave a stray timer behind.
type WatcherRegistry struct {
	mu       sync.Mutex
	watchers map[string]*Watcher
}

func NewWatcherRegistry() *WatcherRegistry {
	return &WatcherRegistry{
		watchers: make(map[string]*Watcher),
	}
}

// Start registers and starts a watcher for the hold, stopping any previous
// watcher for the same hold first.
func (r *WatcherRegistry) Start(ctx context.Context, w *Watcher) {
	r.mu.Lock()
	prev := r.watchers[w.holdID]
	r.watchers[w.holdID] = w
	r.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
	w.Start(ctx)
}

// Stop stops and removes the watcher for a hold, if any.
func (r *WatcherRegistry) Stop(holdID string) {
	r.mu.Lock()
	w := r.watchers[holdID]
	delete(r.watchers, holdID)
	r.mu.Unlock()

	if w != nil {
		w.Stop()
	}
}

// Remove drops the registry entry for a watcher that has finished on its
// own. Unlike Stop it never waits on the watcher goroutine, so the expiry
// callback can call it without deadlocking. A replacement watcher that
// took the slot in the meantime is left alone.
func (r *WatcherRegistry) Remove(w *Watcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watchers[w.holdID] == w {
		delete(r.watchers, w.holdID)
	}
}

// Active reports whether a watcher currently exists for the hold.
func (r *WatcherRegistry) Active(holdID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.watchers[holdID]
	return ok
}
