package sessions

import (
	"context"
	"sync"
	"time"

	"courtside/pkg/logger"
)

// HoldReleaser is the slice of the holds service the guard needs.
type HoldReleaser interface {
	Release(ctx context.Context, sessionID, holdID, reason string) error
}

// flowIntent is the per-session navigation state. It is owned exclusively
// by the Guard; nothing else reads or writes it, so handler ordering can
// never race a flag mutation.
type flowIntent struct {
	redirecting bool
	graceTimer  *time.Timer
}

// Guard decides whether a leave event should release the session's hold.
// The redirect flag is set synchronously before any checkout navigation
// begins and checked first by every handler, so a fast unload fired during
// a legitimate payment redirect never drops the hold.
type Guard struct {
	mu      sync.Mutex
	intents map[string]*flowIntent

	releaser HoldReleaser
	grace    time.Duration
	log      *logger.Logger
}

func NewGuard(releaser HoldReleaser, grace time.Duration) *Guard {
	return &Guard{
		intents:  make(map[string]*flowIntent),
		releaser: releaser,
		grace:    grace,
		log:      logger.GetDefault(),
	}
}

func (g *Guard) intent(sessionID string) *flowIntent {
	if fi, ok := g.intents[sessionID]; ok {
		return fi
	}
	fi := &flowIntent{}
	g.intents[sessionID] = fi
	return fi
}

// dropIfIdle removes the entry once it carries no state, so sessions that
// merely bounce leave events off the guard never accumulate in the map.
// Callers hold g.mu.
func (g *Guard) dropIfIdle(sessionID string) {
	if fi, ok := g.intents[sessionID]; ok && !fi.redirecting && fi.graceTimer == nil {
		delete(g.intents, sessionID)
	}
}

// MarkRedirecting records that this flow is about to hand the browser to a
// payment provider. Must be called before the checkout URL is returned to
// the client. Any pending hidden-leave grace timer is cancelled.
func (g *Guard) MarkRedirecting(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fi := g.intent(sessionID)
	fi.redirecting = true
	if fi.graceTimer != nil {
		fi.graceTimer.Stop()
		fi.graceTimer = nil
	}
}

// ClearRedirect is called on any normal return to the flow, including a
// cancelled checkout.
func (g *Guard) ClearRedirect(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if fi, ok := g.intents[sessionID]; ok {
		fi.redirecting = false
		g.dropIfIdle(sessionID)
	}
}

// IsRedirecting reports whether a provider redirect is in flight.
func (g *Guard) IsRedirecting(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	fi, ok := g.intents[sessionID]
	return ok && fi.redirecting
}

// Forget drops all guard state for a session. Called once the flow is over
// (booking finalized or hold gone).
func (g *Guard) Forget(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if fi, ok := g.intents[sessionID]; ok {
		if fi.graceTimer != nil {
			fi.graceTimer.Stop()
		}
		delete(g.intents, sessionID)
	}
}

// HandleLeave runs one navigation event through the guard.
func (g *Guard) HandleLeave(ctx context.Context, sessionID, holdID string, req LeaveRequest) LeaveOutcome {
	g.mu.Lock()
	fi := g.intents[sessionID]

	// Redirect flag wins over everything
	if fi != nil && fi.redirecting {
		g.mu.Unlock()
		return OutcomeIgnored
	}

	switch req.Kind {
	case LeaveVisible:
		// Tab came back before the grace delay: stand down
		if fi != nil && fi.graceTimer != nil {
			fi.graceTimer.Stop()
			fi.graceTimer = nil
			g.dropIfIdle(sessionID)
		}
		g.mu.Unlock()
		return OutcomeIgnored

	case LeaveHidden:
		// Transient tab switches must not cost the user their hold, so
		// the release only happens after the grace delay and a second
		// redirect-flag check
		if fi != nil && fi.graceTimer != nil {
			g.mu.Unlock()
			return OutcomeDeferred
		}
		g.intent(sessionID).graceTimer = time.AfterFunc(g.grace, func() {
			g.releaseAfterGrace(sessionID, holdID)
		})
		g.mu.Unlock()
		return OutcomeDeferred

	case LeaveUnload, LeaveBack:
		if !req.Confirmed {
			g.mu.Unlock()
			return OutcomeConfirmRequired
		}
		if fi != nil && fi.graceTimer != nil {
			fi.graceTimer.Stop()
			fi.graceTimer = nil
		}
		g.dropIfIdle(sessionID)
		g.mu.Unlock()
		g.release(ctx, sessionID, holdID, string(req.Kind))
		return OutcomeReleased

	default:
		g.mu.Unlock()
		return OutcomeIgnored
	}
}

func (g *Guard) releaseAfterGrace(sessionID, holdID string) {
	g.mu.Lock()
	fi, ok := g.intents[sessionID]
	if !ok {
		g.mu.Unlock()
		return
	}
	fi.graceTimer = nil
	if fi.redirecting {
		// Second check: a redirect started while the grace clock ran
		g.mu.Unlock()
		return
	}
	g.dropIfIdle(sessionID)
	g.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	g.release(ctx, sessionID, holdID, "hidden")
}

// release is best effort: a failure is logged and swallowed, the hold
// self-expires server-side anyway.
func (g *Guard) release(ctx context.Context, sessionID, holdID, reason string) {
	if err := g.releaser.Release(ctx, sessionID, holdID, reason); err != nil {
		g.log.ErrorWithContext(ctx, "guard release failed", err, map[string]interface{}{
			"session_id": sessionID,
			"hold_id":    holdID,
			"reason":     reason,
		})
	}
}
