package sessions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReleaser struct {
	mu       sync.Mutex
	released []string
	err      error
}

func (f *fakeReleaser) Release(_ context.Context, sessionID, holdID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, holdID+":"+reason)
	return f.err
}

func (f *fakeReleaser) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.released)
}

func TestRedirectFlagSuppressesUnload(t *testing.T) {
	// Setting the redirect flag then immediately firing an unload must not
	// release the hold.
	releaser := &fakeReleaser{}
	guard := NewGuard(releaser, 10*time.Millisecond)

	guard.MarkRedirecting("s1")
	outcome := guard.HandleLeave(context.Background(), "s1", "h1", LeaveRequest{Kind: LeaveUnload, Confirmed: true})

	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Equal(t, 0, releaser.count())
}

func TestUnloadWithoutConfirmationAsksFirst(t *testing.T) {
	releaser := &fakeReleaser{}
	guard := NewGuard(releaser, 10*time.Millisecond)

	outcome := guard.HandleLeave(context.Background(), "s1", "h1", LeaveRequest{Kind: LeaveUnload})
	assert.Equal(t, OutcomeConfirmRequired, outcome)
	assert.Equal(t, 0, releaser.count())
}

func TestConfirmedUnloadReleases(t *testing.T) {
	releaser := &fakeReleaser{}
	guard := NewGuard(releaser, 10*time.Millisecond)

	outcome := guard.HandleLeave(context.Background(), "s1", "h1", LeaveRequest{Kind: LeaveUnload, Confirmed: true})
	assert.Equal(t, OutcomeReleased, outcome)
	require.Equal(t, 1, releaser.count())
	assert.Equal(t, "h1:unload", releaser.released[0])
}

func TestBackPressInterception(t *testing.T) {
	// First back press is converted into a confirmation prompt; declining
	// re-arms (the client just sends another unconfirmed event), confirming
	// releases.
	releaser := &fakeReleaser{}
	guard := NewGuard(releaser, 10*time.Millisecond)

	assert.Equal(t, OutcomeConfirmRequired, guard.HandleLeave(context.Background(), "s1", "h1", LeaveRequest{Kind: LeaveBack}))
	assert.Equal(t, OutcomeConfirmRequired, guard.HandleLeave(context.Background(), "s1", "h1", LeaveRequest{Kind: LeaveBack}))
	assert.Equal(t, 0, releaser.count())

	assert.Equal(t, OutcomeReleased, guard.HandleLeave(context.Background(), "s1", "h1", LeaveRequest{Kind: LeaveBack, Confirmed: true}))
	assert.Equal(t, 1, releaser.count())
}

func TestHiddenReleasesAfterGraceDelay(t *testing.T) {
	releaser := &fakeReleaser{}
	guard := NewGuard(releaser, 20*time.Millisecond)

	outcome := guard.HandleLeave(context.Background(), "s1", "h1", LeaveRequest{Kind: LeaveHidden})
	assert.Equal(t, OutcomeDeferred, outcome)
	assert.Equal(t, 0, releaser.count(), "no release before the grace delay")

	assert.Eventually(t, func() bool {
		return releaser.count() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestVisibleCancelsPendingHiddenRelease(t *testing.T) {
	// A transient tab switch: hidden then visible inside the grace window
	// must not release.
	releaser := &fakeReleaser{}
	guard := NewGuard(releaser, 30*time.Millisecond)

	assert.Equal(t, OutcomeDeferred, guard.HandleLeave(context.Background(), "s1", "h1", LeaveRequest{Kind: LeaveHidden}))
	assert.Equal(t, OutcomeIgnored, guard.HandleLeave(context.Background(), "s1", "h1", LeaveRequest{Kind: LeaveVisible}))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, releaser.count())
}

func TestRedirectDuringGraceWindowSuppressesRelease(t *testing.T) {
	// The grace-expiry path re-checks the redirect flag before releasing.
	releaser := &fakeReleaser{}
	guard := NewGuard(releaser, 30*time.Millisecond)

	assert.Equal(t, OutcomeDeferred, guard.HandleLeave(context.Background(), "s1", "h1", LeaveRequest{Kind: LeaveHidden}))
	guard.MarkRedirecting("s1")

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, releaser.count())
}

func TestDuplicateHiddenEventsStartOneTimer(t *testing.T) {
	releaser := &fakeReleaser{}
	guard := NewGuard(releaser, 20*time.Millisecond)

	assert.Equal(t, OutcomeDeferred, guard.HandleLeave(context.Background(), "s1", "h1", LeaveRequest{Kind: LeaveHidden}))
	assert.Equal(t, OutcomeDeferred, guard.HandleLeave(context.Background(), "s1", "h1", LeaveRequest{Kind: LeaveHidden}))

	assert.Eventually(t, func() bool {
		return releaser.count() >= 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 1, releaser.count(), "one release for the pair of events")
}

func TestClearRedirectRestoresGuarding(t *testing.T) {
	// A cancelled checkout returns to the flow; leave events guard again.
	releaser := &fakeReleaser{}
	guard := NewGuard(releaser, 10*time.Millisecond)

	guard.MarkRedirecting("s1")
	guard.ClearRedirect("s1")

	outcome := guard.HandleLeave(context.Background(), "s1", "h1", LeaveRequest{Kind: LeaveUnload, Confirmed: true})
	assert.Equal(t, OutcomeReleased, outcome)
	assert.Equal(t, 1, releaser.count())
}

func TestReleaseFailureDoesNotBlockNavigation(t *testing.T) {
	releaser := &fakeReleaser{err: assert.AnError}
	guard := NewGuard(releaser, 10*time.Millisecond)

	// The outcome is still Released; the backend hold self-expires
	outcome := guard.HandleLeave(context.Background(), "s1", "h1", LeaveRequest{Kind: LeaveUnload, Confirmed: true})
	assert.Equal(t, OutcomeReleased, outcome)
}

func TestGuardDropsIdleSessionState(t *testing.T) {
	// Read paths and settled flows leave nothing behind, so a long-lived
	// server does not keep one entry per session it ever saw.
	releaser := &fakeReleaser{}
	guard := NewGuard(releaser, 20*time.Millisecond)

	assert.False(t, guard.IsRedirecting("s1"))
	guard.HandleLeave(context.Background(), "s2", "h2", LeaveRequest{Kind: LeaveVisible})
	guard.HandleLeave(context.Background(), "s3", "h3", LeaveRequest{Kind: LeaveUnload, Confirmed: true})
	guard.ClearRedirect("s4")

	guard.MarkRedirecting("s5")
	guard.ClearRedirect("s5")

	assert.Equal(t, OutcomeDeferred, guard.HandleLeave(context.Background(), "s6", "h6", LeaveRequest{Kind: LeaveHidden}))
	assert.Equal(t, OutcomeIgnored, guard.HandleLeave(context.Background(), "s6", "h6", LeaveRequest{Kind: LeaveVisible}))

	assert.Equal(t, OutcomeDeferred, guard.HandleLeave(context.Background(), "s7", "h7", LeaveRequest{Kind: LeaveHidden}))
	assert.Eventually(t, func() bool {
		return releaser.count() == 2
	}, time.Second, 5*time.Millisecond, "s3 unload plus s7 grace expiry")

	guard.mu.Lock()
	remaining := len(guard.intents)
	guard.mu.Unlock()
	assert.Equal(t, 0, remaining)
}

func TestGuardsAreIsolatedPerSession(t *testing.T) {
	releaser := &fakeReleaser{}
	guard := NewGuard(releaser, 10*time.Millisecond)

	guard.MarkRedirecting("s1")

	assert.Equal(t, OutcomeIgnored, guard.HandleLeave(context.Background(), "s1", "h1", LeaveRequest{Kind: LeaveUnload, Confirmed: true}))
	assert.Equal(t, OutcomeReleased, guard.HandleLeave(context.Background(), "s2", "h2", LeaveRequest{Kind: LeaveUnload, Confirmed: true}))
}
