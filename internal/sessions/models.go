package sessions

import (
	"courtside/internal/holds"
)

// LeaveKind classifies how the client is leaving the reservation flow.
type LeaveKind string

const (
	// LeaveUnload is a page unload / tab close.
	LeaveUnload LeaveKind = "unload"
	// LeaveHidden is a visibility loss (tab switch, minimize).
	LeaveHidden LeaveKind = "hidden"
	// LeaveVisible cancels a pending hidden-leave before its grace delay.
	LeaveVisible LeaveKind = "visible"
	// LeaveBack is an intercepted back-navigation press.
	LeaveBack LeaveKind = "back"
)

// LeaveOutcome is what the guard decided to do with a leave event.
type LeaveOutcome string

const (
	// OutcomeIgnored: redirect in progress, the event was a false alarm.
	OutcomeIgnored LeaveOutcome = "ignored"
	// OutcomeConfirmRequired: the client must show a confirmation prompt
	// before the hold is touched.
	OutcomeConfirmRequired LeaveOutcome = "confirm_required"
	// OutcomeDeferred: a grace timer was started; the hold is released
	// only if the tab stays hidden past the delay.
	OutcomeDeferred LeaveOutcome = "deferred"
	// OutcomeReleased: the hold was released.
	OutcomeReleased LeaveOutcome = "released"
)

// ReserveRequest enters the reservation flow with a slot selection.
type ReserveRequest = holds.AcquireRequest

// HoldStatusResponse reports the session's live hold and its countdown.
type HoldStatusResponse struct {
	Hold             *holds.Hold `json:"hold"`
	RemainingSeconds int64       `json:"remaining_seconds"`
}

// LeaveRequest reports a navigation event from the client.
type LeaveRequest struct {
	Kind      LeaveKind `json:"kind" validate:"required,oneof=unload hidden visible back"`
	Confirmed bool      `json:"confirmed"`
}

// LeaveResponse carries the guard's decision.
type LeaveResponse struct {
	Outcome LeaveOutcome `json:"outcome"`
}
