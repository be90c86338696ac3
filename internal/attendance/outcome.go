package attendance

import (
	"fmt"

	"github.com/ankulpolara/face-attend/internal/database"
)

// Action is a requested attendance transition.
type Action string

// Actions accepted by the ledger. Wire values match the original client.
const (
	ActionEnter Action = "check-in"
	ActionLeave Action = "check-out"
)

// ParseAction validates a wire action string.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionEnter, ActionLeave:
		return Action(s), nil
	default:
		return "", fmt.Errorf("%w: invalid action %q (use %q or %q)", ErrInvalidInput, s, ActionEnter, ActionLeave)
	}
}

// OutcomeKind classifies the result of an Apply call.
type OutcomeKind string

const (
	// EnterRecorded means a new session was opened (or an anomalous row repaired).
	EnterRecorded OutcomeKind = "enter_recorded"
	// LeaveRecorded means the open session was closed.
	LeaveRecorded OutcomeKind = "leave_recorded"
	// AlreadyOpen means an Enter arrived while a session was already open;
	// the existing session is returned unchanged (client retry tolerance).
	AlreadyOpen OutcomeKind = "already_open"
	// RejectedOutcome means the action did not apply; Reason says why.
	RejectedOutcome OutcomeKind = "rejected"
)

// RejectReason explains a rejected action. Rejections are normal negative
// results presented as user guidance, never system failures.
type RejectReason string

const (
	// NoOpenSession means a Leave arrived with nothing to close.
	NoOpenSession RejectReason = "no_open_session"
	// AlreadyClosed means a Leave arrived after the session was closed.
	AlreadyClosed RejectReason = "already_closed"
)

// Outcome is the result of one ledger transition. Session is the affected
// row: the created/updated one on success, the existing one on AlreadyOpen
// and Rejected(AlreadyClosed), nil on Rejected(NoOpenSession).
type Outcome struct {
	Kind    OutcomeKind
	Reason  RejectReason
	Session *database.AttendanceSession
}

// Rejected reports whether the action was refused by the state machine.
func (o Outcome) Rejected() bool {
	return o.Kind == RejectedOutcome
}
