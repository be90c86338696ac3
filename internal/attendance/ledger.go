// Package attendance implements the per-employee, per-day check-in/check-out
// state machine. All transitions run inside a store transaction holding an
// exclusive lock on the (employee, civil day) key, so concurrent calls from
// flaky or polling clients cannot open two sessions at once.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ankulpolara/face-attend/internal/database"
)

// ErrInvalidInput reports a caller contract violation (bad action, zero or
// out-of-order timestamp). Never retried.
var ErrInvalidInput = errors.New("invalid input")

// Ledger applies attendance transitions against a session store.
type Ledger struct {
	store database.LedgerStore
	loc   *time.Location
}

// NewLedger creates a ledger that groups sessions into civil days observed
// in loc, the fixed organizational timezone.
func NewLedger(store database.LedgerStore, loc *time.Location) *Ledger {
	return &Ledger{store: store, loc: loc}
}

// Location returns the reference timezone used for civil-day grouping.
func (l *Ledger) Location() *time.Location {
	return l.loc
}

// Apply runs one transition of the attendance state machine.
//
// The civil day is derived from ts converted into the reference timezone,
// not from the server's wall clock, so a check-out shortly after local
// midnight lands on the day its timestamp says. Storage faults are returned
// as errors for the transport layer to translate; business rejections come
// back as normal Outcome values.
func (l *Ledger) Apply(ctx context.Context, employeeID int64, action Action, ts time.Time) (Outcome, error) {
	if employeeID <= 0 {
		return Outcome{}, fmt.Errorf("%w: employee id is required", ErrInvalidInput)
	}
	if ts.IsZero() {
		return Outcome{}, fmt.Errorf("%w: timestamp is required", ErrInvalidInput)
	}

	day := database.CivilDateOf(ts, l.loc)

	var out Outcome
	err := l.store.Transact(ctx, employeeID, day, func(tx database.LedgerTx) error {
		latest, err := tx.Latest(ctx, employeeID, day)
		if err != nil {
			return err
		}

		switch action {
		case ActionEnter:
			out, err = l.applyEnter(ctx, tx, latest, employeeID, day, ts)
		case ActionLeave:
			out, err = l.applyLeave(ctx, tx, latest, ts)
		default:
			return fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
		}
		return err
	})
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// applyEnter handles the Enter column of the transition table.
func (l *Ledger) applyEnter(ctx context.Context, tx database.LedgerTx, latest *database.AttendanceSession, employeeID int64, day database.CivilDate, ts time.Time) (Outcome, error) {
	switch {
	case latest == nil:
		// First session of the day.
		s, err := tx.Create(ctx, employeeID, day, ts)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: EnterRecorded, Session: s}, nil

	case latest.CheckIn == nil:
		// Anomalous row without a check-in; repair it in place.
		s, err := tx.SetEnter(ctx, latest.ID, ts)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: EnterRecorded, Session: s}, nil

	case latest.Open():
		// Retried or polled Enter; return the open session unchanged.
		return Outcome{Kind: AlreadyOpen, Session: latest}, nil

	default:
		// Latest session closed; open the next one (multi-session day).
		s, err := tx.Create(ctx, employeeID, day, ts)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: EnterRecorded, Session: s}, nil
	}
}

// applyLeave handles the Leave column of the transition table.
func (l *Ledger) applyLeave(ctx context.Context, tx database.LedgerTx, latest *database.AttendanceSession, ts time.Time) (Outcome, error) {
	switch {
	case latest == nil || latest.CheckIn == nil:
		return Outcome{Kind: RejectedOutcome, Reason: NoOpenSession}, nil

	case latest.Open():
		if !ts.After(*latest.CheckIn) {
			return Outcome{}, fmt.Errorf("%w: check-out %s is not after check-in %s",
				ErrInvalidInput, ts.Format(time.RFC3339), latest.CheckIn.Format(time.RFC3339))
		}
		s, err := tx.Close(ctx, latest.ID, ts)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: LeaveRecorded, Session: s}, nil

	default:
		// Retried Leave; return the closed session unchanged.
		return Outcome{Kind: RejectedOutcome, Reason: AlreadyClosed, Session: latest}, nil
	}
}
