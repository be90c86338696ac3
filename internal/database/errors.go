package database

import "errors"

// ErrInconsistentState reports a persisted state the ledger refuses to guess
// about, e.g. two simultaneously open sessions for one (employee, day) pair.
// Stores detect it on read.
var ErrInconsistentState = errors.New("inconsistent session state")
