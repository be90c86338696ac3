package database

import (
	"context"
	"time"
)

// GalleryReader provides a read-only snapshot of the enrollment gallery.
// Implementations must return candidates ordered by employee id so that
// resolution tie-breaks are reproducible.
type GalleryReader interface {
	// ListEnrolled returns all employees that have an embedding, ordered by id.
	ListEnrolled(ctx context.Context) ([]Employee, error)
	// GetEmbedding returns the embedding for an employee, nil if not enrolled.
	GetEmbedding(ctx context.Context, employeeID int64) ([]float32, error)
}

// EmployeeStore provides full access to employee records.
type EmployeeStore interface {
	GalleryReader

	// List returns all employees ordered by id. Embeddings are not loaded.
	List(ctx context.Context) ([]Employee, error)
	// Get retrieves an employee by id, returns nil if not found.
	Get(ctx context.Context, id int64) (*Employee, error)
	// GetByEmail retrieves an employee by email, returns nil if not found.
	GetByEmail(ctx context.Context, email string) (*Employee, error)
	// SearchByName returns employees whose normalized name contains the
	// normalized query (diacritics- and case-insensitive).
	SearchByName(ctx context.Context, name string) ([]Employee, error)
	// Create inserts a new employee and returns its id.
	Create(ctx context.Context, e *Employee) (int64, error)
	// Update replaces name, email, department, and (when set) the embedding.
	Update(ctx context.Context, e *Employee) error
	// SetEmbedding replaces the employee's embedding (re-enrollment).
	SetEmbedding(ctx context.Context, id int64, embedding []float32) error
	// Delete removes the employee and cascades to their sessions.
	Delete(ctx context.Context, id int64) error
	// Count returns the total number of employees.
	Count(ctx context.Context) (int, error)
	// CountEnrolled returns the number of employees with an embedding.
	CountEnrolled(ctx context.Context) (int, error)
}

// LedgerTx is the set of session mutations available inside a ledger
// transaction. All calls operate under the exclusive per-key lock taken by
// LedgerStore.Transact.
type LedgerTx interface {
	// Latest returns the newest session (by id) for the pair, nil when the
	// employee has no session on that day yet.
	Latest(ctx context.Context, employeeID int64, day CivilDate) (*AttendanceSession, error)
	// Create inserts a new open session with the given check-in time.
	Create(ctx context.Context, employeeID int64, day CivilDate, enter time.Time) (*AttendanceSession, error)
	// Close sets the check-out time on an open session.
	Close(ctx context.Context, sessionID int64, leave time.Time) (*AttendanceSession, error)
	// SetEnter sets the check-in time on a session missing it (anomaly repair).
	SetEnter(ctx context.Context, sessionID int64, enter time.Time) (*AttendanceSession, error)
}

// LedgerStore persists attendance sessions.
type LedgerStore interface {
	// Transact runs fn while holding an exclusive lock on the
	// (employee, civil day) key. The read-decide-write sequence of the
	// attendance state machine must happen entirely inside fn; the lock
	// guarantees at most one concurrent mutation per key. A context
	// cancellation aborts the transaction and releases the lock.
	Transact(ctx context.Context, employeeID int64, day CivilDate, fn func(LedgerTx) error) error

	// List returns sessions joined with employee data, newest day first and
	// employee name ascending within a day, restricted by the filter.
	List(ctx context.Context, filter *AttendanceFilter, limit int) ([]AttendanceRecord, error)
	// CountOnDay returns the number of sessions recorded on a civil day.
	CountOnDay(ctx context.Context, day CivilDate) (int, error)
	// CountOpen returns the number of currently open sessions on a civil day.
	CountOpen(ctx context.Context, day CivilDate) (int, error)
}
