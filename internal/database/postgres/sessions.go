package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"time"

	"github.com/ankulpolara/face-attend/internal/database"
)

// SessionRepository persists attendance sessions in PostgreSQL. Mutations go
// through Transact, which serializes writers per (employee, civil day) with a
// transaction-scoped advisory lock; a partial unique index on open sessions
// backs the at-most-one-open invariant at the schema level.
type SessionRepository struct {
	pool *Pool
}

// NewSessionRepository creates a session repository backed by the pool.
func NewSessionRepository(pool *Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Transact runs fn inside a transaction holding the advisory lock for the
// (employee, day) key. The lock is released automatically on commit or
// rollback, including when ctx is cancelled mid-flight.
func (r *SessionRepository) Transact(ctx context.Context, employeeID int64, day database.CivilDate, fn func(database.LedgerTx) error) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	lockKey := fmt.Sprintf("%d/%s", employeeID, day)
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", lockKey); err != nil {
		return fmt.Errorf("acquiring session lock: %w", err)
	}

	if err := fn(&sessionTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing session transaction: %w", err)
	}
	return nil
}

// sessionTx implements database.LedgerTx over an open transaction.
type sessionTx struct {
	tx *sql.Tx
}

func (s *sessionTx) Latest(ctx context.Context, employeeID int64, day database.CivilDate) (*database.AttendanceSession, error) {
	var openCount int
	err := s.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendance_sessions
		 WHERE employee_id = $1 AND date = $2 AND check_in IS NOT NULL AND check_out IS NULL`,
		employeeID, string(day),
	).Scan(&openCount)
	if err != nil {
		return nil, fmt.Errorf("counting open sessions: %w", err)
	}
	if openCount > 1 {
		return nil, database.ErrInconsistentState
	}

	var sess database.AttendanceSession
	var checkIn, checkOut sql.NullTime
	err = s.tx.QueryRowContext(ctx,
		`SELECT id, employee_id, date::text, check_in, check_out FROM attendance_sessions
		 WHERE employee_id = $1 AND date = $2
		 ORDER BY id DESC LIMIT 1`,
		employeeID, string(day),
	).Scan(&sess.ID, &sess.EmployeeID, &sess.Date, &checkIn, &checkOut)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest session: %w", err)
	}
	sess.CheckIn = nullableTime(checkIn)
	sess.CheckOut = nullableTime(checkOut)
	return &sess, nil
}

func (s *sessionTx) Create(ctx context.Context, employeeID int64, day database.CivilDate, enter time.Time) (*database.AttendanceSession, error) {
	sess := database.AttendanceSession{
		EmployeeID: employeeID,
		Date:       day,
		CheckIn:    &enter,
	}
	err := s.tx.QueryRowContext(ctx,
		`INSERT INTO attendance_sessions (employee_id, date, check_in)
		 VALUES ($1, $2, $3) RETURNING id`,
		employeeID, string(day), enter,
	).Scan(&sess.ID)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return &sess, nil
}

func (s *sessionTx) Close(ctx context.Context, sessionID int64, leave time.Time) (*database.AttendanceSession, error) {
	return s.updateSession(ctx,
		`UPDATE attendance_sessions SET check_out = $2
		 WHERE id = $1 AND check_in IS NOT NULL AND check_out IS NULL
		 RETURNING id, employee_id, date::text, check_in, check_out`,
		sessionID, leave)
}

func (s *sessionTx) SetEnter(ctx context.Context, sessionID int64, enter time.Time) (*database.AttendanceSession, error) {
	return s.updateSession(ctx,
		`UPDATE attendance_sessions SET check_in = $2
		 WHERE id = $1 AND check_in IS NULL
		 RETURNING id, employee_id, date::text, check_in, check_out`,
		sessionID, enter)
}

func (s *sessionTx) updateSession(ctx context.Context, query string, sessionID int64, ts time.Time) (*database.AttendanceSession, error) {
	var sess database.AttendanceSession
	var checkIn, checkOut sql.NullTime
	err := s.tx.QueryRowContext(ctx, query, sessionID, ts).
		Scan(&sess.ID, &sess.EmployeeID, &sess.Date, &checkIn, &checkOut)
	if errors.Is(err, sql.ErrNoRows) {
		// The row changed under us despite the lock, or the caller passed a
		// session in the wrong state.
		return nil, database.ErrInconsistentState
	}
	if err != nil {
		return nil, fmt.Errorf("updating session: %w", err)
	}
	sess.CheckIn = nullableTime(checkIn)
	sess.CheckOut = nullableTime(checkOut)
	return &sess, nil
}

// List returns sessions joined with employee data, newest day first, names
// ascending within a day, insertion order within an employee's day.
func (r *SessionRepository) List(ctx context.Context, filter *database.AttendanceFilter, limit int) ([]database.AttendanceRecord, error) {
	query := `SELECT a.id, a.employee_id, a.date::text, a.check_in, a.check_out, e.name, e.department
		FROM attendance_sessions a
		JOIN employees e ON e.id = a.employee_id`
	var args []any
	if filter != nil {
		clause, clauseArgs := filter.SQL(1)
		query += clause
		args = clauseArgs
	}
	query += fmt.Sprintf(" ORDER BY a.date DESC, e.name ASC, a.id ASC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var records []database.AttendanceRecord
	for rows.Next() {
		var rec database.AttendanceRecord
		var checkIn, checkOut sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.Date, &checkIn, &checkOut, &rec.EmployeeName, &rec.Department); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		rec.CheckIn = nullableTime(checkIn)
		rec.CheckOut = nullableTime(checkOut)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session rows: %w", err)
	}
	return records, nil
}

// CountOnDay returns the number of sessions recorded on a civil day.
func (r *SessionRepository) CountOnDay(ctx context.Context, day database.CivilDate) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM attendance_sessions WHERE date = $1", string(day),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return count, nil
}

// CountOpen returns the number of open sessions on a civil day.
func (r *SessionRepository) CountOpen(ctx context.Context, day database.CivilDate) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attendance_sessions
		 WHERE date = $1 AND check_in IS NOT NULL AND check_out IS NULL`,
		string(day),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting open sessions: %w", err)
	}
	return count, nil
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
