package legacy

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/ankulpolara/face-attend/internal/database"
)

// Source reads the historical MySQL attendance database. The old system kept
// face descriptors as JSON array text and one row per (employee, date) with
// nullable check_in/check_out columns; Source translates both into the
// current model so the import command can replay them.
type Source struct {
	db *sql.DB
}

// Open connects to the legacy database. The DSN uses the go-sql-driver
// format; parseTime is forced on so DATETIME columns scan into time.Time.
func Open(dsn string) (*Source, error) {
	if dsn == "" {
		return nil, errors.New("legacy database DSN is required")
	}

	cfg, err := mysqlDSNWithParseTime(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping legacy database: %w", err)
	}

	return &Source{db: db}, nil
}

func mysqlDSNWithParseTime(dsn string) (string, error) {
	for i := len(dsn) - 1; i >= 0; i-- {
		if dsn[i] == '?' {
			return dsn + "&parseTime=true", nil
		}
		if dsn[i] == '/' {
			return dsn + "?parseTime=true", nil
		}
	}
	return "", fmt.Errorf("malformed legacy DSN %q", dsn)
}

// Close closes the connection to the legacy database.
func (s *Source) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing legacy database: %w", err)
	}
	return nil
}

// Employees returns all legacy employees ordered by id. Descriptors that fail
// to parse leave the employee unenrolled rather than aborting the import.
func (s *Source) Employees(ctx context.Context) ([]database.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, department, face_descriptor, created_at FROM employees ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("reading legacy employees: %w", err)
	}
	defer rows.Close()

	var employees []database.Employee
	for rows.Next() {
		var e database.Employee
		var department, descriptor sql.NullString
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &department, &descriptor, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning legacy employee: %w", err)
		}
		e.Department = department.String
		if descriptor.Valid {
			e.Embedding, _ = ParseDescriptor(descriptor.String)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating legacy employees: %w", err)
	}
	return employees, nil
}

// Sessions returns all legacy attendance rows ordered by employee and date.
// The old schema already stored one civil date per row, so the date column is
// carried over verbatim.
func (s *Source) Sessions(ctx context.Context) ([]database.AttendanceSession, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, employee_id, DATE_FORMAT(date, '%Y-%m-%d'), check_in, check_out FROM attendance ORDER BY employee_id, date, id")
	if err != nil {
		return nil, fmt.Errorf("reading legacy attendance: %w", err)
	}
	defer rows.Close()

	var sessions []database.AttendanceSession
	for rows.Next() {
		var sess database.AttendanceSession
		var checkIn, checkOut sql.NullTime
		if err := rows.Scan(&sess.ID, &sess.EmployeeID, &sess.Date, &checkIn, &checkOut); err != nil {
			return nil, fmt.Errorf("scanning legacy attendance row: %w", err)
		}
		if checkIn.Valid {
			t := checkIn.Time
			sess.CheckIn = &t
		}
		if checkOut.Valid {
			t := checkOut.Time
			sess.CheckOut = &t
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating legacy attendance rows: %w", err)
	}
	return sessions, nil
}

// Counts returns the number of legacy employees and attendance rows, used to
// size the import progress bar.
func (s *Source) Counts(ctx context.Context) (employees int, sessions int, err error) {
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM employees").Scan(&employees); err != nil {
		return 0, 0, fmt.Errorf("counting legacy employees: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM attendance").Scan(&sessions); err != nil {
		return 0, 0, fmt.Errorf("counting legacy attendance rows: %w", err)
	}
	return employees, sessions, nil
}

// ParseDescriptor decodes the legacy JSON array form of a face descriptor.
func ParseDescriptor(s string) ([]float32, error) {
	var values []float32
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return nil, fmt.Errorf("parsing face descriptor: %w", err)
	}
	if len(values) == 0 {
		return nil, errors.New("empty face descriptor")
	}
	return values, nil
}
