package database

import (
	"time"
)

// CivilDate is a calendar day (YYYY-MM-DD) as observed in the organizational
// reference timezone. Sessions are grouped into days by this value, never by
// the caller's local date or UTC.
type CivilDate string

// CivilDateOf derives the civil date of a timestamp in the given timezone.
func CivilDateOf(ts time.Time, loc *time.Location) CivilDate {
	return CivilDate(ts.In(loc).Format("2006-01-02"))
}

// Employee represents an enrolled or pending identity.
// Embedding is nil until the employee has been enrolled with a face capture;
// exactly one embedding is kept per employee and is replaced on re-enrollment.
type Employee struct {
	ID         int64
	Name       string
	Email      string
	Department string
	Embedding  []float32
	CreatedAt  time.Time
}

// Enrolled reports whether the employee has a face embedding in the gallery.
func (e *Employee) Enrolled() bool {
	return len(e.Embedding) > 0
}

// AttendanceSession is one enter/leave pair (or enter-only, while open) for
// one employee on one civil day.
type AttendanceSession struct {
	ID         int64
	EmployeeID int64
	Date       CivilDate
	CheckIn    *time.Time
	CheckOut   *time.Time
}

// Open reports whether the session has a check-in but no check-out yet.
// At most one session per (employee, date) may be open at any time.
func (s *AttendanceSession) Open() bool {
	return s.CheckIn != nil && s.CheckOut == nil
}

// Closed reports whether the session has both bounds recorded.
func (s *AttendanceSession) Closed() bool {
	return s.CheckIn != nil && s.CheckOut != nil
}

// Duration returns the session length, or zero while the session is open or
// anomalous.
func (s *AttendanceSession) Duration() time.Duration {
	if !s.Closed() {
		return 0
	}
	return s.CheckOut.Sub(*s.CheckIn)
}

// AttendanceRecord is a session joined with its employee for listings and
// reports.
type AttendanceRecord struct {
	AttendanceSession
	EmployeeName string
	Department   string
}
