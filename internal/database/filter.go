package database

import (
	"fmt"
	"strings"
)

// AttendanceFilter composes a fixed set of named predicates into one
// conjunctive restriction on attendance listings. Each predicate knows how to
// render itself as a SQL fragment and how to evaluate an in-memory record, so
// the filter works identically against Postgres and the mock store.
type AttendanceFilter struct {
	preds []attendancePred
}

type attendancePred struct {
	clause string // SQL fragment with a single %d placeholder index
	arg    any
	match  func(*AttendanceRecord) bool
}

// NewAttendanceFilter builds a filter from zero or more predicates.
func NewAttendanceFilter(preds ...AttendancePredicate) *AttendanceFilter {
	f := &AttendanceFilter{}
	for _, p := range preds {
		p(f)
	}
	return f
}

// AttendancePredicate is one named restriction on attendance records.
type AttendancePredicate func(*AttendanceFilter)

// OnDate restricts records to a single civil day.
func OnDate(day CivilDate) AttendancePredicate {
	return func(f *AttendanceFilter) {
		f.preds = append(f.preds, attendancePred{
			clause: "a.date = $%d",
			arg:    string(day),
			match:  func(r *AttendanceRecord) bool { return r.Date == day },
		})
	}
}

// FromDate restricts records to civil days on or after the given day.
func FromDate(day CivilDate) AttendancePredicate {
	return func(f *AttendanceFilter) {
		f.preds = append(f.preds, attendancePred{
			clause: "a.date >= $%d",
			arg:    string(day),
			match:  func(r *AttendanceRecord) bool { return r.Date >= day },
		})
	}
}

// UntilDate restricts records to civil days on or before the given day.
func UntilDate(day CivilDate) AttendancePredicate {
	return func(f *AttendanceFilter) {
		f.preds = append(f.preds, attendancePred{
			clause: "a.date <= $%d",
			arg:    string(day),
			match:  func(r *AttendanceRecord) bool { return r.Date <= day },
		})
	}
}

// ForEmployee restricts records to one employee.
func ForEmployee(employeeID int64) AttendancePredicate {
	return func(f *AttendanceFilter) {
		f.preds = append(f.preds, attendancePred{
			clause: "a.employee_id = $%d",
			arg:    employeeID,
			match:  func(r *AttendanceRecord) bool { return r.EmployeeID == employeeID },
		})
	}
}

// Empty reports whether the filter has no predicates.
func (f *AttendanceFilter) Empty() bool {
	return f == nil || len(f.preds) == 0
}

// SQL renders the filter as a WHERE clause (including the leading " WHERE ")
// with positional placeholders starting at startIdx. Returns an empty clause
// for an empty filter.
func (f *AttendanceFilter) SQL(startIdx int) (string, []any) {
	if f.Empty() {
		return "", nil
	}

	clauses := make([]string, 0, len(f.preds))
	args := make([]any, 0, len(f.preds))
	for i, p := range f.preds {
		clauses = append(clauses, fmt.Sprintf(p.clause, startIdx+i))
		args = append(args, p.arg)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Matches evaluates the conjunction against an in-memory record.
func (f *AttendanceFilter) Matches(r *AttendanceRecord) bool {
	if f.Empty() {
		return true
	}
	for _, p := range f.preds {
		if !p.match(r) {
			return false
		}
	}
	return true
}
