package database

import (
	"testing"
	"time"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("failed to load location %s: %v", name, err)
	}
	return loc
}

func TestCivilDateOf_ReferenceTimezone(t *testing.T) {
	kolkata := mustLocation(t, "Asia/Kolkata")

	// 20:00 UTC is already 01:30 the next day in Kolkata (UTC+5:30).
	ts := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

	if d := CivilDateOf(ts, kolkata); d != "2026-03-15" {
		t.Errorf("expected 2026-03-15, got %s", d)
	}
	if d := CivilDateOf(ts, time.UTC); d != "2026-03-14" {
		t.Errorf("expected 2026-03-14 in UTC, got %s", d)
	}
}

func TestCivilDateOf_MidnightBoundary(t *testing.T) {
	kolkata := mustLocation(t, "Asia/Kolkata")

	before := time.Date(2026, 3, 14, 23, 59, 0, 0, kolkata)
	after := time.Date(2026, 3, 15, 0, 1, 0, 0, kolkata)

	if CivilDateOf(before, kolkata) == CivilDateOf(after, kolkata) {
		t.Error("timestamps across local midnight must land on different civil days")
	}
}

func TestAttendanceSession_OpenClosed(t *testing.T) {
	in := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	out := in.Add(8 * time.Hour)

	open := AttendanceSession{CheckIn: &in}
	if !open.Open() || open.Closed() {
		t.Error("session with only check-in must be open")
	}

	closed := AttendanceSession{CheckIn: &in, CheckOut: &out}
	if closed.Open() || !closed.Closed() {
		t.Error("session with both bounds must be closed")
	}

	anomaly := AttendanceSession{CheckOut: &out}
	if anomaly.Open() || anomaly.Closed() {
		t.Error("session missing check-in is neither open nor closed")
	}
}

func TestAttendanceSession_Duration(t *testing.T) {
	in := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	out := in.Add(8*time.Hour + 30*time.Minute)

	s := AttendanceSession{CheckIn: &in, CheckOut: &out}
	if got := s.Duration(); got != 8*time.Hour+30*time.Minute {
		t.Errorf("expected 8h30m, got %s", got)
	}

	open := AttendanceSession{CheckIn: &in}
	if got := open.Duration(); got != 0 {
		t.Errorf("expected zero duration for open session, got %s", got)
	}
}

func TestEmployee_Enrolled(t *testing.T) {
	e := Employee{Name: "Asha"}
	if e.Enrolled() {
		t.Error("employee without embedding must not be enrolled")
	}
	e.Embedding = []float32{0.1, 0.2}
	if !e.Enrolled() {
		t.Error("employee with embedding must be enrolled")
	}
}
