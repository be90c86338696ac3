package config

import (
	"testing"
)

func TestLoad_PolicyDefaults(t *testing.T) {
	t.Setenv("ATTENDANCE_TIMEZONE", "")
	t.Setenv("MATCH_THRESHOLD", "")

	cfg := Load()

	if cfg.Attendance.Timezone != "Asia/Kolkata" {
		t.Errorf("expected policy timezone Asia/Kolkata, got '%s'", cfg.Attendance.Timezone)
	}
	if cfg.Attendance.Threshold != 0.6 {
		t.Errorf("expected policy threshold 0.6, got %f", cfg.Attendance.Threshold)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ATTENDANCE_TIMEZONE", "Europe/Prague")
	t.Setenv("MATCH_THRESHOLD", "0.45")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "10")

	cfg := Load()

	if cfg.Attendance.Timezone != "Europe/Prague" {
		t.Errorf("expected timezone override, got '%s'", cfg.Attendance.Timezone)
	}
	if cfg.Attendance.Threshold != 0.45 {
		t.Errorf("expected threshold override, got %f", cfg.Attendance.Threshold)
	}
	if cfg.Database.MaxOpenConns != 10 {
		t.Errorf("expected max open conns override, got %d", cfg.Database.MaxOpenConns)
	}
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "not-a-number")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "-3")

	cfg := Load()

	if cfg.Attendance.Threshold != 0.6 {
		t.Errorf("expected fallback threshold 0.6, got %f", cfg.Attendance.Threshold)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("expected fallback max open conns 25, got %d", cfg.Database.MaxOpenConns)
	}
}

func TestLocation_InvalidTimezone(t *testing.T) {
	cfg := &Config{Attendance: AttendanceConfig{Timezone: "Not/AZone"}}

	loc := cfg.Location()

	if loc == nil {
		t.Fatal("expected a location, got nil")
	}
	if loc.String() != "Asia/Kolkata" {
		t.Errorf("expected fallback to Asia/Kolkata, got '%s'", loc)
	}
}

func TestHolidayName(t *testing.T) {
	policy := PolicyConfig{
		Holidays: []Holiday{{Date: "2026-01-26", Name: "Republic Day"}},
	}

	if name := policy.HolidayName("2026-01-26"); name != "Republic Day" {
		t.Errorf("expected Republic Day, got '%s'", name)
	}
	if name := policy.HolidayName("2026-01-27"); name != "" {
		t.Errorf("expected empty name for working day, got '%s'", name)
	}
}
