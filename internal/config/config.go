package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ankulpolara/face-attend/internal/constants"
)

//go:embed policy.yaml
var policyYAML []byte

type Config struct {
	Database   DatabaseConfig
	Legacy     LegacyConfig
	Embedding  EmbeddingConfig
	Attendance AttendanceConfig
	Web        WebConfig
	Policy     PolicyConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type LegacyConfig struct {
	DSN string // MySQL DSN of the historical attendance database (import only)
}

type EmbeddingConfig struct {
	URL string // defaults to http://localhost:8000
	Dim int    // defaults to 128
}

type AttendanceConfig struct {
	Timezone  string  // reference timezone for civil-day grouping
	Threshold float64 // maximum match distance for identification
}

type WebConfig struct {
	APIToken string // bearer token for the API (random when empty)
}

// PolicyConfig holds the organizational attendance policy embedded at build
// time. Timezone and threshold may be overridden by environment variables.
type PolicyConfig struct {
	Timezone       string        `yaml:"timezone"`
	MatchThreshold float64       `yaml:"match_threshold"`
	Workday        WorkdayPolicy `yaml:"workday"`
	Holidays       []Holiday     `yaml:"holidays"`
}

type WorkdayPolicy struct {
	Start        string  `yaml:"start"`
	End          string  `yaml:"end"`
	FullDayHours float64 `yaml:"full_day_hours"`
}

type Holiday struct {
	Date string `yaml:"date"`
	Name string `yaml:"name"`
}

// HolidayName returns the holiday name for a civil date (YYYY-MM-DD) or an
// empty string when the date is a working day.
func (p *PolicyConfig) HolidayName(date string) string {
	for _, h := range p.Holidays {
		if h.Date == date {
			return h.Name
		}
	}
	return ""
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envString reads an environment variable with a fallback.
func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var policy PolicyConfig
	if err := yaml.Unmarshal(policyYAML, &policy); err != nil {
		// This is an embedded file so this error should never happen in practice.
		panic("failed to unmarshal embedded policy.yaml: " + err.Error())
	}

	tz := policy.Timezone
	if tz == "" {
		tz = constants.DefaultTimezone
	}
	threshold := policy.MatchThreshold
	if threshold <= 0 {
		threshold = constants.DefaultMatchThreshold
	}

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Legacy: LegacyConfig{
			DSN: os.Getenv("LEGACY_DATABASE_DSN"),
		},
		Embedding: EmbeddingConfig{
			URL: os.Getenv("EMBEDDING_URL"),
			Dim: envInt("EMBEDDING_DIM", constants.EmbeddingDim),
		},
		Attendance: AttendanceConfig{
			Timezone:  envString("ATTENDANCE_TIMEZONE", tz),
			Threshold: envFloat("MATCH_THRESHOLD", threshold),
		},
		Web: WebConfig{
			APIToken: os.Getenv("API_TOKEN"),
		},
		Policy: policy,
	}
}

// Location resolves the configured reference timezone. Falls back to the
// built-in default when the configured name cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Attendance.Timezone)
	if err != nil {
		loc, err = time.LoadLocation(constants.DefaultTimezone)
		if err != nil {
			return time.UTC
		}
	}
	return loc
}
