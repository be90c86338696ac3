package legacy

import (
	"testing"
)

func TestParseDescriptor(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := ParseDescriptor("[0.1, -0.5, 1]")
		if err != nil {
			t.Fatalf("ParseDescriptor failed: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("Expected 3 values, got %d", len(got))
		}
		if got[1] != -0.5 {
			t.Errorf("Expected -0.5 at index 1, got %v", got[1])
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := ParseDescriptor("not json"); err == nil {
			t.Error("Expected error for invalid JSON")
		}
	})

	t.Run("empty array", func(t *testing.T) {
		if _, err := ParseDescriptor("[]"); err == nil {
			t.Error("Expected error for empty descriptor")
		}
	})
}

func TestMysqlDSNWithParseTime(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
		ok   bool
	}{
		{"plain", "root:pw@tcp(localhost:3306)/attendance_system", "root:pw@tcp(localhost:3306)/attendance_system?parseTime=true", true},
		{"with params", "root@tcp(db)/legacy?charset=utf8", "root@tcp(db)/legacy?charset=utf8&parseTime=true", true},
		{"malformed", "not a dsn", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mysqlDSNWithParseTime(tt.dsn)
			if tt.ok && err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
