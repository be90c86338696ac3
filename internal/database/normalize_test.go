package database

import "testing"

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Jiří", "Jiri"},
		{"Nováková", "Novakova"},
		{"plain", "plain"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := RemoveDiacritics(tt.input); got != tt.expected {
			t.Errorf("RemoveDiacritics(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizeEmployeeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Rámesh  Kumar", "ramesh kumar"},
		{"  Asha Patel ", "asha patel"},
		{"JIŘÍ", "jiri"},
	}

	for _, tt := range tests {
		if got := NormalizeEmployeeName(tt.input); got != tt.expected {
			t.Errorf("NormalizeEmployeeName(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
