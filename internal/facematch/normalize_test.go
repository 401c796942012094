package facematch

import (
	"errors"
	"slices"
	"testing"
)

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Honza", "Honza"},
		{"Jiří", "Jiri"},
		{"café", "cafe"},
		{"naïve", "naive"},
		{"hello", "hello"},
		{"Žluťoučký kůň", "Zlutoucky kun"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := RemoveDiacritics(tt.input)
			if result != tt.expected {
				t.Errorf("RemoveDiacritics(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		err      error
	}{
		{"Alice", "Alice", nil},
		{"  Alice  ", "Alice", nil},
		{"Mary   Jane", "Mary Jane", nil},
		{"José", "José", nil}, // decomposed accent is composed
		{"Jiří", "Jiří", nil},
		{"", "", ErrInvalidName},
		{"   \t ", "", ErrInvalidName},
		{"Unknown", "", ErrReservedName},
		{" Unknown ", "", ErrReservedName},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := NormalizeName(tt.input)
			if !errors.Is(err, tt.err) {
				t.Fatalf("NormalizeName(%q) error = %v, want %v", tt.input, err, tt.err)
			}
			if result != tt.expected {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFoldName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Jan Novák", "jan novak"},
		{"jan-novak", "jan novak"},
		{"JOHN DOE", "john doe"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := FoldName(tt.input); got != tt.expected {
			t.Errorf("FoldName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFilterNames(t *testing.T) {
	names := []string{"Jan Novák", "Jana Svobodová", "Peter Parker"}

	got := FilterNames(names, "nova")
	if !slices.Equal(got, []string{"Jan Novák"}) {
		t.Errorf("unexpected filter result %v", got)
	}

	got = FilterNames(names, "JAN")
	if !slices.Equal(got, []string{"Jan Novák", "Jana Svobodová"}) {
		t.Errorf("unexpected filter result %v", got)
	}

	if got := FilterNames(names, "  "); len(got) != len(names) {
		t.Errorf("empty query should return all names, got %v", got)
	}

	if got := FilterNames(names, "nobody"); len(got) != 0 {
		t.Errorf("expected no matches, got %v", got)
	}
}
