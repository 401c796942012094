package roles

import (
	"encoding/json"
	"testing"
)

func TestRole_StringAndLabel(t *testing.T) {
	tests := []struct {
		role       Role
		name       string
		label      string
		authorized bool
	}{
		{Caregiver, "CAREGIVER", "Caregiver", true},
		{Patient, "PATIENT", "Patient", true},
		{Family, "FAMILY", "Family Member", true},
		{Unknown, "UNKNOWN", "Unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.role.Label(); got != tt.label {
				t.Errorf("Label() = %q, want %q", got, tt.label)
			}
			if got := tt.role.Authorized(); got != tt.authorized {
				t.Errorf("Authorized() = %v, want %v", got, tt.authorized)
			}
		})
	}

	if got := Role(99).Label(); got != "Unknown" {
		t.Errorf("expected out of range label Unknown, got %q", got)
	}
}

func TestParseRole(t *testing.T) {
	for _, input := range []string{"caregiver", "CAREGIVER", " Caregiver "} {
		if r, err := ParseRole(input); err != nil || r != Caregiver {
			t.Errorf("ParseRole(%q) = %v, %v", input, r, err)
		}
	}
	if r, err := ParseRole("family member"); err != nil || r != Family {
		t.Errorf("ParseRole(family member) = %v, %v", r, err)
	}
	if _, err := ParseRole("doctor"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestRole_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Role Role `json:"role"`
	}{Patient})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"role":"PATIENT"}` {
		t.Errorf("unexpected JSON %s", data)
	}

	var r Role
	if err := json.Unmarshal([]byte(`"FAMILY"`), &r); err != nil || r != Family {
		t.Errorf("unmarshal = %v, %v", r, err)
	}
}
