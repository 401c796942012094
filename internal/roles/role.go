// Package roles classifies recognized people as caregivers, patients or
// family members.
package roles

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the authorization category of a recognized person.
// The zero value is Unknown.
type Role int

const (
	Unknown Role = iota
	Family
	Patient
	Caregiver
)

var roleNames = map[Role]string{
	Unknown:   "UNKNOWN",
	Family:    "FAMILY",
	Patient:   "PATIENT",
	Caregiver: "CAREGIVER",
}

var roleLabels = map[Role]string{
	Unknown:   "Unknown",
	Family:    "Family Member",
	Patient:   "Patient",
	Caregiver: "Caregiver",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Label returns the human readable name shown to users.
func (r Role) Label() string {
	if s, ok := roleLabels[r]; ok {
		return s
	}
	return roleLabels[Unknown]
}

// Authorized reports whether the role belongs to a known person.
func (r Role) Authorized() bool {
	return r != Unknown
}

// ParseRole accepts the upper case name, the label or a lower case variant.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for r, name := range roleNames {
		if strings.EqualFold(s, name) || strings.EqualFold(s, roleLabels[r]) {
			return r, nil
		}
	}
	return Unknown, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
