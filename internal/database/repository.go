package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/caregiver-faces/internal/facematch"
)

// DefaultNamespace groups every record that belongs to one face gallery.
const DefaultNamespace = "face_recognition"

// Keys of the records stored under a namespace.
const (
	KeyFaces      = "registered_faces"
	KeyCaregivers = "registered_caregivers"
	KeyPatients   = "registered_patients"
)

// RoleSet identifies one of the independently persisted role sets.
type RoleSet string

const (
	CaregiverSet RoleSet = "caregivers"
	PatientSet   RoleSet = "patients"
)

// Key returns the record key the set is stored under.
func (s RoleSet) Key() (string, error) {
	switch s {
	case CaregiverSet:
		return KeyCaregivers, nil
	case PatientSet:
		return KeyPatients, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRoleSet, string(s))
	}
}

var (
	// ErrCorrupt is returned by loaders when the persisted record cannot be parsed.
	ErrCorrupt = errors.New("persisted record is corrupt")
	// ErrUnknownRoleSet is returned for role sets other than caregivers and patients.
	ErrUnknownRoleSet = errors.New("unknown role set")
)

// FaceReader provides read-only access to the persisted face gallery.
type FaceReader interface {
	// LoadFaces returns the full name to embedding mapping.
	// A missing record yields an empty mapping and no error.
	LoadFaces(ctx context.Context) (map[string]facematch.Vector, error)
}

// FaceWriter provides write access to the persisted face gallery.
type FaceWriter interface {
	FaceReader

	// SaveFaces replaces the whole mapping. Either every entry is stored or none is.
	SaveFaces(ctx context.Context, faces map[string]facematch.Vector) error
}

// RoleReader provides read-only access to the role sets.
type RoleReader interface {
	// LoadRole returns the members of a role set. A missing record yields no names.
	LoadRole(ctx context.Context, set RoleSet) ([]string, error)
}

// RoleWriter provides write access to the role sets.
type RoleWriter interface {
	RoleReader

	// SaveRole replaces the members of a role set.
	SaveRole(ctx context.Context, set RoleSet, names []string) error
}

// Store is a complete persistence backend for one namespace.
type Store interface {
	FaceWriter
	RoleWriter

	// Close releases the backend's connections.
	Close() error
}
