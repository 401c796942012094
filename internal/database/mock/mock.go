// Package mock provides an in-memory database.Store for tests.
package mock

import (
	"context"
	"slices"
	"sync"

	"github.com/kozaktomas/caregiver-faces/internal/database"
	"github.com/kozaktomas/caregiver-faces/internal/facematch"
)

// MockStore is an in-memory implementation of database.Store.
// Stored values are copied on the way in and out so callers cannot alias them.
type MockStore struct {
	mu    sync.RWMutex
	faces map[string]facematch.Vector
	roles map[database.RoleSet][]string

	// Error injection
	LoadFacesError error
	SaveFacesError error
	LoadRoleError  error
	SaveRoleError  error
	CloseError     error

	// Call counters
	SaveFacesCalls int
	SaveRoleCalls  int
	Closed         bool
}

var _ database.Store = (*MockStore)(nil)

// NewMockStore creates an empty store.
func NewMockStore() *MockStore {
	return &MockStore{
		faces: make(map[string]facematch.Vector),
		roles: make(map[database.RoleSet][]string),
	}
}

// AddFace seeds a face without counting as a save.
func (m *MockStore) AddFace(name string, embedding facematch.Vector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces[name] = embedding.Clone()
}

// AddRole seeds a role set member without counting as a save.
func (m *MockStore) AddRole(set database.RoleSet, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[set] = append(m.roles[set], name)
}

// Faces returns a copy of what was last saved.
func (m *MockStore) Faces() map[string]facematch.Vector {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneFaces(m.faces)
}

// Role returns a copy of the members of a set.
func (m *MockStore) Role(set database.RoleSet) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.roles[set])
}

// LoadFaces returns a copy of the stored faces
func (m *MockStore) LoadFaces(ctx context.Context) (map[string]facematch.Vector, error) {
	if m.LoadFacesError != nil {
		return nil, m.LoadFacesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneFaces(m.faces), nil
}

// SaveFaces replaces the stored faces
func (m *MockStore) SaveFaces(ctx context.Context, faces map[string]facematch.Vector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveFacesCalls++
	if m.SaveFacesError != nil {
		return m.SaveFacesError
	}
	m.faces = cloneFaces(faces)
	return nil
}

// LoadRole returns the sorted members of a role set
func (m *MockStore) LoadRole(ctx context.Context, set database.RoleSet) ([]string, error) {
	if _, err := set.Key(); err != nil {
		return nil, err
	}
	if m.LoadRoleError != nil {
		return nil, m.LoadRoleError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := slices.Clone(m.roles[set])
	slices.Sort(names)
	return names, nil
}

// SaveRole replaces the members of a role set
func (m *MockStore) SaveRole(ctx context.Context, set database.RoleSet, names []string) error {
	if _, err := set.Key(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveRoleCalls++
	if m.SaveRoleError != nil {
		return m.SaveRoleError
	}
	m.roles[set] = slices.Clone(names)
	return nil
}

// Close marks the store closed
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return m.CloseError
}

func cloneFaces(faces map[string]facematch.Vector) map[string]facematch.Vector {
	out := make(map[string]facematch.Vector, len(faces))
	for name, v := range faces {
		out[name] = v.Clone()
	}
	return out
}
