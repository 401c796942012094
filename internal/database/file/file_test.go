package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozaktomas/caregiver-faces/internal/database"
	"github.com/kozaktomas/caregiver-faces/internal/facematch"
)

func TestStore_MissingRecordsAreEmpty(t *testing.T) {
	s, err := New(t.TempDir(), "")
	require.NoError(t, err)

	faces, err := s.LoadFaces(context.Background())
	require.NoError(t, err)
	assert.Empty(t, faces)

	names, err := s.LoadRole(context.Background(), database.CaregiverSet)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStore_FacesRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(dir, "gallery")
	require.NoError(t, err)

	faces := map[string]facematch.Vector{
		"Alice": {0.25, -0.5, 0.125},
		"Bob":   {1.5, 0, -2},
	}
	require.NoError(t, s.SaveFaces(ctx, faces))

	// A second store over the same directory sees the persisted data.
	reopened, err := New(dir, "gallery")
	require.NoError(t, err)
	got, err := reopened.LoadFaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, faces, got)

	entries, err := os.ReadDir(filepath.Join(dir, "gallery"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "temporary file left behind")
	}
}

func TestStore_RoleSetsAreIndependent(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir(), "")
	require.NoError(t, err)

	require.NoError(t, s.SaveRole(ctx, database.CaregiverSet, []string{"Carol"}))
	require.NoError(t, s.SaveRole(ctx, database.PatientSet, []string{"Paul", "Pat"}))

	caregivers, err := s.LoadRole(ctx, database.CaregiverSet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Carol"}, caregivers)

	patients, err := s.LoadRole(ctx, database.PatientSet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pat", "Paul"}, patients)

	faces, err := s.LoadFaces(ctx)
	require.NoError(t, err)
	assert.Empty(t, faces)
}

func TestStore_CorruptRecord(t *testing.T) {
	s, err := New(t.TempDir(), "")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), database.KeyFaces+".json"), []byte("{not json"), 0o644))

	_, err = s.LoadFaces(context.Background())
	assert.ErrorIs(t, err, database.ErrCorrupt)
}

func TestStore_UnknownRoleSet(t *testing.T) {
	s, err := New(t.TempDir(), "")
	require.NoError(t, err)

	_, err = s.LoadRole(context.Background(), database.RoleSet("family"))
	assert.ErrorIs(t, err, database.ErrUnknownRoleSet)
	assert.ErrorIs(t, s.SaveRole(context.Background(), database.RoleSet("family"), nil), database.ErrUnknownRoleSet)
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New("", "x")
	assert.Error(t, err)
}
