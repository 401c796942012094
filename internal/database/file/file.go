// Package file stores a namespace as a directory of JSON records on local disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/kozaktomas/caregiver-faces/internal/config"
	"github.com/kozaktomas/caregiver-faces/internal/database"
	"github.com/kozaktomas/caregiver-faces/internal/facematch"
)

// Store keeps every record of a namespace in <dir>/<namespace>/<key>.json.
// Records are replaced with a write to a temporary file followed by a rename,
// so a reader sees either the previous or the new content.
type Store struct {
	mu  sync.Mutex
	dir string
}

var _ database.Store = (*Store)(nil)

// New creates the namespace directory if needed.
func New(dir, namespace string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store path is required")
	}
	if namespace == "" {
		namespace = database.DefaultNamespace
	}
	path := filepath.Join(dir, namespace)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Store{dir: path}, nil
}

// Dir returns the namespace directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Store) read(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (s *Store) write(key string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// LoadFaces reads the face gallery.
func (s *Store) LoadFaces(ctx context.Context) (map[string]facematch.Vector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read(database.KeyFaces)
	if err != nil {
		return nil, err
	}
	return database.DecodeFaces(data)
}

// SaveFaces replaces the face gallery.
func (s *Store) SaveFaces(ctx context.Context, faces map[string]facematch.Vector) error {
	data, err := database.EncodeFaces(faces)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(database.KeyFaces, data)
}

// LoadRole reads the members of a role set.
func (s *Store) LoadRole(ctx context.Context, set database.RoleSet) ([]string, error) {
	key, err := set.Key()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read(key)
	if err != nil {
		return nil, err
	}
	return database.DecodeNames(data)
}

// SaveRole replaces the members of a role set.
func (s *Store) SaveRole(ctx context.Context, set database.RoleSet, names []string) error {
	key, err := set.Key()
	if err != nil {
		return err
	}
	data, err := database.EncodeNames(names)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(key, data)
}

// Close is a no-op; the store holds no open handles.
func (s *Store) Close() error {
	return nil
}

func init() {
	database.RegisterBackend("file", func(ctx context.Context, cfg *config.Config) (database.Store, error) {
		return New(cfg.Store.Path, cfg.Store.Namespace)
	})
}
