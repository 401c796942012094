// Package registry holds the in-memory face gallery and keeps it in sync with
// a persistent store.
//
// Every mutation builds a new mapping, persists it and only then publishes it,
// so a failed write leaves the registry exactly as it was and concurrent
// readers always see a complete mapping.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/kozaktomas/caregiver-faces/internal/database"
	"github.com/kozaktomas/caregiver-faces/internal/facematch"
)

// Snapshot is an immutable view of the registry at one revision.
// Entries are sorted by name and must not be modified.
type Snapshot struct {
	Entries  []facematch.Entry
	Revision uint64
}

// Registry maps person names to face embeddings.
type Registry struct {
	store  database.FaceWriter
	dim    int
	logger *slog.Logger

	writeMu sync.Mutex // serializes Register, Delete and DeleteAll

	mu       sync.RWMutex
	faces    map[string]facematch.Vector
	snapshot Snapshot
}

// Open loads the persisted gallery. A missing record gives an empty registry,
// a corrupt one is logged and replaced by an empty registry, and entries with
// the wrong dimensionality are dropped. Any other load error is returned.
func Open(ctx context.Context, store database.FaceWriter, dim int, logger *slog.Logger) (*Registry, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}
	if logger == nil {
		logger = slog.Default()
	}

	faces, err := store.LoadFaces(ctx)
	switch {
	case errors.Is(err, database.ErrCorrupt):
		logger.Warn("stored face registry is corrupt, starting empty", "error", err)
		faces = nil
	case err != nil:
		return nil, fmt.Errorf("load faces: %w", err)
	}

	loaded := make(map[string]facematch.Vector, len(faces))
	for name, v := range faces {
		if err := facematch.CheckDim(v, dim); err != nil {
			logger.Warn("dropping stored face with wrong dimension", "name", name, "error", err)
			continue
		}
		loaded[name] = v
	}

	r := &Registry{store: store, dim: dim, logger: logger}
	r.publish(loaded)
	logger.Info("face registry loaded", "faces", len(loaded), "dim", dim)
	return r, nil
}

// Dim returns the embedding length the registry accepts.
func (r *Registry) Dim() int {
	return r.dim
}

// publish swaps in a new mapping. Callers hold writeMu (or are in Open).
func (r *Registry) publish(faces map[string]facematch.Vector) {
	entries := facematch.SortedEntries(faces)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.faces = faces
	r.snapshot = Snapshot{Entries: entries, Revision: r.snapshot.Revision + 1}
}

// Register stores the embedding under name, replacing any previous one.
// The full mapping is persisted before Register returns.
func (r *Registry) Register(ctx context.Context, name string, embedding facematch.Vector) error {
	name, err := facematch.NormalizeName(name)
	if err != nil {
		return err
	}
	if err := facematch.CheckDim(embedding, r.dim); err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	next := r.current()
	next[name] = embedding.Clone()
	if err := r.store.SaveFaces(ctx, next); err != nil {
		return fmt.Errorf("persist faces: %w", err)
	}
	r.publish(next)

	r.logger.Debug("face registered", "name", name, "faces", len(next))
	return nil
}

// Delete removes name. It reports false without touching the store when the
// name is not registered.
func (r *Registry) Delete(ctx context.Context, name string) (bool, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	next := r.current()
	key, ok := resolve(next, name)
	if !ok {
		return false, nil
	}
	delete(next, key)
	if err := r.store.SaveFaces(ctx, next); err != nil {
		return false, fmt.Errorf("persist faces: %w", err)
	}
	r.publish(next)

	r.logger.Debug("face deleted", "name", key, "faces", len(next))
	return true, nil
}

// DeleteAll removes every registered face and returns how many were removed.
func (r *Registry) DeleteAll(ctx context.Context) (int, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	count := r.Count()
	if count == 0 {
		return 0, nil
	}
	next := make(map[string]facematch.Vector)
	if err := r.store.SaveFaces(ctx, next); err != nil {
		return 0, fmt.Errorf("persist faces: %w", err)
	}
	r.publish(next)

	r.logger.Info("all faces deleted", "deleted", count)
	return count, nil
}

// current returns a shallow copy of the published mapping. Vectors are never
// mutated after publication so sharing them is safe.
func (r *Registry) current() map[string]facematch.Vector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.faces)
}

// resolve finds the stored key for name, trying the raw value before the
// normalized one so entries written by older versions stay reachable.
func resolve(faces map[string]facematch.Vector, name string) (string, bool) {
	if _, ok := faces[name]; ok {
		return name, true
	}
	normalized, err := facematch.NormalizeName(name)
	if err != nil {
		return "", false
	}
	_, ok := faces[normalized]
	return normalized, ok
}

// Lookup returns a copy of the embedding stored under name.
func (r *Registry) Lookup(name string) (facematch.Vector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := resolve(r.faces, name)
	if !ok {
		return nil, false
	}
	return r.faces[key].Clone(), true
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := resolve(r.faces, name)
	return ok
}

// Names returns the registered names in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.snapshot.Entries))
	for i, e := range r.snapshot.Entries {
		names[i] = e.Name
	}
	return names
}

// Count returns the number of registered faces.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.faces)
}

// Entries returns the registered faces sorted by name.
func (r *Registry) Entries() []facematch.Entry {
	return slices.Clone(r.Snapshot().Entries)
}

// Snapshot returns the current immutable view.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Revision increases by one on every published change.
func (r *Registry) Revision() uint64 {
	return r.Snapshot().Revision
}
