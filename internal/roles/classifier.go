package roles

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

// Assignment is the role given to a matched name.
type Assignment struct {
	Name       string
	Confidence float64
	Role       Role
}

// Registrar stores a face embedding under a name.
type Registrar interface {
	Register(ctx context.Context, name string, embedding facematch.Vector) error
}

type nameSet map[string]struct{}

// Classifier keeps the caregiver and patient sets. Anyone recognized who is in
// neither set is treated as family.
type Classifier struct {
	store     database.RoleWriter
	registrar Registrar
	logger    *slog.Logger

	writeMu sync.Mutex

	mu   sync.RWMutex
	sets map[database.RoleSet]nameSet
}

// Open loads both role sets. A corrupt set is logged and treated as empty.
func Open(ctx context.Context, store database.RoleWriter, registrar Registrar, logger *slog.Logger) (*Classifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Classifier{
		store:     store,
		registrar: registrar,
		logger:    logger,
		sets:      make(map[database.RoleSet]nameSet, 2),
	}

	for _, set := range []database.RoleSet{database.CaregiverSet, database.PatientSet} {
		names, err := store.LoadRole(ctx, set)
		switch {
		case errors.Is(err, database.ErrCorrupt):
			logger.Warn("stored role set is corrupt, starting empty", "set", set, "error", err)
			names = nil
		case err != nil:
			return nil, fmt.Errorf("load %s: %w", set, err)
		}

		members := make(nameSet, len(names))
		for _, n := range names {
			members[n] = struct{}{}
		}
		c.sets[set] = members
	}

	logger.Info("role sets loaded",
		"caregivers", len(c.sets[database.CaregiverSet]),
		"patients", len(c.sets[database.PatientSet]))
	return c, nil
}

// Classify assigns a role to a matched name. Caregivers take precedence over
// patients. The placeholder name for an unrecognized face always maps to
// Unknown with zero confidence.
func (c *Classifier) Classify(name string, confidence float64) Assignment {
	if name == facematch.UnknownName {
		return Assignment{Name: facematch.UnknownName, Role: Unknown}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	role := Family
	if _, ok := c.sets[database.CaregiverSet][name]; ok {
		role = Caregiver
	} else if _, ok := c.sets[database.PatientSet][name]; ok {
		role = Patient
	}
	return Assignment{Name: name, Confidence: confidence, Role: role}
}

// AddCaregiver registers the face and records the person as a caregiver.
func (c *Classifier) AddCaregiver(ctx context.Context, name string, embedding facematch.Vector) error {
	return c.add(ctx, database.CaregiverSet, name, embedding)
}

// AddPatient registers the face and records the person as a patient.
func (c *Classifier) AddPatient(ctx context.Context, name string, embedding facematch.Vector) error {
	return c.add(ctx, database.PatientSet, name, embedding)
}

// add registers the embedding first and then persists the updated set.
// If the set cannot be persisted the in-memory set is left as it was; the
// face stays registered and the person will classify as family.
func (c *Classifier) add(ctx context.Context, set database.RoleSet, name string, embedding facematch.Vector) error {
	name, err := facematch.NormalizeName(name)
	if err != nil {
		return err
	}
	if err := c.registrar.Register(ctx, name, embedding); err != nil {
		return fmt.Errorf("register face: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	next := c.copySet(set)
	next[name] = struct{}{}
	if err := c.save(ctx, set, next); err != nil {
		return err
	}

	c.logger.Debug("role assigned", "name", name, "set", set)
	return nil
}

// RemoveRole drops name from both role sets. It reports whether the name was
// a member of either.
func (c *Classifier) RemoveRole(ctx context.Context, name string) (bool, error) {
	if normalized, err := facematch.NormalizeName(name); err == nil {
		name = normalized
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	removed := false
	for _, set := range []database.RoleSet{database.CaregiverSet, database.PatientSet} {
		next := c.copySet(set)
		if _, ok := next[name]; !ok {
			continue
		}
		delete(next, name)
		if err := c.save(ctx, set, next); err != nil {
			return removed, err
		}
		removed = true
	}
	return removed, nil
}

// RolesOf lists every set name belongs to, caregiver first.
func (c *Classifier) RolesOf(name string) []Role {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Role
	if _, ok := c.sets[database.CaregiverSet][name]; ok {
		out = append(out, Caregiver)
	}
	if _, ok := c.sets[database.PatientSet][name]; ok {
		out = append(out, Patient)
	}
	return out
}

// Caregivers returns the caregiver names in ascending order.
func (c *Classifier) Caregivers() []string {
	return c.members(database.CaregiverSet)
}

// Patients returns the patient names in ascending order.
func (c *Classifier) Patients() []string {
	return c.members(database.PatientSet)
}

func (c *Classifier) members(set database.RoleSet) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.sets[set]))
}

func (c *Classifier) copySet(set database.RoleSet) nameSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	next := maps.Clone(c.sets[set])
	if next == nil {
		next = make(nameSet)
	}
	return next
}

// save persists next and publishes it only on success. Callers hold writeMu.
func (c *Classifier) save(ctx context.Context, set database.RoleSet, next nameSet) error {
	if err := c.store.SaveRole(ctx, set, slices.Sorted(maps.Keys(next))); err != nil {
		return fmt.Errorf("persist %s: %w", set, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets[set] = next
	return nil
}
