package database

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/kozaktomas/caregiver-faces/internal/config"
)

// Opener creates a Store from the application configuration.
type Opener func(ctx context.Context, cfg *config.Config) (Store, error)

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]Opener)
)

// RegisterBackend makes a store backend available under name.
// Backend packages call it from init to avoid import cycles.
func RegisterBackend(name string, open Opener) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if open == nil {
		panic("database: RegisterBackend opener is nil")
	}
	if _, dup := backends[name]; dup {
		panic("database: RegisterBackend called twice for " + name)
	}
	backends[name] = open
}

// Backends returns the registered backend names in ascending order.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Open creates the store selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	backendsMu.RLock()
	open, ok := backends[cfg.Store.Backend]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store backend %q is not registered (available: %v)", cfg.Store.Backend, Backends())
	}

	store, err := open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	return store, nil
}
