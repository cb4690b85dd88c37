// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package store

import (
	"sync"

	xerr "github.com/excalibur-srs/excalibur/pkg/errors"
)

// Factory creates a scheduling store rooted at the given data directory.
type Factory func(dataDir string) (SchedulingStore, error)

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers a factory for a named storage backend. Backend
// packages call this from init(). This function is goroutine-safe.
func RegisterBackend(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// resolveBackend returns the effective backend name, defaulting to "sqlite".
func resolveBackend(cfg *StorageConfig) string {
	if cfg == nil || cfg.Backend == "" {
		return "sqlite"
	}
	return cfg.Backend
}

// New creates the scheduling store for the configured backend.
func New(cfg *StorageConfig, dataDir string) (SchedulingStore, error) {
	backend := resolveBackend(cfg)

	factoriesMu.RLock()
	factory, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, xerr.Errorf(xerr.CodeStoreBackendUnsupported,
			"unsupported storage backend: %q", backend)
	}

	return factory(dataDir)
}
