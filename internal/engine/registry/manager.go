// Package registry holds the package handlers built by the bootstrap.
package registry

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/zerr"
)

// Manager is a name-keyed collection of package handlers.
type Manager struct {
	mu       sync.RWMutex
	packages map[string]*domain.PackageHandler
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{packages: make(map[string]*domain.PackageHandler)}
}

// Add registers h. A handler with the same name is replaced.
func (m *Manager) Add(h *domain.PackageHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packages[h.Name] = h
}

// Get returns the handler registered under name.
func (m *Manager) Get(name string) (*domain.PackageHandler, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.packages[name]
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrPackageNotFound, "package is not registered"), "package", name)
	}
	return h, nil
}

// List returns the handlers of type typ sorted by name. An empty typ matches every handler.
func (m *Manager) List(typ domain.PackageType) []*domain.PackageHandler {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.PackageHandler, 0, len(m.packages))
	for _, h := range m.packages {
		if typ == "" || h.Type == typ {
			out = append(out, h)
		}
	}
	slices.SortFunc(out, func(a, b *domain.PackageHandler) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

var defaultManager atomic.Pointer[Manager]

// SetDefault installs m as the process-wide registry. A nil m clears it.
func SetDefault(m *Manager) {
	defaultManager.Store(m)
}

// Default returns the process-wide registry.
func Default() (*Manager, error) {
	m := defaultManager.Load()
	if m == nil {
		return nil, domain.ErrRegistryNotInitialized
	}
	return m, nil
}
