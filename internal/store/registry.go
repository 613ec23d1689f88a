package store

import (
	"log/slog"
	"sort"
	"sync"

	hwerrors "github.com/hostwatch/hostwatch/internal/errors"
)

// Backend registry names.
const (
	// DefaultBackend is the compiled-in persistent backend.
	DefaultBackend = "bolt"

	// EphemeralBackend is the no-op in-memory backend selected when
	// persistence is disabled.
	EphemeralBackend = "ephemeral"
)

// Registry is the named-instance lookup table of known backends. Exactly
// one backend is active at a time; it serves every storage operation for
// the process.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
	active   string
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register adds a backend under its name. Registering two backends with
// the same name is an error.
func (r *Registry) Register(b Backend) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := b.Name()
	if _, exists := r.backends[name]; exists {
		return hwerrors.New(hwerrors.ErrCategoryConfig, hwerrors.CodeInvalidConfig,
			"backend already registered: "+name)
	}
	r.backends[name] = b
	return nil
}

// SetActive marks the named backend active and opens its resources. Any
// previously active backend stays registered but no longer serves
// operations.
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, exists := r.backends[name]
	if !exists {
		return hwerrors.NewBackendError(hwerrors.CodeBackendUnavailable,
			"unknown backend: "+name, nil)
	}
	if err := b.SetUp(); err != nil {
		return hwerrors.NewBackendError(hwerrors.CodeBackendIO,
			"failed to open backend "+name, err)
	}
	r.active = name
	slog.Info("active storage backend set", "backend", name)
	return nil
}

// Active returns the currently active backend.
func (r *Registry) Active() (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.active == "" {
		return nil, hwerrors.NewBackendError(hwerrors.CodeBackendUnavailable,
			"no active storage backend", nil)
	}
	return r.backends[r.active], nil
}

// ActiveName returns the name of the active backend, or the empty string
// when none is active.
func (r *Registry) ActiveName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Names returns the registered backend names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Remove tears down and deregisters the named backend. Removing an
// unknown name is a no-op.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(name)
}

func (r *Registry) removeLocked(name string) error {
	b, exists := r.backends[name]
	if !exists {
		return nil
	}
	delete(r.backends, name)
	if r.active == name {
		r.active = ""
	}
	if err := b.TearDown(); err != nil {
		return hwerrors.NewBackendError(hwerrors.CodeBackendIO,
			"failed to close backend "+name, err)
	}
	return nil
}

// Shutdown tears down and deregisters every backend in deterministic
// (sorted) order so the process can exit cleanly. The first teardown
// failure is reported; remaining backends are still deregistered.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)

	var firstErr error
	for _, name := range names {
		if err := r.removeLocked(name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ActiveBackendName resolves which backend Initialize-time selection
// should activate: the no-op in-memory backend when persistence is
// disabled, the compiled-in default otherwise, unless the configuration
// names a specific backend.
func ActiveBackendName(disabled bool, configured string) string {
	if disabled {
		return EphemeralBackend
	}
	if configured != "" {
		return configured
	}
	return DefaultBackend
}
