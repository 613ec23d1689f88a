package store

import (
	"sort"
	"strings"
	"sync"
)

// Ephemeral is the in-memory backend. It serves processes running with
// persistence disabled and doubles as the test backend. Contents are lost
// on teardown.
type Ephemeral struct {
	mu      sync.RWMutex
	domains map[string]map[string]string
}

// NewEphemeral creates an ephemeral backend. SetUp must be called before
// use, matching the lifecycle of the persistent backends.
func NewEphemeral() *Ephemeral {
	return &Ephemeral{}
}

func (e *Ephemeral) Name() string { return EphemeralBackend }

func (e *Ephemeral) SetUp() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.domains = make(map[string]map[string]string)
	return nil
}

func (e *Ephemeral) TearDown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.domains = nil
	return nil
}

func (e *Ephemeral) Get(domain, key string) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.domains[domain][key], nil
}

func (e *Ephemeral) Put(domain, key, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.domains == nil {
		e.domains = make(map[string]map[string]string)
	}
	d, exists := e.domains[domain]
	if !exists {
		d = make(map[string]string)
		e.domains[domain] = d
	}
	d[key] = value
	return nil
}

func (e *Ephemeral) Remove(domain, key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.domains[domain], key)
	return nil
}

// Scan returns matching keys in sorted order so results are deterministic
// across calls, mirroring the ordered iteration of the persistent
// backends.
func (e *Ephemeral) Scan(domain, prefix string, max int) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	keys := make([]string, 0, len(e.domains[domain]))
	for key := range e.domains[domain] {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	if max > 0 && len(keys) > max {
		keys = keys[:max]
	}
	return keys, nil
}
