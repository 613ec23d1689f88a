// Package store defines the pluggable key-value backend contract, the
// baseline storage domains, and the registry that tracks which named
// backend is active.
package store

// Baseline storage domains. A domain is a named logical partition of the
// key-value store; backends may host additional domains beyond these.
const (
	// DomainPersistentSettings holds configuration settings.
	DomainPersistentSettings = "configurations"

	// DomainQueries holds scheduled-query metadata.
	DomainQueries = "queries"

	// DomainEvents holds event state.
	DomainEvents = "events"

	// DomainLogs holds log state.
	DomainLogs = "logs"
)

// Domains lists the baseline domains every backend hosts.
var Domains = []string{
	DomainPersistentSettings,
	DomainQueries,
	DomainEvents,
	DomainLogs,
}

// Backend is the capability set every pluggable key-value engine
// implements. All operations are synchronous and blocking; concurrent
// correctness of storage mutations is the backend's own responsibility.
type Backend interface {
	// Name returns the backend's registry name.
	Name() string

	// SetUp opens the backend's resources. It must be safe to call again
	// after TearDown.
	SetUp() error

	// TearDown closes the backend's resources.
	TearDown() error

	// Get returns the value stored under domain/key. An absent key yields
	// an empty value and no error; absence and an empty stored value are
	// not distinguished at this layer.
	Get(domain, key string) (string, error)

	// Put stores value under domain/key, overwriting any existing value.
	Put(domain, key, value string) error

	// Remove deletes the value stored under domain/key. Removing an
	// absent key is not an error.
	Remove(domain, key string) error

	// Scan returns the keys in domain that start with prefix, in the
	// backend's storage order. max caps the number of returned keys;
	// zero scans without bound.
	Scan(domain, prefix string, max int) ([]string, error)
}

// ReadOnlyReporter is implemented by backends that may open without write
// access. CheckDB consults it when a write-required mode is configured.
type ReadOnlyReporter interface {
	ReadOnly() bool
}

// Reset recovers a locked or corrupted backend by closing and reopening
// its resources.
func Reset(b Backend) error {
	if err := b.TearDown(); err != nil {
		return err
	}
	return b.SetUp()
}
