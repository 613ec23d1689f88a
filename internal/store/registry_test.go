package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hwerrors "github.com/hostwatch/hostwatch/internal/errors"
)

// fakeBackend records lifecycle calls and can be told to misbehave.
type fakeBackend struct {
	Ephemeral
	name       string
	setUpErr   error
	panicSetUp bool
	readOnly   bool
	setUps     int
	tearDowns  int
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) SetUp() error {
	if f.panicSetUp {
		panic("backend fault during open")
	}
	f.setUps++
	if f.setUpErr != nil {
		return f.setUpErr
	}
	return f.Ephemeral.SetUp()
}

func (f *fakeBackend) TearDown() error {
	f.tearDowns++
	return f.Ephemeral.TearDown()
}

func (f *fakeBackend) ReadOnly() bool { return f.readOnly }

func TestRegistry_RegisterAndActivate(t *testing.T) {
	r := NewRegistry()
	b := &fakeBackend{name: "fake"}

	require.NoError(t, r.Register(b))
	assert.Error(t, r.Register(&fakeBackend{name: "fake"}), "duplicate names must be rejected")

	_, err := r.Active()
	require.Error(t, err, "no backend is active before SetActive")

	require.NoError(t, r.SetActive("fake"))
	assert.Equal(t, 1, b.setUps, "SetActive opens the backend")
	assert.Equal(t, "fake", r.ActiveName())

	active, err := r.Active()
	require.NoError(t, err)
	assert.Same(t, Backend(b), active)
}

func TestRegistry_SetActiveUnknown(t *testing.T) {
	r := NewRegistry()
	err := r.SetActive("missing")
	require.Error(t, err)
	assert.Equal(t, hwerrors.CodeBackendUnavailable, hwerrors.GetCode(err))
}

func TestRegistry_SetActiveOpenFailure(t *testing.T) {
	r := NewRegistry()
	b := &fakeBackend{name: "fake", setUpErr: errors.New("locked")}
	require.NoError(t, r.Register(b))

	err := r.SetActive("fake")
	require.Error(t, err)
	assert.Equal(t, "", r.ActiveName(), "a failed activation leaves no active backend")
}

func TestRegistry_Shutdown(t *testing.T) {
	r := NewRegistry()
	a := &fakeBackend{name: "a"}
	b := &fakeBackend{name: "b"}
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))
	require.NoError(t, r.SetActive("a"))

	require.NoError(t, r.Shutdown())
	assert.Equal(t, 1, a.tearDowns)
	assert.Equal(t, 1, b.tearDowns)
	assert.Empty(t, r.Names(), "shutdown deregisters all backends")
	assert.Equal(t, "", r.ActiveName())
}

func TestActiveBackendName(t *testing.T) {
	tests := []struct {
		name       string
		disabled   bool
		configured string
		want       string
	}{
		{"disabled selects ephemeral", true, "", EphemeralBackend},
		{"disabled overrides configured", true, "sqlite", EphemeralBackend},
		{"default when unconfigured", false, "", DefaultBackend},
		{"configured backend wins", false, "sqlite", "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ActiveBackendName(tt.disabled, tt.configured))
		})
	}
}
