package dispatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hwerrors "github.com/hostwatch/hostwatch/internal/errors"
	"github.com/hostwatch/hostwatch/internal/store"
)

func newTestBackend(t *testing.T) *store.Ephemeral {
	t.Helper()
	b := store.NewEphemeral()
	require.NoError(t, b.SetUp())
	t.Cleanup(func() { _ = b.TearDown() })
	return b
}

func TestCall_Get(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.Put("queries", "k1", "v1"))

	resp, err := Call(b, Request{"action": "get", "domain": "queries", "key": "k1"})
	require.NoError(t, err)
	assert.Equal(t, Response{{"v": "v1"}}, resp)
}

func TestCall_GetAbsentKey(t *testing.T) {
	b := newTestBackend(t)

	// Absent and empty values are indistinguishable at this layer.
	resp, err := Call(b, Request{"action": "get", "domain": "queries", "key": "nope"})
	require.NoError(t, err)
	assert.Equal(t, Response{{"v": ""}}, resp)
}

func TestCall_PutAndRemove(t *testing.T) {
	b := newTestBackend(t)

	resp, err := Call(b, Request{"action": "put", "domain": "d", "key": "k", "value": "v"})
	require.NoError(t, err)
	assert.Empty(t, resp)

	v, _ := b.Get("d", "k")
	assert.Equal(t, "v", v)

	_, err = Call(b, Request{"action": "remove", "domain": "d", "key": "k"})
	require.NoError(t, err)
	v, _ = b.Get("d", "k")
	assert.Equal(t, "", v)
}

func TestCall_PutWithoutValue(t *testing.T) {
	b := newTestBackend(t)

	_, err := Call(b, Request{"action": "put", "domain": "d", "key": "k"})
	require.Error(t, err)
	assert.Equal(t, hwerrors.CodeMissingValue, hwerrors.GetCode(err))

	// Hard error with no side effect.
	keys, _ := b.Scan("d", "", 0)
	assert.Empty(t, keys)
}

func TestCall_Scan(t *testing.T) {
	b := newTestBackend(t)
	for _, key := range []string{"q.1", "q.2", "q.3", "other"} {
		require.NoError(t, b.Put("queries", key, "x"))
	}

	resp, err := Call(b, Request{"action": "scan", "domain": "queries", "prefix": "q."})
	require.NoError(t, err)
	assert.Equal(t, Response{{"k": "q.1"}, {"k": "q.2"}, {"k": "q.3"}}, resp)

	resp, err = Call(b, Request{"action": "scan", "domain": "queries", "prefix": "q.", "max": "2"})
	require.NoError(t, err)
	assert.Len(t, resp, 2)

	// max "0" means unbounded.
	resp, err = Call(b, Request{"action": "scan", "domain": "queries", "prefix": "", "max": "0"})
	require.NoError(t, err)
	assert.Len(t, resp, 4)
}

func TestCall_ScanInvalidMax(t *testing.T) {
	b := newTestBackend(t)

	for _, max := range []string{"abc", "-1", "1.5"} {
		_, err := Call(b, Request{"action": "scan", "domain": "d", "max": max})
		require.Error(t, err, max)
		assert.Equal(t, hwerrors.CodeInvalidMax, hwerrors.GetCode(err))
	}
}

func TestCall_MissingAction(t *testing.T) {
	b := newTestBackend(t)

	_, err := Call(b, Request{"domain": "d", "key": "k"})
	require.Error(t, err)
	assert.Equal(t, hwerrors.CodeMissingAction, hwerrors.GetCode(err))
}

func TestCall_UnknownAction(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.Put("d", "existing", "v"))

	resp, err := Call(b, Request{"action": "bogus"})
	require.Error(t, err)
	assert.Empty(t, resp)
	assert.Equal(t, hwerrors.CodeUnknownAction, hwerrors.GetCode(err))
	assert.Equal(t, hwerrors.ErrCategoryProtocol, hwerrors.GetCategory(err))

	// No side effect on the store.
	keys, _ := b.Scan("d", "", 0)
	assert.Equal(t, []string{"existing"}, keys)
}

func TestCall_BackendErrorPropagates(t *testing.T) {
	b := store.NewEphemeral()
	// Not set up: the ephemeral backend still serves zero values, so use a
	// failing wrapper instead.
	failing := &failingBackend{Ephemeral: b}
	_ = b.SetUp()

	_, err := Call(failing, Request{"action": "get", "domain": "d", "key": "k"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBoom), "backend errors must propagate unchanged")
}

var errBoom = errors.New("boom")

// failingBackend fails every data operation.
type failingBackend struct {
	*store.Ephemeral
}

func (f *failingBackend) Get(domain, key string) (string, error) { return "", errBoom }
func (f *failingBackend) Put(domain, key, value string) error    { return errBoom }
func (f *failingBackend) Remove(domain, key string) error        { return errBoom }
func (f *failingBackend) Scan(domain, prefix string, max int) ([]string, error) {
	return nil, errBoom
}
