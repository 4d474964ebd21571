package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSetGetRoundtrip(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Set("activity_log", []byte(`[{"id":"a1"}]`)))

	value, err := store.Get("activity_log")
	require.NoError(t, err)
	require.Equal(t, `[{"id":"a1"}]`, string(value))
}

func TestSetReplacesExistingValue(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Set("k", []byte("old")))
	require.NoError(t, store.Set("k", []byte("new")))

	value, err := store.Get("k")
	require.NoError(t, err)
	require.Equal(t, "new", string(value))
}

func TestGetMissingKey(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get("missing")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Set("k", []byte("v")))
	require.NoError(t, store.Delete("k"))
	require.NoError(t, store.Delete("k"))

	_, err := store.Get("k")
	require.ErrorIs(t, err, ErrKeyNotFound)
}
