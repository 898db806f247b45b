package cas_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/nixplan/internal/adapters/cas"
)

func TestStore_PutAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checksums.json")

	store, err := cas.NewStore(path)
	require.NoError(t, err)

	key := "https://github.com/acme/leftpad.git#0a1b2c3"
	require.NoError(t, store.Put(key, "sha256-abc"))

	got, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "sha256-abc", got)
}

func TestStore_GetAbsentReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checksums.json")

	store, err := cas.NewStore(path)
	require.NoError(t, err)

	got, err := store.Get("https://example.com/missing.git#deadbeef")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "checksums.json")

	store1, err := cas.NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store1.Put("url#rev", "sha256-xyz"))

	store2, err := cas.NewStore(path)
	require.NoError(t, err)

	got, err := store2.Get("url#rev")
	require.NoError(t, err)
	assert.Equal(t, "sha256-xyz", got)
}

func TestStore_CorruptFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checksums.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := cas.NewStore(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal checksum store")
}

func TestStore_EmptyFileIsValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checksums.json")
	require.NoError(t, os.WriteFile(path, []byte{}, 0o600))

	store, err := cas.NewStore(path)
	require.NoError(t, err)

	got, err := store.Get("anything")
	require.NoError(t, err)
	assert.Empty(t, got)
}
