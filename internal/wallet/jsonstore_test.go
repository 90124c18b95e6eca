package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wallets.json")
	store := NewJSONStore(path)

	minter := &Wallet{
		Name:      "minter",
		Address:   testSignerAddr,
		Type:      TypeSigning,
		KeyRef:    "nftmint.minter",
		IsDefault: true,
		CreatedAt: "2026-01-01T00:00:00Z",
	}
	treasury := &Wallet{Name: "treasury", Address: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", Type: TypeWatchOnly}
	require.NoError(t, store.Save([]*Wallet{minter, treasury}))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, *minter, *loaded[0])
	assert.Equal(t, *treasury, *loaded[1])

	info, err := os.Stat(path)
	require.NoError(t, err)
	if info.Mode().Perm() != 0 { // Unix only
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestJSONStoreSaveOverwrites(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "wallets.json"))
	require.NoError(t, store.Save([]*Wallet{{Name: "old", Address: "0x111"}}))
	require.NoError(t, store.Save([]*Wallet{{Name: "minter", Address: testSignerAddr}}))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "minter", loaded[0].Name)
}

func TestJSONStoreLoad(t *testing.T) {
	dir := t.TempDir()

	wallets, err := NewJSONStore(filepath.Join(dir, "missing.json")).Load()
	require.NoError(t, err)
	assert.Nil(t, wallets, "a missing file is an empty store")

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{not valid json"), 0o600))
	_, err = NewJSONStore(corrupt).Load()
	assert.Error(t, err)
}
