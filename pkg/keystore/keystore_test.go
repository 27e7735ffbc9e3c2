package keystore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/fides/pkg/fcrypto"
	"github.com/sage-x-project/fides/pkg/identity"
)

func TestMemorySaveLoadRoundTrip(t *testing.T) {
	kp, err := fcrypto.GenerateKeyPair()
	require.NoError(t, err)
	did, err := identity.Derive(kp.PublicKey)
	require.NoError(t, err)

	ks := NewMemory()
	require.NoError(t, ks.Save(did, kp))

	loaded, err := ks.Load(did)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey, loaded.PublicKey)
	assert.Equal(t, kp.Seed, loaded.Seed)
}

func TestMemoryLoadMissing(t *testing.T) {
	ks := NewMemory()
	_, err := ks.Load("did:fides:nonexistent")
	assert.Error(t, err)
}

func TestDiskPlaintextRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ks, err := NewDisk(dir, "")
	require.NoError(t, err)

	kp, err := fcrypto.GenerateKeyPair()
	require.NoError(t, err)
	did, err := identity.Derive(kp.PublicKey)
	require.NoError(t, err)

	require.NoError(t, ks.Save(did, kp))
	loaded, err := ks.Load(did)
	require.NoError(t, err)
	assert.Equal(t, kp.Seed, loaded.Seed)
}

func TestDiskEncryptedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ks, err := NewDisk(dir, "correct horse battery staple")
	require.NoError(t, err)

	kp, err := fcrypto.GenerateKeyPair()
	require.NoError(t, err)
	did, err := identity.Derive(kp.PublicKey)
	require.NoError(t, err)

	require.NoError(t, ks.Save(did, kp))
	loaded, err := ks.Load(did)
	require.NoError(t, err)
	assert.Equal(t, kp.Seed, loaded.Seed)
}

func TestDiskEncryptedWrongPassphraseFails(t *testing.T) {
	dir := t.TempDir()
	ks, err := NewDisk(dir, "correct horse battery staple")
	require.NoError(t, err)

	kp, err := fcrypto.GenerateKeyPair()
	require.NoError(t, err)
	did, err := identity.Derive(kp.PublicKey)
	require.NoError(t, err)
	require.NoError(t, ks.Save(did, kp))

	wrongKs := &Disk{Dir: dir, Passphrase: "wrong passphrase"}
	_, err = wrongKs.Load(did)
	assert.Error(t, err)
}

func TestDiskLoadRefusesIdentifierMismatch(t *testing.T) {
	dir := t.TempDir()
	ks, err := NewDisk(dir, "")
	require.NoError(t, err)

	kp, err := fcrypto.GenerateKeyPair()
	require.NoError(t, err)
	did, err := identity.Derive(kp.PublicKey)
	require.NoError(t, err)
	require.NoError(t, ks.Save(did, kp))

	// Copy the file so it's loaded under a different identifier while
	// the stored record still claims the original DID.
	otherKp, err := fcrypto.GenerateKeyPair()
	require.NoError(t, err)
	otherDid, err := identity.Derive(otherKp.PublicKey)
	require.NoError(t, err)

	src := ks.pathFor(did)
	dst := filepath.Join(dir, filepath.Base(ks.pathFor(otherDid)))
	require.NoError(t, copyFile(src, dst))

	_, err = ks.Load(otherDid)
	assert.Error(t, err)
}
