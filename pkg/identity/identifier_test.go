package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/fides/pkg/fcrypto"
)

func TestDeriveParseRoundTrip(t *testing.T) {
	kp, err := fcrypto.GenerateKeyPair()
	require.NoError(t, err)

	did, err := Derive(kp.PublicKey)
	require.NoError(t, err)
	assert.Contains(t, did, Prefix)

	pub, err := Parse(did)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey, pub)
}

func TestParseRejectsBadInput(t *testing.T) {
	_, err := Parse("not-a-did")
	assert.Error(t, err)

	_, err = Parse("did:fides:0OIl") // invalid base58 chars
	assert.Error(t, err)

	kp, _ := fcrypto.GenerateKeyPair()
	short, _ := Derive(kp.PublicKey[:16])
	_ = short // Derive itself rejects short keys below

	_, err = Derive(kp.PublicKey[:16])
	assert.Error(t, err)
}

func TestIsValid(t *testing.T) {
	kp, err := fcrypto.GenerateKeyPair()
	require.NoError(t, err)
	did, err := Derive(kp.PublicKey)
	require.NoError(t, err)

	assert.True(t, IsValid(did))
	assert.False(t, IsValid("garbage"))
}
