package fcrypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndSignVerify(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	require.Len(t, kp.PublicKey, PublicKeySize)
	require.Len(t, kp.Seed, PrivateSeedSize)

	msg := []byte("hello fides")
	sig, err := Sign(msg, kp.Seed)
	require.NoError(t, err)

	ok, err := Verify(msg, sig, kp.PublicKey)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify([]byte("tampered"), sig, kp.PublicKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyRejectsMalformedInput(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	_, err = Verify([]byte("x"), []byte("short"), kp.PublicKey)
	assert.Error(t, err)

	_, err = Verify([]byte("x"), make([]byte, SignatureSize), []byte("short-key"))
	assert.Error(t, err)
}

func TestFromSeedRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	kp2, err := FromSeed(kp.Seed)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey, kp2.PublicKey)
}

func TestBase58RoundTrip(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 255, 0, 0}
	encoded := Base58Encode(data)
	decoded, err := Base58Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual([]byte("abc"), []byte("abc")))
	assert.False(t, ConstantTimeEqual([]byte("abc"), []byte("abd")))
	assert.False(t, ConstantTimeEqual([]byte("abc"), []byte("ab")))
}
