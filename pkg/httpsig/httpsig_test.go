package httpsig

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/fides/pkg/fcrypto"
)

type mapNonceStore struct {
	seen map[string]bool
}

func newMapNonceStore() *mapNonceStore {
	return &mapNonceStore{seen: make(map[string]bool)}
}

func (m *mapNonceStore) Check(nonce string) bool {
	if m.seen[nonce] {
		return false
	}
	m.seen[nonce] = true
	return true
}

func newSignedRequest(t *testing.T, kp *fcrypto.KeyPair, keyID string, body []byte) *http.Request {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(http.MethodPost, "https://agent.example.com/v1/trust", bytes.NewReader(body))
	} else {
		req, err = http.NewRequest(http.MethodGet, "https://agent.example.com/v1/trust/a/b", nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	require.NoError(t, Sign(req, kp.Seed, &SignOptions{KeyID: keyID}))
	return req
}

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := fcrypto.GenerateKeyPair()
	require.NoError(t, err)

	req := newSignedRequest(t, kp, "did:fides:test", []byte(`{"x":1}`))
	result := Verify(req, kp.PublicKey, nil)
	assert.True(t, result.Valid)
	assert.Equal(t, "did:fides:test", result.KeyID)
}

func TestVerifyRejectsMutatedComponent(t *testing.T) {
	kp, err := fcrypto.GenerateKeyPair()
	require.NoError(t, err)

	req := newSignedRequest(t, kp, "did:fides:test", nil)
	req.Method = http.MethodPost // mutate a signed component after signing

	result := Verify(req, kp.PublicKey, nil)
	assert.False(t, result.Valid)
}

func TestVerifyRejectsTamperedBodyWithStaleDigest(t *testing.T) {
	kp, err := fcrypto.GenerateKeyPair()
	require.NoError(t, err)

	req := newSignedRequest(t, kp, "did:fides:test", []byte(`{"x":1}`))
	// Tamper the body without refreshing Content-Digest.
	req.Body = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{"x":2}`))).Body

	result := Verify(req, kp.PublicKey, nil)
	assert.False(t, result.Valid)
}

func TestVerifyDetectsReplay(t *testing.T) {
	kp, err := fcrypto.GenerateKeyPair()
	require.NoError(t, err)

	req := newSignedRequest(t, kp, "did:fides:test", nil)
	store := newMapNonceStore()

	first := Verify(req, kp.PublicKey, &VerifyOptions{NonceStore: store})
	assert.True(t, first.Valid)

	second := Verify(req, kp.PublicKey, &VerifyOptions{NonceStore: store})
	assert.False(t, second.Valid)
	assert.Equal(t, "replay detected", second.Error)
}

func TestVerifyRejectsExpiredSignature(t *testing.T) {
	kp, err := fcrypto.GenerateKeyPair()
	require.NoError(t, err)

	req := newSignedRequest(t, kp, "did:fides:test", nil)

	old := nowFunc
	nowFunc = func() int64 { return old() + 1000 }
	defer func() { nowFunc = old }()

	result := Verify(req, kp.PublicKey, nil)
	assert.False(t, result.Valid)
	assert.Equal(t, "signature expired", result.Error)
}

func TestVerifyRejectsMissingHeaders(t *testing.T) {
	kp, err := fcrypto.GenerateKeyPair()
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, "https://agent.example.com/x", nil)
	require.NoError(t, err)

	result := Verify(req, kp.PublicKey, nil)
	assert.False(t, result.Valid)
	assert.Equal(t, "missing signature", result.Error)
}

func TestVerifyRejectsWrongPublicKeyLength(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://agent.example.com/x", nil)
	require.NoError(t, err)
	req.Header.Set("Signature-Input", `sig1=("@method");created=1;expires=301;keyid="x";alg="ed25519"`)
	req.Header.Set("Signature", "sig1=:AAAA:")

	result := Verify(req, []byte("short"), nil)
	assert.False(t, result.Valid)
	assert.Equal(t, "invalid public key length", result.Error)
}
