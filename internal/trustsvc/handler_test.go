package trustsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sage-x-project/fides/pkg/fcrypto"
	"github.com/sage-x-project/fides/pkg/httpsig"
	"github.com/sage-x-project/fides/pkg/identity"
	"github.com/sage-x-project/fides/pkg/trust"
)

func newTestServer(t *testing.T) (http.Handler, *fcrypto.KeyPair, string, string) {
	t.Helper()
	store := trust.NewMemoryStore()

	issuer, err := fcrypto.GenerateKeyPair()
	require.NoError(t, err)
	subject, err := fcrypto.GenerateKeyPair()
	require.NoError(t, err)
	issuerDID, err := identity.Derive(issuer.PublicKey)
	require.NoError(t, err)
	subjectDID, err := identity.Derive(subject.PublicKey)
	require.NoError(t, err)

	require.NoError(t, store.UpsertIdentity(context.Background(), &identity.Record{DID: issuerDID, PublicKey: issuer.PublicKey}))
	require.NoError(t, store.UpsertIdentity(context.Background(), &identity.Record{DID: subjectDID, PublicKey: subject.PublicKey}))

	engine := trust.NewEngine(store, unreachableResolver{})
	h := NewHandler(engine, store, nil, zap.NewNop())
	return h.Routes("*"), issuer, issuerDID, subjectDID
}

type unreachableResolver struct{}

func (unreachableResolver) Resolve(_ context.Context, _ string) (*identity.Record, error) {
	return nil, assert.AnError
}

func signedPayload(t *testing.T, issuer *fcrypto.KeyPair, issuerDID, subjectDID string, level int) (string, string) {
	t.Helper()
	payload := map[string]any{"issuerDid": issuerDID, "subjectDid": subjectDID, "trustLevel": level}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	sig, err := fcrypto.Sign(raw, issuer.Seed)
	require.NoError(t, err)
	return string(raw), fcrypto.HexEncode(sig)
}

func TestCreateTrustEndToEnd(t *testing.T) {
	routes, issuer, issuerDID, subjectDID := newTestServer(t)
	payload, sig := signedPayload(t, issuer, issuerDID, subjectDID, 90)

	body, _ := json.Marshal(createTrustRequest{
		IssuerDID: issuerDID, SubjectDID: subjectDID, TrustLevel: 90, Signature: sig, Payload: payload,
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/trust", bytes.NewReader(body))
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestScoreAndPathEndToEnd(t *testing.T) {
	routes, issuer, issuerDID, subjectDID := newTestServer(t)
	payload, sig := signedPayload(t, issuer, issuerDID, subjectDID, 90)
	body, _ := json.Marshal(createTrustRequest{
		IssuerDID: issuerDID, SubjectDID: subjectDID, TrustLevel: 90, Signature: sig, Payload: payload,
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/trust", bytes.NewReader(body))
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	scoreReq := httptest.NewRequest(http.MethodGet, "/v1/trust/"+subjectDID+"/score", nil)
	scoreW := httptest.NewRecorder()
	routes.ServeHTTP(scoreW, scoreReq)
	assert.Equal(t, http.StatusOK, scoreW.Code)

	pathReq := httptest.NewRequest(http.MethodGet, "/v1/trust/"+issuerDID+"/"+subjectDID, nil)
	pathW := httptest.NewRecorder()
	routes.ServeHTTP(pathW, pathReq)
	assert.Equal(t, http.StatusOK, pathW.Code)

	var result trust.PathResult
	require.NoError(t, json.NewDecoder(pathW.Body).Decode(&result))
	assert.True(t, result.Found)
}

func TestRevokeTrustRequiresIssuerSignature(t *testing.T) {
	routes, issuer, issuerDID, subjectDID := newTestServer(t)
	payload, sig := signedPayload(t, issuer, issuerDID, subjectDID, 90)
	body, _ := json.Marshal(createTrustRequest{
		IssuerDID: issuerDID, SubjectDID: subjectDID, TrustLevel: 90, Signature: sig, Payload: payload,
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/trust", bytes.NewReader(body))
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	unsigned := httptest.NewRequest(http.MethodDelete, "/v1/trust/"+issuerDID+"/"+subjectDID, nil)
	unsignedW := httptest.NewRecorder()
	routes.ServeHTTP(unsignedW, unsigned)
	assert.Equal(t, http.StatusUnauthorized, unsignedW.Code)

	signed := httptest.NewRequest(http.MethodDelete, "/v1/trust/"+issuerDID+"/"+subjectDID, nil)
	signed.Header.Set("Content-Type", "application/json")
	require.NoError(t, httpsig.Sign(signed, issuer.Seed, &httpsig.SignOptions{KeyID: issuerDID}))
	signedW := httptest.NewRecorder()
	routes.ServeHTTP(signedW, signed)
	assert.Equal(t, http.StatusOK, signedW.Code)

	pathReq := httptest.NewRequest(http.MethodGet, "/v1/trust/"+issuerDID+"/"+subjectDID, nil)
	pathW := httptest.NewRecorder()
	routes.ServeHTTP(pathW, pathReq)
	var result trust.PathResult
	require.NoError(t, json.NewDecoder(pathW.Body).Decode(&result))
	assert.False(t, result.Found)
}

func TestHealthOKWithoutPinger(t *testing.T) {
	routes, _, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
