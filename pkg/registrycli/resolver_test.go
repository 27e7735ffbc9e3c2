package registrycli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/fides/pkg/fcrypto"
	"github.com/sage-x-project/fides/pkg/identity"
)

func TestResolveByDID(t *testing.T) {
	kp, err := fcrypto.GenerateKeyPair()
	require.NoError(t, err)
	did, err := identity.Derive(kp.PublicKey)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/identities/"+did, req.URL.Path)
		_ = json.NewEncoder(w).Encode(document{DID: did, PublicKey: fcrypto.HexEncode(kp.PublicKey)})
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, time.Minute)
	rec, err := r.Resolve(context.Background(), did)
	require.NoError(t, err)
	assert.Equal(t, did, rec.DID)
	assert.Equal(t, kp.PublicKey, rec.PublicKey)
}

func TestResolveCachesPositiveResults(t *testing.T) {
	kp, err := fcrypto.GenerateKeyPair()
	require.NoError(t, err)
	did, err := identity.Derive(kp.PublicKey)
	require.NoError(t, err)

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hits++
		_ = json.NewEncoder(w).Encode(document{DID: did, PublicKey: fcrypto.HexEncode(kp.PublicKey)})
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, time.Minute)
	_, err = r.Resolve(context.Background(), did)
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), did)
	require.NoError(t, err)

	assert.Equal(t, 1, hits)
}

func TestResolveByDomainFallsBackToRegistry(t *testing.T) {
	kp, err := fcrypto.GenerateKeyPair()
	require.NoError(t, err)
	did, err := identity.Derive(kp.PublicKey)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "domain=agents.example.com", req.URL.RawQuery)
		_ = json.NewEncoder(w).Encode([]document{{DID: did, PublicKey: fcrypto.HexEncode(kp.PublicKey), Domain: "agents.example.com"}})
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, time.Minute)
	rec, err := r.Resolve(context.Background(), "agents.example.com")
	require.NoError(t, err)
	assert.Equal(t, did, rec.DID)
}

func TestResolveReturnsErrorOnNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, time.Minute)
	_, err := r.Resolve(context.Background(), "did:fides:11111111111111111111111111111111")
	assert.Error(t, err)
}
