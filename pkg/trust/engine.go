package trust

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/sage-x-project/fides/internal/ferrors"
	"github.com/sage-x-project/fides/pkg/attestation"
	"github.com/sage-x-project/fides/pkg/fcrypto"
	"github.com/sage-x-project/fides/pkg/identity"
)

const (
	knownIdentifierTTL   = 30 * time.Minute
	knownIdentifierCache = 8192
	identityFetchTimeout = 3 * time.Second

	circuitFailureThreshold = 5
	circuitFailureWindow    = int64(30 * time.Second)
	circuitOpenDuration     = int64(30 * time.Second)
)

// Resolver is the identity-materialization dependency an Engine consults
// when a create-trust request names an identifier not yet known
// locally. registrycli.Resolver satisfies this interface.
type Resolver interface {
	Resolve(ctx context.Context, input string) (*identity.Record, error)
}

// CreateTrustRequest is the input to Engine.CreateTrust (spec.md §4.9.1).
type CreateTrustRequest struct {
	IssuerDID  string
	SubjectDID string
	TrustLevel int
	Signature  string // hex, 64 bytes
	Payload    string // exact JSON bytes that were signed
	ExpiresAt  *time.Time
}

type trustPayload struct {
	IssuerDID  string `json:"issuerDid"`
	SubjectDID string `json:"subjectDid"`
	TrustLevel int    `json:"trustLevel"`
}

// Engine implements the trust graph engine's stateful operations:
// create-trust with identity materialization and a circuit-broken
// registry fallback, path discovery, and cached reputation scoring.
type Engine struct {
	store    Store
	resolver Resolver
	breaker  *CircuitBreaker
	known    *expirable.LRU[string, *identity.Record]
	now      func() time.Time
}

// NewEngine builds an Engine backed by store, resolving unknown
// identifiers through resolver.
func NewEngine(store Store, resolver Resolver) *Engine {
	return &Engine{
		store:    store,
		resolver: resolver,
		breaker:  NewCircuitBreaker(circuitFailureThreshold, circuitFailureWindow, circuitOpenDuration),
		known:    expirable.NewLRU[string, *identity.Record](knownIdentifierCache, nil, knownIdentifierTTL),
		now:      time.Now,
	}
}

// CreateTrust runs the five-step create-trust protocol and, on success,
// persists the new edge and invalidates the subject's reputation cache.
func (e *Engine) CreateTrust(ctx context.Context, req CreateTrustRequest) (*Edge, error) {
	if !identity.IsValid(req.IssuerDID) {
		return nil, ferrors.TrustError("invalid issuer identifier", nil)
	}
	if !identity.IsValid(req.SubjectDID) {
		return nil, ferrors.TrustError("invalid subject identifier", nil)
	}
	if req.TrustLevel < 0 || req.TrustLevel > 100 {
		return nil, ferrors.TrustError("trust level out of range [0,100]", nil)
	}
	sig, err := fcrypto.HexDecode(req.Signature)
	if err != nil || len(sig) != fcrypto.SignatureSize {
		return nil, ferrors.TrustError("signature must be 64-byte hex", err)
	}

	issuer, err := e.materialize(ctx, req.IssuerDID)
	if err != nil {
		return nil, err
	}
	if _, err := e.materialize(ctx, req.SubjectDID); err != nil {
		return nil, err
	}

	ok, err := fcrypto.Verify([]byte(req.Payload), sig, issuer.PublicKey)
	if err != nil || !ok {
		return nil, ferrors.TrustError("trust signature verification failed", err)
	}

	var p trustPayload
	if err := json.Unmarshal([]byte(req.Payload), &p); err != nil {
		return nil, ferrors.TrustError("malformed trust payload", err)
	}
	if p.IssuerDID != req.IssuerDID || p.SubjectDID != req.SubjectDID || p.TrustLevel != req.TrustLevel {
		return nil, ferrors.TrustError("trust payload does not match request fields", nil)
	}

	now := e.now()
	edge := &Edge{
		ID:          uuid.NewString(),
		Source:      req.IssuerDID,
		Target:      req.SubjectDID,
		TrustLevel:  req.TrustLevel,
		Attestation: req.Payload,
		Signature:   req.Signature,
		CreatedAt:   now,
		ExpiresAt:   req.ExpiresAt,
	}
	if err := e.store.UpsertEdge(ctx, edge); err != nil {
		return nil, ferrors.TrustError("persist trust edge", err)
	}
	if err := e.store.InvalidateScore(ctx, req.SubjectDID); err != nil {
		return nil, ferrors.TrustError("invalidate reputation cache", err)
	}

	return edge, nil
}

// materialize ensures did is known to the local store, resolving it
// through the registry (guarded by the circuit breaker) if not. A
// resolved record is cached in e.known so repeat lookups within its TTL
// skip the store entirely.
func (e *Engine) materialize(ctx context.Context, did string) (*identity.Record, error) {
	if rec, ok := e.known.Get(did); ok {
		return rec, nil
	}

	if rec, err := e.store.GetIdentity(ctx, did); err == nil {
		e.known.Add(did, rec)
		return rec, nil
	}

	if !e.breaker.Allow(e.now().UnixNano()) {
		return nil, ferrors.TrustError("circuit breaker open", nil)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, identityFetchTimeout)
	defer cancel()

	rec, err := e.resolver.Resolve(fetchCtx, did)
	if err != nil {
		e.breaker.RecordFailure(e.now().UnixNano())
		return nil, ferrors.TrustError("identity not found — register first", err)
	}
	e.breaker.RecordSuccess()

	if err := e.store.UpsertIdentity(ctx, rec); err != nil {
		return nil, ferrors.TrustError("persist resolved identity", err)
	}
	e.known.Add(did, rec)
	return rec, nil
}

// FindPath discovers the shortest trust path from `from` to `to` over
// currently active edges.
func (e *Engine) FindPath(ctx context.Context, from, to string, maxDepth int) (PathResult, error) {
	edges, err := e.store.ListEdges(ctx)
	if err != nil {
		return PathResult{}, ferrors.TrustError("list edges", err)
	}
	return FindPath(ValidEdges(edges, e.now()), from, to, maxDepth), nil
}

// Score returns subject's reputation score, using the persisted cache
// when it's still within ScoreCacheValidity.
func (e *Engine) Score(ctx context.Context, subject string) (*ReputationScore, error) {
	cached, err := e.store.GetScore(ctx, subject)
	if err != nil {
		return nil, ferrors.TrustError("load cached score", err)
	}
	now := e.now()
	if !cached.Stale(now) {
		return cached, nil
	}

	edges, err := e.store.ListEdges(ctx)
	if err != nil {
		return nil, ferrors.TrustError("list edges", err)
	}
	result := ComputeReputation(ValidEdges(edges, now), subject)

	score := &ReputationScore{
		DID:                subject,
		Score:              result.Score,
		DirectTrusters:     result.DirectTrusters,
		TransitiveTrusters: result.TransitiveTrusters,
		LastComputed:       now,
	}
	if err := e.store.PutScore(ctx, score); err != nil {
		return nil, ferrors.TrustError("persist computed score", err)
	}
	return score, nil
}

// VerifyAttestation is a convenience wrapper exposed for handlers that
// need to validate an attestation-shaped payload independent of edge
// persistence (e.g. before calling CreateTrust).
func VerifyAttestation(att *attestation.Attestation, pk []byte) bool {
	return attestation.Verify(att, pk)
}
