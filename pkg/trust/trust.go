// Package trust implements the trust graph engine (spec.md §4.9): a
// persisted directed weighted graph of signed trust attestations, bounded
// breadth-first path discovery with exponential decay, and reputation
// scoring that blends direct and bounded transitive trust.
package trust

import (
	"context"
	"time"

	"github.com/sage-x-project/fides/pkg/identity"
)

const (
	// Decay is the per-hop exponential decay applied to path and
	// reputation contributions.
	Decay = 0.85
	// MaxPathDepth bounds findPath's breadth-first search.
	MaxPathDepth = 6
	// MaxReputationDepth bounds the transitive reputation BFS; only hops
	// 2 and 3 contribute transitively (depth 1 is direct trust).
	MaxReputationDepth = 3
	// ScoreCacheValidity is how long a computed reputation score is
	// trusted before a recompute is forced.
	ScoreCacheValidity = time.Hour
)

// Edge is a persisted directed, weighted trust edge from Source to
// Target. Only an edge with Status() == EdgeActive participates in
// traversal and scoring.
type Edge struct {
	ID          string
	Source      string
	Target      string
	TrustLevel  int
	Attestation string
	Signature   string
	CreatedAt   time.Time
	ExpiresAt   *time.Time
	RevokedAt   *time.Time
}

// EdgeState classifies an Edge's position in its lifecycle.
type EdgeState string

const (
	EdgeActive  EdgeState = "active"
	EdgeRevoked EdgeState = "revoked"
	EdgeExpired EdgeState = "expired"
)

// Status reports e's lifecycle state as of now.
func (e *Edge) Status(now time.Time) EdgeState {
	if e.RevokedAt != nil {
		return EdgeRevoked
	}
	if e.ExpiresAt != nil && e.ExpiresAt.Before(now) {
		return EdgeExpired
	}
	return EdgeActive
}

// ValidEdges filters edges to those currently active.
func ValidEdges(edges []*Edge, now time.Time) []*Edge {
	out := make([]*Edge, 0, len(edges))
	for _, e := range edges {
		if e.Status(now) == EdgeActive {
			out = append(out, e)
		}
	}
	return out
}

// ReputationScore is the persisted, cached reputation row for an
// identifier.
type ReputationScore struct {
	DID                string
	Score              float64
	DirectTrusters     int
	TransitiveTrusters int
	LastComputed       time.Time
}

// Stale reports whether the score must be recomputed as of now.
func (s *ReputationScore) Stale(now time.Time) bool {
	if s == nil {
		return true
	}
	return now.Sub(s.LastComputed) >= ScoreCacheValidity
}

// Store is the persistence boundary for the trust graph engine. A
// pgx-backed implementation lives in internal/storage; pkg/trust also
// ships an in-memory implementation for tests and standalone tools.
type Store interface {
	UpsertEdge(ctx context.Context, edge *Edge) error
	GetEdge(ctx context.Context, source, target string) (*Edge, error)
	ListEdges(ctx context.Context) ([]*Edge, error)
	RevokeEdge(ctx context.Context, source, target string, now time.Time) error

	GetIdentity(ctx context.Context, did string) (*identity.Record, error)
	UpsertIdentity(ctx context.Context, rec *identity.Record) error

	GetScore(ctx context.Context, did string) (*ReputationScore, error)
	PutScore(ctx context.Context, score *ReputationScore) error
	InvalidateScore(ctx context.Context, did string) error
}
