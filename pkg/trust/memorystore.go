package trust

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sage-x-project/fides/internal/ferrors"
	"github.com/sage-x-project/fides/pkg/identity"
)

// MemoryStore is an in-memory Store, used in tests where no database is
// available.
type MemoryStore struct {
	mu sync.RWMutex

	edges      map[string]*Edge // key: source+"\x00"+target
	identities map[string]*identity.Record
	scores     map[string]*ReputationScore
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		edges:      make(map[string]*Edge),
		identities: make(map[string]*identity.Record),
		scores:     make(map[string]*ReputationScore),
	}
}

func edgeKey(source, target string) string {
	return source + "\x00" + target
}

func (m *MemoryStore) UpsertEdge(_ context.Context, edge *Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := edgeKey(edge.Source, edge.Target)
	if existing, ok := m.edges[key]; ok {
		edge.ID = existing.ID
		edge.CreatedAt = existing.CreatedAt
	}
	cp := *edge
	m.edges[key] = &cp
	return nil
}

func (m *MemoryStore) GetEdge(_ context.Context, source, target string) (*Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.edges[edgeKey(source, target)]
	if !ok {
		return nil, ferrors.TrustError("edge not found", nil)
	}
	cp := *e
	return &cp, nil
}

func (m *MemoryStore) ListEdges(_ context.Context) ([]*Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Edge, 0, len(m.edges))
	for _, e := range m.edges {
		cp := *e
		out = append(out, &cp)
	}
	sortEdgesByCreatedAt(out)
	return out, nil
}

func (m *MemoryStore) RevokeEdge(_ context.Context, source, target string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.edges[edgeKey(source, target)]
	if !ok {
		return ferrors.TrustError("edge not found", nil)
	}
	revokedAt := now
	e.RevokedAt = &revokedAt
	return nil
}

func (m *MemoryStore) GetIdentity(_ context.Context, did string) (*identity.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.identities[did]
	if !ok {
		return nil, ferrors.TrustError("identity not found", nil)
	}
	cp := *rec
	return &cp, nil
}

func (m *MemoryStore) UpsertIdentity(_ context.Context, rec *identity.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *rec
	m.identities[rec.DID] = &cp
	return nil
}

func (m *MemoryStore) GetScore(_ context.Context, did string) (*ReputationScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.scores[did]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) PutScore(_ context.Context, score *ReputationScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *score
	m.scores[score.DID] = &cp
	return nil
}

func (m *MemoryStore) InvalidateScore(_ context.Context, did string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.scores[did]; ok {
		s.LastComputed = time.Unix(0, 0).UTC()
	}
	return nil
}

func sortEdgesByCreatedAt(edges []*Edge) {
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].CreatedAt.Before(edges[j].CreatedAt)
	})
}
