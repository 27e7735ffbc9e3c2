// Package replay implements the bounded, TTL-evicted nonce-seen set used
// by the signature verifier to reject replayed requests (spec.md §4.7).
package replay

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultTTL         = 300 * time.Second
	defaultCapacity    = 100_000
	evictionInterval   = 60 * time.Second
)

// Store is an in-memory nonce → insert-timestamp map. Check is the only
// operation callers need; it inserts and reports freshness atomically.
// Expired entries are dropped by the underlying expirable LRU. A
// background goroutine ticks roughly every 60s until Close, which stops
// it and clears the map.
type Store struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, time.Time]

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a replay Store with the given TTL (default 300s if ttl<=0).
func New(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	s := &Store{
		cache:  expirable.NewLRU[string, time.Time](defaultCapacity, nil, ttl),
		stopCh: make(chan struct{}),
	}
	go s.evictLoop()
	return s
}

// Check reports whether nonce is fresh, atomically recording it as seen.
// A previously-seen nonce returns false (replay).
func (s *Store) Check(nonce string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cache.Get(nonce); ok {
		return false
	}
	s.cache.Add(nonce, time.Now())
	return true
}

// Len reports the number of nonces currently tracked.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

func (s *Store) evictLoop() {
	ticker := time.NewTicker(evictionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			// expirable.LRU removes expired entries from its own
			// background goroutine and Get ignores expired ones; this
			// tick only reads Len under the lock and removes nothing.
			s.mu.Lock()
			s.cache.Len()
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

// Close stops the eviction goroutine and clears the map.
func (s *Store) Close() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.mu.Lock()
	s.cache.Purge()
	s.mu.Unlock()
}
