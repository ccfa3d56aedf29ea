// Package sessionstore implements coordplane's one-shot unlock tokens
// (spec.md §4.4). It is grounded on original_source/src/sessions.rs.
package sessionstore

import (
	"sync"

	"github.com/vaultmesh/coordplane/internal/envelope"
)

// Seed is 32 bytes of unlock-token material; it shares its wire
// representation with envelope.Salt.
type Seed = envelope.Salt

// Store is a single map from unlock-token id to Seed. Tokens are
// one-shot: ConsumeTokenByID removes the entry it returns.
type Store struct {
	mu     sync.Mutex
	tokens map[envelope.Uid]Seed
}

// New returns an empty session store.
func New() *Store {
	return &Store{tokens: make(map[envelope.Uid]Seed)}
}

// AddToken installs seed under id, replacing any existing token.
func (s *Store) AddToken(id envelope.Uid, seed Seed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[id] = seed
}

// ConsumeTokenByID removes and returns the token for id, if present. A
// second call with the same id returns ok == false.
func (s *Store) ConsumeTokenByID(id envelope.Uid) (Seed, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seed, ok := s.tokens[id]
	if ok {
		delete(s.tokens, id)
	}
	return seed, ok
}

// Purge empties the store.
func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[envelope.Uid]Seed)
}
