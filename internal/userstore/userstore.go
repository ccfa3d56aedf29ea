// Package userstore implements coordplane's user records (spec.md §4.3):
// an email-to-id credential map plus public identity and locked private
// bundle maps keyed by user id. It is grounded on
// original_source/src/users.rs.
package userstore

import (
	"sync"

	"github.com/vaultmesh/coordplane/internal/envelope"
)

// Store holds three independent keyed maps (spec.md §4.3). Getters return
// copies; setters are unconditional inserts (replacement permitted). No
// credential verification happens here — coordplane is E2EE, so the
// email key only maps identity; possession of the encrypted bundle plus
// PIN or passkey is the real authentication.
type Store struct {
	mu          sync.Mutex
	credentials map[string]envelope.Uid
	publicKeys  map[envelope.Uid]envelope.IdentityPublic
	privateKeys map[envelope.Uid]envelope.Lock
}

// New returns an empty user store.
func New() *Store {
	return &Store{
		credentials: make(map[string]envelope.Uid),
		publicKeys:  make(map[envelope.Uid]envelope.IdentityPublic),
		privateKeys: make(map[envelope.Uid]envelope.Lock),
	}
}

// AddPriv installs (or replaces) the locked private bundle for id.
func (s *Store) AddPriv(id envelope.Uid, priv envelope.Lock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.privateKeys[id] = priv
}

// PrivForID looks up the locked private bundle for a user id.
func (s *Store) PrivForID(id envelope.Uid) (envelope.Lock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	priv, ok := s.privateKeys[id]
	return priv, ok
}

// AddPub installs (or replaces) the public identity for id.
func (s *Store) AddPub(id envelope.Uid, pub envelope.IdentityPublic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publicKeys[id] = pub
}

// PubForID looks up the public identity for a user id.
func (s *Store) PubForID(id envelope.Uid) (envelope.IdentityPublic, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pub, ok := s.publicKeys[id]
	return pub, ok
}

// AddCredentials maps email to id, replacing any existing mapping.
func (s *Store) AddCredentials(email string, id envelope.Uid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[email] = id
}

// IDForEmail looks up the user id registered for email.
func (s *Store) IDForEmail(email string) (envelope.Uid, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.credentials[email]
	return id, ok
}

// MasterKeyFor is a convenience view returning the Encrypted master key
// wrapper nested inside the user's locked private bundle (spec.md §4.3).
func (s *Store) MasterKeyFor(id envelope.Uid) (envelope.Encrypted, bool) {
	priv, ok := s.PrivForID(id)
	if !ok {
		return envelope.Encrypted{}, false
	}
	return priv.MasterKey, true
}

// Purge empties the store.
func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = make(map[string]envelope.Uid)
	s.publicKeys = make(map[envelope.Uid]envelope.IdentityPublic)
	s.privateKeys = make(map[envelope.Uid]envelope.Lock)
}
