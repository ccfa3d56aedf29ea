// Package sharestore implements coordplane's sharing state machine
// (spec.md §4.2): locked shares, PIN-protected pinned invites, and
// pin-less invite intents with deferred receiver acknowledgement. It is
// grounded on original_source/src/shares.rs.
package sharestore

import (
	"sync"

	"github.com/vaultmesh/coordplane/internal/envelope"
)

// Export names which subtrees a share grants: fs is a list of filesystem
// node ids, db a list of structured-data node ids (spec.md §3).
type Export struct {
	Receiver envelope.Uid   `json:"receiver"`
	FS       []envelope.Uid `json:"fs"`
	DB       []envelope.Uid `json:"db"`
}

// LockedShare is an already-sealed grant from sender to export.Receiver;
// the server returns it verbatim where id == sender.id || id ==
// export.receiver, never inspecting payload (spec.md §4.2).
type LockedShare struct {
	Sender  envelope.IdentityPublic    `json:"sender"`
	Export  Export                     `json:"export"`
	Payload envelope.IdentityEncrypted `json:"payload"`
	Sig     envelope.Signature         `json:"sig"`
}

// Invite is a PIN-protected share where the sender has already chosen the
// invitee's future user id. Unlocking requires the PIN to decrypt
// Payload.MasterKey.Ciphertext client-side (spec.md §3).
type Invite struct {
	UserID  envelope.Uid            `json:"user_id"`
	Sender  envelope.IdentityPublic `json:"sender"`
	Email   string                  `json:"email"`
	Payload envelope.Lock           `json:"payload"`
	Export  Export                  `json:"export"`
	Sig     envelope.Signature      `json:"sig"`
}

// InviteIntent is a pin-less invitation whose Receiver is filled in only
// after the invitee signs up (spec.md §3/§4.2).
type InviteIntent struct {
	Email    string                   `json:"email"`
	Sender   envelope.IdentityPublic  `json:"sender"`
	Sig      envelope.Signature       `json:"sig"`
	UserID   envelope.Uid             `json:"user_id"`
	Receiver *envelope.IdentityPublic `json:"receiver,omitempty"`
	FSIDs    []envelope.Uid           `json:"fs_ids,omitempty"`
	DBIDs    []envelope.Uid           `json:"db_ids,omitempty"`
}

// Store holds every share, pinned invite, and invite intent currently
// live in the process (spec.md §4.2). One mutex guards the whole store.
type Store struct {
	mu      sync.Mutex
	shares  []LockedShare
	invites map[string]Invite
	intents map[string]InviteIntent
}

// New returns an empty share store.
func New() *Store {
	return &Store{
		invites: make(map[string]Invite),
		intents: make(map[string]InviteIntent),
	}
}

// AddShare appends share; no dedup (spec.md §4.2).
func (s *Store) AddShare(share LockedShare) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shares = append(s.shares, share)
}

// AllSharesForUser returns every share where uid is the sender or the
// export receiver.
func (s *Store) AllSharesForUser(uid envelope.Uid) []LockedShare {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []LockedShare
	for _, sh := range s.shares {
		if sh.Sender.ID == uid || sh.Export.Receiver == uid {
			out = append(out, sh)
		}
	}
	return out
}

// AddInvite replaces any existing pinned invite for invite.Email.
func (s *Store) AddInvite(invite Invite) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invites[invite.Email] = invite
}

// InviteForEmail looks up a pinned invite by email.
func (s *Store) InviteForEmail(email string) (Invite, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invites[email]
	return inv, ok
}

// DeleteInvite removes the pinned invite for email, if any.
func (s *Store) DeleteInvite(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.invites, email)
}

// AddInviteIntent replaces any existing intent for intent.Email.
func (s *Store) AddInviteIntent(intent InviteIntent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents[intent.Email] = intent
}

// GetInviteIntent looks up an intent by email.
func (s *Store) GetInviteIntent(email string) (InviteIntent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[email]
	return intent, ok
}

// GetInviteIntentsForSender returns every intent sent by uid, in
// unspecified order.
func (s *Store) GetInviteIntentsForSender(uid envelope.Uid) []InviteIntent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []InviteIntent
	for _, intent := range s.intents {
		if intent.Sender.ID == uid {
			out = append(out, intent)
		}
	}
	return out
}

// DeleteInviteIntent removes the intent for email, if any.
func (s *Store) DeleteInviteIntent(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.intents, email)
}

// AckInviteIntent installs receiver on the intent for email only if it is
// currently unacknowledged (Receiver == nil); returns whether the state
// changed. Missing intents and already-acked intents are idempotent
// no-ops that return false (spec.md §4.2's monotonicity invariant).
func (s *Store) AckInviteIntent(email string, receiver envelope.IdentityPublic) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.intents[email]
	if !ok || intent.Receiver != nil {
		return false
	}
	intent.Receiver = &receiver
	s.intents[email] = intent
	return true
}

// Purge empties the store.
func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shares = nil
	s.invites = make(map[string]Invite)
	s.intents = make(map[string]InviteIntent)
}
