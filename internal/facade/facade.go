// Package facade aggregates the per-concern stores into the cohesive
// operations coordplane's HTTP surface actually calls: signup, login/
// get-user, get-invite, finish-invite-intents, and global purge
// (spec.md §4.7). It has no original_source/ file of its own —
// users.rs and shares.rs supply the data shapes it orchestrates, and
// spec.md §4.7 supplies the orchestration contract directly.
package facade

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/vaultmesh/coordplane/internal/apperr"
	"github.com/vaultmesh/coordplane/internal/envelope"
	"github.com/vaultmesh/coordplane/internal/nodestore"
	"github.com/vaultmesh/coordplane/internal/sessionstore"
	"github.com/vaultmesh/coordplane/internal/sharestore"
	"github.com/vaultmesh/coordplane/internal/upload"
	"github.com/vaultmesh/coordplane/internal/userstore"
	"github.com/vaultmesh/coordplane/internal/webauthnstore"
)

// AuditRecorder is the subset of internal/audit.Logger the façade
// depends on; satisfied by *audit.Logger, nil-safe at the call site so
// a façade can run without an audit sink (e.g. in tests).
type AuditRecorder interface {
	Record(ctx context.Context, operation string, params, result interface{}, err error, duration time.Duration)
}

// Signup is the client-submitted payload for account creation
// (spec.md §4.7 "Signup"): a locked private bundle and public identity
// to register, plus any root nodes and shares the client wants created
// atomically with the account.
type Signup struct {
	Email         string                   `json:"email"`
	EncryptedPriv envelope.Lock            `json:"encrypted_priv"`
	Pub           envelope.IdentityPublic  `json:"pub"`
	Nodes         []nodestore.LockedNode   `json:"nodes"`
	Shares        []sharestore.LockedShare `json:"shares"`
}

// Login identifies an existing user by email; the server does not
// verify a password (spec.md §4.3 — the E2EE bundle and PIN/passkey
// are the real authentication).
type Login struct {
	Email string `json:"email"`
}

// LockedUser is the assembled view returned by Login and GetUser
// (spec.md §4.7).
type LockedUser struct {
	EncryptedPriv        envelope.Lock             `json:"encrypted_priv"`
	Pub                  envelope.IdentityPublic   `json:"pub"`
	Shares               []sharestore.LockedShare  `json:"shares"`
	PendingInviteIntents []sharestore.InviteIntent `json:"pending_invite_intents"`
	Roots                []nodestore.LockedNode    `json:"roots"`
}

// Welcome is returned to an invitee fetching a pinned invite
// (spec.md §4.7 "GetInvite").
type Welcome struct {
	UserID  envelope.Uid            `json:"user_id"`
	Sender  envelope.IdentityPublic `json:"sender"`
	Imports envelope.Lock           `json:"imports"`
	Sig     envelope.Signature      `json:"sig"`
	Nodes   []nodestore.LockedNode  `json:"nodes"`
}

// FinishInviteIntent pairs an invite intent's email with the locked
// share that resolves it (spec.md §4.7 "FinishInviteIntents").
type FinishInviteIntent struct {
	Email string                 `json:"email"`
	Share sharestore.LockedShare `json:"share"`
}

// Service wires every store into the cross-store operations. One
// Service is shared across all requests; each store guards its own
// state so Service itself holds no lock.
type Service struct {
	Nodes    *nodestore.Store
	Shares   *sharestore.Store
	Users    *userstore.Store
	Sessions *sessionstore.Store
	WebAuthn *webauthnstore.Store
	Uploads  *upload.Coordinator
	Audit    AuditRecorder // optional; nil disables audit recording
}

func (s *Service) record(ctx context.Context, op string, params, result interface{}, err error, start time.Time) {
	if s.Audit == nil {
		return
	}
	s.Audit.Record(ctx, op, params, result, err, time.Since(start))
}

// Signup performs the atomic-per-request signup sequence (spec.md
// §4.7): insert every root node, insert every share, delete the
// matching pinned invite by email, acknowledge any pending invite
// intent for that email with the new public identity, then register
// the locked private bundle, public identity, and credentials.
//
// Guards are acquired in the order node-store, share-store, user-store
// and held only as long as each store's own method call takes (the
// stores are independently mutexed; the façade itself does not hold a
// cross-store lock). On any sub-error the façade does not roll back
// earlier insertions — state is coarse-grained by design (spec.md §7);
// callers must be idempotent on retry.
func (s *Service) Signup(ctx context.Context, req Signup) error {
	start := time.Now()
	var firstErr error

	for _, n := range req.Nodes {
		if err := s.Nodes.Add(n); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, sh := range req.Shares {
		s.Shares.AddShare(sh)
	}

	s.Shares.DeleteInvite(req.Email)
	s.Shares.AckInviteIntent(req.Email, req.Pub)

	s.Users.AddPriv(req.Pub.ID, req.EncryptedPriv)
	s.Users.AddPub(req.Pub.ID, req.Pub)
	s.Users.AddCredentials(req.Email, req.Pub.ID)

	s.record(ctx, "signup", map[string]interface{}{
		"email": req.Email, "user_id": req.Pub.ID.String(),
		"nodes": len(req.Nodes), "shares": len(req.Shares),
	}, nil, firstErr, start)
	return firstErr
}

// Login assembles a LockedUser for an email, looking up the user id
// via the credentials map and delegating to GetUser (spec.md §4.7
// "Login / GetUser").
func (s *Service) Login(ctx context.Context, req Login) (LockedUser, error) {
	start := time.Now()
	uid, ok := s.Users.IDForEmail(req.Email)
	if !ok {
		err := apperr.NewUnauthorised("unknown email")
		s.record(ctx, "login", map[string]string{"email": req.Email}, nil, err, start)
		return LockedUser{}, err
	}
	u, err := s.getUser(uid)
	s.record(ctx, "login", map[string]string{"email": req.Email}, nil, err, start)
	return u, err
}

// GetUser assembles a LockedUser for uid (spec.md §4.7 "Login /
// GetUser"). Missing identity yields Unauthorised. The response
// includes every node in the forest; the non-goal on access control
// means clients decrypt what they can, not what the server filters.
func (s *Service) GetUser(ctx context.Context, uid envelope.Uid) (LockedUser, error) {
	start := time.Now()
	u, err := s.getUser(uid)
	s.record(ctx, "get_user", map[string]string{"user_id": uid.String()}, nil, err, start)
	return u, err
}

func (s *Service) getUser(uid envelope.Uid) (LockedUser, error) {
	priv, ok := s.Users.PrivForID(uid)
	if !ok {
		return LockedUser{}, apperr.NewUnauthorised("unknown user")
	}
	pub, ok := s.Users.PubForID(uid)
	if !ok {
		return LockedUser{}, apperr.NewUnauthorised("unknown user")
	}
	return LockedUser{
		EncryptedPriv:        priv,
		Pub:                  pub,
		Shares:               s.Shares.AllSharesForUser(uid),
		PendingInviteIntents: s.Shares.GetInviteIntentsForSender(uid),
		Roots:                s.Nodes.GetAll(),
	}, nil
}

// GetInvite decodes a Base64-URL-encoded email from the path, looks up
// the pinned invite, and returns the Welcome blob (spec.md §4.7
// "GetInvite"). Missing invite yields NotFound.
func (s *Service) GetInvite(ctx context.Context, emailB64URL string) (Welcome, error) {
	start := time.Now()

	raw, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(emailB64URL)
	if err != nil {
		e := apperr.NewNoInvite(emailB64URL)
		s.record(ctx, "get_invite", map[string]string{"email_b64url": emailB64URL}, nil, e, start)
		return Welcome{}, e
	}
	email := string(raw)

	inv, ok := s.Shares.InviteForEmail(email)
	if !ok {
		e := apperr.NewNotFound(email)
		s.record(ctx, "get_invite", map[string]string{"email": email}, nil, e, start)
		return Welcome{}, e
	}

	w := Welcome{
		UserID:  inv.UserID,
		Sender:  inv.Sender,
		Imports: inv.Payload,
		Sig:     inv.Sig,
		Nodes:   s.Nodes.GetAll(),
	}
	s.record(ctx, "get_invite", map[string]string{"email": email}, nil, nil, start)
	return w, nil
}

// FinishInviteIntents inserts each batch entry's share and deletes the
// matching intent by email (spec.md §4.7 "FinishInviteIntents"). No
// per-entry error is surfaced; a missing intent is simply a no-op
// delete, matching the store's own idempotent semantics.
func (s *Service) FinishInviteIntents(ctx context.Context, reqs []FinishInviteIntent) error {
	start := time.Now()
	for _, r := range reqs {
		s.Shares.AddShare(r.Share)
		s.Shares.DeleteInviteIntent(r.Email)
	}
	s.record(ctx, "finish_invite_intents", map[string]int{"count": len(reqs)}, nil, nil, start)
	return nil
}

// Purge resets every store to an empty state (spec.md §2's global
// purge operation). It does not reach into the object store backing
// uploads; callers that need a full reset of uploaded content should
// bulk-delete via the upload coordinator first.
func (s *Service) Purge(ctx context.Context) {
	start := time.Now()
	s.Nodes.Purge()
	s.Shares.Purge()
	s.Users.Purge()
	s.Sessions.Purge()
	s.WebAuthn.Purge()
	s.Uploads.Purge()
	s.record(ctx, "purge", nil, nil, nil, start)
}
