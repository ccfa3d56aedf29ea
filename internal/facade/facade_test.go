package facade

import (
	"context"
	"testing"

	"github.com/vaultmesh/coordplane/internal/envelope"
	"github.com/vaultmesh/coordplane/internal/nodestore"
	"github.com/vaultmesh/coordplane/internal/sessionstore"
	"github.com/vaultmesh/coordplane/internal/sharestore"
	"github.com/vaultmesh/coordplane/internal/upload"
	"github.com/vaultmesh/coordplane/internal/userstore"
	"github.com/vaultmesh/coordplane/internal/webauthnstore"
)

func identity(id envelope.Uid) envelope.IdentityPublic {
	x448, _ := envelope.NewKey(envelope.AlgX448, make([]byte, 56))
	sig, _ := envelope.NewKey(envelope.AlgEd25519Pub, make([]byte, 32))
	return envelope.IdentityPublic{ID: id, X448: x448, Sig: sig, SigAlg: envelope.AlgEd25519Pub}
}

type noopObjectStore struct{}

func (noopObjectStore) CreateMultipartUpload(ctx context.Context, key string) (string, error) {
	return "", nil
}
func (noopObjectStore) PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int) (string, error) {
	return "", nil
}
func (noopObjectStore) ListParts(ctx context.Context, key, uploadID string) ([]upload.Part, error) {
	return nil, nil
}
func (noopObjectStore) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []upload.Part) error {
	return nil
}
func (noopObjectStore) PresignGetObject(ctx context.Context, key string) (string, error) {
	return "", nil
}
func (noopObjectStore) HeadObjectContentLength(ctx context.Context, key string) (int64, error) {
	return 0, nil
}
func (noopObjectStore) DeleteObjects(ctx context.Context, keys []string) error { return nil }

func newTestService() *Service {
	return &Service{
		Nodes:    nodestore.New(),
		Shares:   sharestore.New(),
		Users:    userstore.New(),
		Sessions: sessionstore.New(),
		WebAuthn: webauthnstore.New(),
		Uploads:  upload.NewCoordinator(noopObjectStore{}),
	}
}

func TestSignupThenLogin(t *testing.T) {
	svc := newTestService()
	pub := identity(envelope.Uid(1))

	svc.Shares.AddInvite(sharestore.Invite{Email: "a@example.com", UserID: envelope.Uid(1)})

	err := svc.Signup(context.Background(), Signup{
		Email: "a@example.com",
		Pub:   pub,
		Nodes: []nodestore.LockedNode{
			{ID: envelope.Uid(10), ParentID: envelope.NoParentID},
		},
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	if _, ok := svc.Shares.InviteForEmail("a@example.com"); ok {
		t.Error("expected pinned invite to be deleted on signup")
	}

	u, err := svc.Login(context.Background(), Login{Email: "a@example.com"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.Pub.ID != envelope.Uid(1) {
		t.Errorf("Pub.ID = %v, want 1", u.Pub.ID)
	}
	if len(u.Roots) != 1 {
		t.Errorf("Roots = %d, want 1", len(u.Roots))
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService()
	_, err := svc.Login(context.Background(), Login{Email: "nobody@example.com"})
	if err == nil {
		t.Fatal("expected error for unknown email")
	}
}

func TestSignupAcksInviteIntent(t *testing.T) {
	svc := newTestService()
	pub := identity(envelope.Uid(2))

	svc.Shares.AddInviteIntent(sharestore.InviteIntent{Email: "b@example.com", UserID: envelope.Uid(2)})

	if err := svc.Signup(context.Background(), Signup{Email: "b@example.com", Pub: pub}); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	intent, ok := svc.Shares.GetInviteIntent("b@example.com")
	if !ok {
		t.Fatal("expected intent to still exist")
	}
	if intent.Receiver == nil || intent.Receiver.ID != envelope.Uid(2) {
		t.Errorf("expected intent acked with receiver id 2, got %+v", intent.Receiver)
	}
}

func TestGetInviteDecodesEmailAndReturnsWelcome(t *testing.T) {
	svc := newTestService()
	sender := identity(envelope.Uid(3))
	svc.Shares.AddInvite(sharestore.Invite{
		UserID: envelope.Uid(4),
		Sender: sender,
		Email:  "c@example.com",
	})
	svc.Nodes.Add(nodestore.LockedNode{ID: envelope.Uid(20), ParentID: envelope.NoParentID})

	b64 := "Y0BleGFtcGxlLmNvbQ" // "c@example.com" base64url nopad
	w, err := svc.GetInvite(context.Background(), b64)
	if err != nil {
		t.Fatalf("GetInvite: %v", err)
	}
	if w.UserID != envelope.Uid(4) {
		t.Errorf("UserID = %v, want 4", w.UserID)
	}
	if len(w.Nodes) != 1 {
		t.Errorf("Nodes = %d, want 1", len(w.Nodes))
	}
}

func TestGetInviteMissingReturnsNotFound(t *testing.T) {
	svc := newTestService()
	b64 := "bm9ib2R5QGV4YW1wbGUuY29t" // "nobody@example.com"
	_, err := svc.GetInvite(context.Background(), b64)
	if err == nil {
		t.Fatal("expected NotFound error")
	}
}

func TestFinishInviteIntents(t *testing.T) {
	svc := newTestService()
	svc.Shares.AddInviteIntent(sharestore.InviteIntent{Email: "d@example.com", UserID: envelope.Uid(5)})

	share := sharestore.LockedShare{Sender: identity(envelope.Uid(9)), Export: sharestore.Export{Receiver: envelope.Uid(5)}}
	err := svc.FinishInviteIntents(context.Background(), []FinishInviteIntent{
		{Email: "d@example.com", Share: share},
	})
	if err != nil {
		t.Fatalf("FinishInviteIntents: %v", err)
	}

	if _, ok := svc.Shares.GetInviteIntent("d@example.com"); ok {
		t.Error("expected intent deleted")
	}
	if len(svc.Shares.AllSharesForUser(envelope.Uid(5))) != 1 {
		t.Error("expected share inserted")
	}
}

func TestPurgeResetsAllStores(t *testing.T) {
	svc := newTestService()
	svc.Nodes.Add(nodestore.LockedNode{ID: envelope.Uid(1), ParentID: envelope.NoParentID})
	svc.Shares.AddInvite(sharestore.Invite{Email: "e@example.com"})
	svc.Users.AddCredentials("e@example.com", envelope.Uid(1))

	svc.Purge(context.Background())

	if len(svc.Nodes.GetAll()) != 0 {
		t.Error("expected nodes purged")
	}
	if _, ok := svc.Shares.InviteForEmail("e@example.com"); ok {
		t.Error("expected invites purged")
	}
	if _, ok := svc.Users.IDForEmail("e@example.com"); ok {
		t.Error("expected users purged")
	}
}
