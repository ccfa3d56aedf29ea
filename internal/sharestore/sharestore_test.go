package sharestore

import (
	"testing"

	"github.com/vaultmesh/coordplane/internal/envelope"
)

func identity(id envelope.Uid) envelope.IdentityPublic {
	x448, _ := envelope.NewKey(envelope.AlgX448, make([]byte, 56))
	sig, _ := envelope.NewKey(envelope.AlgEd25519Pub, make([]byte, 32))
	return envelope.IdentityPublic{ID: id, X448: x448, Sig: sig, SigAlg: envelope.AlgEd25519Pub}
}

func TestAllSharesForUserMatchesSenderOrReceiver(t *testing.T) {
	s := New()
	sender := identity(envelope.Uid(1))
	s.AddShare(LockedShare{Sender: sender, Export: Export{Receiver: envelope.Uid(2)}})
	s.AddShare(LockedShare{Sender: identity(envelope.Uid(9)), Export: Export{Receiver: envelope.Uid(1)}})
	s.AddShare(LockedShare{Sender: identity(envelope.Uid(9)), Export: Export{Receiver: envelope.Uid(2)}})

	got := s.AllSharesForUser(envelope.Uid(1))
	if len(got) != 2 {
		t.Fatalf("AllSharesForUser(1) = %d shares, want 2", len(got))
	}
}

func TestInviteAddReplacesAndDelete(t *testing.T) {
	s := New()
	s.AddInvite(Invite{Email: "a@example.com", UserID: envelope.Uid(1)})
	s.AddInvite(Invite{Email: "a@example.com", UserID: envelope.Uid(2)})

	inv, ok := s.InviteForEmail("a@example.com")
	if !ok || inv.UserID != envelope.Uid(2) {
		t.Fatalf("expected replaced invite with UserID 2, got %+v ok=%v", inv, ok)
	}

	s.DeleteInvite("a@example.com")
	if _, ok := s.InviteForEmail("a@example.com"); ok {
		t.Error("expected invite to be gone after delete")
	}
}

func TestAckInviteIntentMonotonic(t *testing.T) {
	s := New()
	s.AddInviteIntent(InviteIntent{Email: "b@example.com", UserID: envelope.Uid(5)})

	pk1 := identity(envelope.Uid(100))
	if !s.AckInviteIntent("b@example.com", pk1) {
		t.Fatal("first ack should return true")
	}

	pk2 := identity(envelope.Uid(200))
	if s.AckInviteIntent("b@example.com", pk2) {
		t.Fatal("second ack should return false")
	}

	intent, ok := s.GetInviteIntent("b@example.com")
	if !ok {
		t.Fatal("expected intent to still exist")
	}
	if intent.Receiver == nil || intent.Receiver.ID != envelope.Uid(100) {
		t.Errorf("receiver should remain pk1, got %+v", intent.Receiver)
	}
}

func TestAckInviteIntentMissingIsNoop(t *testing.T) {
	s := New()
	if s.AckInviteIntent("nobody@example.com", identity(envelope.Uid(1))) {
		t.Error("ack of missing intent should return false")
	}
}

func TestGetInviteIntentsForSender(t *testing.T) {
	s := New()
	s.AddInviteIntent(InviteIntent{Email: "x@example.com", Sender: identity(envelope.Uid(7))})
	s.AddInviteIntent(InviteIntent{Email: "y@example.com", Sender: identity(envelope.Uid(7))})
	s.AddInviteIntent(InviteIntent{Email: "z@example.com", Sender: identity(envelope.Uid(8))})

	got := s.GetInviteIntentsForSender(envelope.Uid(7))
	if len(got) != 2 {
		t.Fatalf("GetInviteIntentsForSender(7) = %d, want 2", len(got))
	}
}

func TestDeleteInviteIntent(t *testing.T) {
	s := New()
	s.AddInviteIntent(InviteIntent{Email: "a@example.com", UserID: envelope.Uid(1)})
	s.DeleteInviteIntent("a@example.com")
	if _, ok := s.GetInviteIntent("a@example.com"); ok {
		t.Error("expected intent to be gone after delete")
	}
}

func TestPurge(t *testing.T) {
	s := New()
	s.AddShare(LockedShare{Sender: identity(envelope.Uid(1)), Export: Export{Receiver: envelope.Uid(2)}})
	s.AddInvite(Invite{Email: "a@example.com"})
	s.AddInviteIntent(InviteIntent{Email: "b@example.com"})

	s.Purge()

	if len(s.AllSharesForUser(envelope.Uid(1))) != 0 {
		t.Error("expected shares cleared after purge")
	}
	if _, ok := s.InviteForEmail("a@example.com"); ok {
		t.Error("expected invites cleared after purge")
	}
	if _, ok := s.GetInviteIntent("b@example.com"); ok {
		t.Error("expected intents cleared after purge")
	}
}
