package userstore

import (
	"testing"

	"github.com/vaultmesh/coordplane/internal/envelope"
)

func TestCredentialsRoundTrip(t *testing.T) {
	s := New()
	s.AddCredentials("a@example.com", envelope.Uid(42))
	id, ok := s.IDForEmail("a@example.com")
	if !ok || id != envelope.Uid(42) {
		t.Fatalf("IDForEmail = %v, %v; want 42, true", id, ok)
	}
}

func TestCredentialsReplace(t *testing.T) {
	s := New()
	s.AddCredentials("a@example.com", envelope.Uid(1))
	s.AddCredentials("a@example.com", envelope.Uid(2))
	id, _ := s.IDForEmail("a@example.com")
	if id != envelope.Uid(2) {
		t.Errorf("expected replaced id 2, got %v", id)
	}
}

func TestMasterKeyFor(t *testing.T) {
	s := New()
	want := envelope.Encrypted{Ciphertext: []byte("mk"), Salt: envelope.GenerateSalt()}
	s.AddPriv(envelope.Uid(1), envelope.Lock{MasterKey: want})

	got, ok := s.MasterKeyFor(envelope.Uid(1))
	if !ok {
		t.Fatal("expected MasterKeyFor to find entry")
	}
	if string(got.Ciphertext) != "mk" || got.Salt != want.Salt {
		t.Errorf("MasterKeyFor = %+v, want %+v", got, want)
	}
}

func TestMasterKeyForMissing(t *testing.T) {
	s := New()
	if _, ok := s.MasterKeyFor(envelope.Uid(999)); ok {
		t.Error("expected missing user to return ok=false")
	}
}

func TestPurge(t *testing.T) {
	s := New()
	s.AddCredentials("a@example.com", envelope.Uid(1))
	s.AddPub(envelope.Uid(1), envelope.IdentityPublic{ID: envelope.Uid(1)})
	s.AddPriv(envelope.Uid(1), envelope.Lock{})

	s.Purge()

	if _, ok := s.IDForEmail("a@example.com"); ok {
		t.Error("expected credentials cleared")
	}
	if _, ok := s.PubForID(envelope.Uid(1)); ok {
		t.Error("expected public keys cleared")
	}
	if _, ok := s.PrivForID(envelope.Uid(1)); ok {
		t.Error("expected private keys cleared")
	}
}
