package envelope

import (
	"encoding/json"
	"testing"
)

func TestUidRoundTrip(t *testing.T) {
	id := NewUid()
	s := id.String()
	got, err := ParseUid(s)
	if err != nil {
		t.Fatalf("ParseUid(%q): %v", s, err)
	}
	if got != id {
		t.Errorf("ParseUid(String()) = %v, want %v", got, id)
	}
}

func TestUidSentinels(t *testing.T) {
	if RootID != 0 {
		t.Errorf("RootID = %v, want 0", RootID)
	}
	if NoParentID != Uid(1<<64-1) {
		t.Errorf("NoParentID = %v, want 2^64-1", NoParentID)
	}
}

func TestUidJSON(t *testing.T) {
	id := NewUid()
	data, err := json.Marshal(id)
	if err != nil {
		t.Fatal(err)
	}
	var got Uid
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got != id {
		t.Errorf("round trip = %v, want %v", got, id)
	}
}

func TestKeyAlgMismatchRejected(t *testing.T) {
	_, err := NewKey(AlgX448, make([]byte, 10))
	if err == nil {
		t.Fatal("expected error for wrong-size key")
	}
}

func TestKeyEqualAcrossAlgs(t *testing.T) {
	a, _ := NewKey(AlgEd25519Pub, make([]byte, 32))
	b, _ := NewKey(AlgX448, make([]byte, 56))
	if a.Equal(b) {
		t.Error("keys of different algorithms/sizes must never compare equal")
	}
}

func TestEncryptedRoundTrip(t *testing.T) {
	e := Encrypted{Ciphertext: []byte("ciphertext"), Salt: GenerateSalt()}
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	var got Encrypted
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if string(got.Ciphertext) != "ciphertext" || got.Salt != e.Salt {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestIdentityPublicRoundTrip(t *testing.T) {
	x448, _ := NewKey(AlgX448, make([]byte, 56))
	sig, _ := NewKey(AlgEd25519Pub, make([]byte, 32))
	p := IdentityPublic{ID: NewUid(), X448: x448, Sig: sig, SigAlg: AlgEd25519Pub}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var got IdentityPublic
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != p.ID || !got.X448.Equal(p.X448) || !got.Sig.Equal(p.Sig) {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.HasKyber {
		t.Error("HasKyber should be false when no kyber key was set")
	}
}
