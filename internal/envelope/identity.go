package envelope

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// IdentityPublic is a user's public identity (spec.md §3): an X448 key
// agreement key, a signature verification key (Ed25519 or Ed448 — the
// sizes differ, so the server must know which algorithm was declared), and
// an optional Kyber key for the post-quantum hybrid variant.
type IdentityPublic struct {
	ID       Uid
	X448     PublicKey
	Sig      PublicKey
	SigAlg   KeyAlg // AlgEd25519Pub or AlgEd448Pub — tags how to interpret Sig/signatures
	Kyber    PublicKey
	HasKyber bool
}

type identityPublicWire struct {
	ID     Uid    `json:"id"`
	X448   string `json:"x448"`
	SigAlg string `json:"sig_alg"`
	Sig    string `json:"sig"`
	Kyber  string `json:"kyber,omitempty"`
}

func sigAlgByName(name string) (pub, sig KeyAlg, err error) {
	switch name {
	case "ed25519":
		return AlgEd25519Pub, AlgEd25519Sig, nil
	case "ed448":
		return AlgEd448Pub, AlgEd448Sig, nil
	default:
		return KeyAlg{}, KeyAlg{}, fmt.Errorf("envelope: unknown signature algorithm %q", name)
	}
}

func (p IdentityPublic) MarshalJSON() ([]byte, error) {
	w := identityPublicWire{
		ID:     p.ID,
		X448:   base64.StdEncoding.EncodeToString(p.X448.Bytes()),
		SigAlg: p.SigAlg.String(),
		Sig:    base64.StdEncoding.EncodeToString(p.Sig.Bytes()),
	}
	if p.HasKyber {
		w.Kyber = base64.StdEncoding.EncodeToString(p.Kyber.Bytes())
	}
	return json.Marshal(w)
}

func (p *IdentityPublic) UnmarshalJSON(data []byte) error {
	var w identityPublicWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	pubAlg, _, err := sigAlgByName(w.SigAlg)
	if err != nil {
		return err
	}
	x448, err := DecodeKey(AlgX448, w.X448)
	if err != nil {
		return fmt.Errorf("envelope: identity.x448: %w", err)
	}
	sigKey, err := DecodeKey(pubAlg, w.Sig)
	if err != nil {
		return fmt.Errorf("envelope: identity.sig: %w", err)
	}
	p.ID = w.ID
	p.X448 = x448
	p.Sig = sigKey
	p.SigAlg = pubAlg
	if w.Kyber != "" {
		kyber, err := DecodeKey(AlgKyberPub, w.Kyber)
		if err != nil {
			return fmt.Errorf("envelope: identity.kyber: %w", err)
		}
		p.Kyber = kyber
		p.HasKyber = true
	}
	return nil
}

// IdentityEncrypted is a hybrid ECIES-style envelope (spec.md §3): a
// ciphertext plus the ephemeral public key (or Kyber ciphertext, for the
// post-quantum variant) used to derive the encryption key on the
// receiver's side. The server treats both fields as opaque bytes.
type IdentityEncrypted struct {
	Ciphertext []byte
	Ephemeral  []byte // ephemeral X448 public key, or Kyber ciphertext
}

type identityEncryptedWire struct {
	Ciphertext string `json:"ciphertext"`
	Ephemeral  string `json:"ephemeral"`
}

func (e IdentityEncrypted) MarshalJSON() ([]byte, error) {
	return json.Marshal(identityEncryptedWire{
		Ciphertext: base64.StdEncoding.EncodeToString(e.Ciphertext),
		Ephemeral:  base64.StdEncoding.EncodeToString(e.Ephemeral),
	})
}

func (e *IdentityEncrypted) UnmarshalJSON(data []byte) error {
	var w identityEncryptedWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ct, err := base64.StdEncoding.DecodeString(w.Ciphertext)
	if err != nil {
		return err
	}
	eph, err := base64.StdEncoding.DecodeString(w.Ephemeral)
	if err != nil {
		return err
	}
	e.Ciphertext = ct
	e.Ephemeral = eph
	return nil
}
