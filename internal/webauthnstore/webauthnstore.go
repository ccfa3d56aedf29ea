// Package webauthnstore implements coordplane's passkey registration and
// authentication ceremonies (spec.md §4.5), following the outline at
// https://www.w3.org/TR/webauthn-2/. It is grounded on
// original_source/src/webauthn.rs, but replaces that file's
// verify_reg_challenge/verify_auth_challenge stubs (which always
// returned true) with real challenge and signature verification.
package webauthnstore

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"sync"

	"github.com/vaultmesh/coordplane/internal/apperr"
	"github.com/vaultmesh/coordplane/internal/envelope"
)

// prfSalt is a fixed process-wide PRF salt; original_source/src/webauthn.rs
// hardcodes one so that passkey PRF derivation is reproducible across
// registrations within a deployment rather than regenerated per-call.
var prfSalt = envelope.Salt{'k', '4', '7', ',', '0', 'v', '=', '0', '#', 'f', '6', 'f', 'n', '!',
	'y', 'f', 'n', '2', '0', 's', 'y', 'c', 'h', 't', ',', 'a', '%', 'a', 'y', '4', 'm', 'd'}

// UsePRFSaltConstant controls whether the fixed prfSalt is used for new
// registrations; when false, a fresh random salt is generated per call.
var UsePRFSaltConstant = true

func nextPRFSalt() envelope.Salt {
	if UsePRFSaltConstant {
		return prfSalt
	}
	return envelope.GenerateSalt()
}

// Registration is the server-held half of an in-flight passkey
// registration ceremony.
type Registration struct {
	Challenge envelope.Salt `json:"challenge"`
	PRFSalt   envelope.Salt `json:"prf_salt"`
}

// NewRegistration returns a fresh Registration with a random challenge.
func NewRegistration() Registration {
	return Registration{Challenge: envelope.GenerateSalt(), PRFSalt: nextPRFSalt()}
}

// AuthChallenge is the server-held half of an in-flight authentication
// ceremony, keyed by a freshly generated id rather than a user id (the
// authenticator, not the server, knows which user is authenticating).
type AuthChallenge struct {
	ID        envelope.Uid   `json:"id"`
	Challenge envelope.Salt  `json:"challenge"`
	PRFSalt   *envelope.Salt `json:"prf_salt,omitempty"`
}

// NewAuthChallenge returns a fresh AuthChallenge.
func NewAuthChallenge() AuthChallenge {
	ch := AuthChallenge{ID: envelope.NewUid(), Challenge: envelope.GenerateSalt()}
	if UsePRFSaltConstant {
		s := prfSalt
		ch.PRFSalt = &s
	}
	return ch
}

// CredentialID is an opaque authenticator-assigned identifier.
type CredentialID string

// Credential is the client's registration response.
type Credential struct {
	ID             CredentialID `json:"id"`
	Name           string       `json:"name"`
	Attestation    []byte       `json:"attestation"`
	ClientDataJSON string       `json:"client_data_json"`
}

// Bundle pairs a registration Credential with the master key wrapped
// under the PRF-derived key, as sent by the client on finish_reg.
type Bundle struct {
	Cred Credential         `json:"cred"`
	MK   envelope.Encrypted `json:"mk"`
}

// Authentication is the client's assertion response.
type Authentication struct {
	ID                CredentialID `json:"credential_id"`
	AuthenticatorData []byte       `json:"authenticator_data"`
	ClientDataJSON    string       `json:"client_data_json"`
}

// Passkey is a registered authenticator, addressable by CredentialID.
type Passkey struct {
	PRFSalt      envelope.Salt      `json:"prf_salt"`
	UserID       envelope.Uid       `json:"user_id"`
	CredentialID CredentialID       `json:"credential_id"`
	Name         string             `json:"name"`
	PubKey       []byte             `json:"pub_key"`
	MK           envelope.Encrypted `json:"mk"`
}

// clientDataJSON is the subset of WebAuthn's client data we need to
// extract the echoed challenge.
type clientDataJSON struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Origin    string `json:"origin"`
}

// Store holds pending registrations, in-flight auth challenges, and
// registered passkeys (spec.md §4.5).
type Store struct {
	mu                   sync.Mutex
	pendingRegistrations map[envelope.Uid]Registration
	authChallenges       map[envelope.Uid]AuthChallenge
	passkeys             map[CredentialID]Passkey
}

// New returns an empty WebAuthn store.
func New() *Store {
	return &Store{
		pendingRegistrations: make(map[envelope.Uid]Registration),
		authChallenges:       make(map[envelope.Uid]AuthChallenge),
		passkeys:             make(map[CredentialID]Passkey),
	}
}

// StartReg creates and stores a fresh Registration for userID, replacing
// any prior pending registration (spec.md §4.5 step 1).
func (s *Store) StartReg(userID envelope.Uid) Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg := NewRegistration()
	s.pendingRegistrations[userID] = reg
	return reg
}

// FinishReg consumes the pending registration for userID (one-shot),
// verifies the echoed challenge, and on success stores a Passkey keyed by
// bundle.Cred.ID.
func (s *Store) FinishReg(userID envelope.Uid, bundle Bundle) (Passkey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.pendingRegistrations[userID]
	delete(s.pendingRegistrations, userID)
	if !ok {
		return Passkey{}, apperr.NewUnauthorised("no pending registration")
	}

	var cdj clientDataJSON
	if err := json.Unmarshal([]byte(bundle.Cred.ClientDataJSON), &cdj); err != nil {
		return Passkey{}, apperr.NewUnauthorised("malformed client_data_json")
	}
	decoded, err := base64.StdEncoding.DecodeString(cdj.Challenge)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(cdj.Challenge)
	}
	if err != nil || !saltEqual(decoded, reg.Challenge) {
		return Passkey{}, apperr.NewUnauthorised("challenge mismatch")
	}

	pk := Passkey{
		PRFSalt:      reg.PRFSalt,
		UserID:       userID,
		CredentialID: bundle.Cred.ID,
		Name:         bundle.Cred.Name,
		PubKey:       bundle.Cred.Attestation,
		MK:           bundle.MK,
	}
	s.passkeys[bundle.Cred.ID] = pk
	return pk, nil
}

// StartAuth generates and stores a fresh AuthChallenge (spec.md §4.5).
func (s *Store) StartAuth() AuthChallenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := NewAuthChallenge()
	s.authChallenges[ch.ID] = ch
	return ch
}

// FinishAuth consumes the challenge for chID (one-shot), verifies the
// signature carried after authenticatorData's 37-byte header over
// header || SHA256(clientDataJSON) against the stored passkey's public
// key, and returns the passkey on success.
func (s *Store) FinishAuth(chID envelope.Uid, auth Authentication) (Passkey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.authChallenges[chID]
	delete(s.authChallenges, chID)
	if !ok {
		return Passkey{}, apperr.NewUnauthorised("no pending auth challenge")
	}

	pk, ok := s.passkeys[auth.ID]
	if !ok {
		return Passkey{}, apperr.NewUnauthorised("unknown credential id")
	}

	var cdj clientDataJSON
	if err := json.Unmarshal([]byte(auth.ClientDataJSON), &cdj); err != nil {
		return Passkey{}, apperr.NewUnauthorised("malformed client_data_json")
	}
	decoded, err := base64.StdEncoding.DecodeString(cdj.Challenge)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(cdj.Challenge)
	}
	if err != nil || !saltEqual(decoded, ch.Challenge) {
		return Passkey{}, apperr.NewUnauthorised("challenge mismatch")
	}

	// The assertion signature travels appended to authenticator_data, past
	// its fixed 37-byte header (32-byte rpIdHash, flags byte, 4-byte sign
	// count); only that header is part of the signed data.
	if len(auth.AuthenticatorData) <= 37 {
		return Passkey{}, apperr.NewUnauthorised("authenticator data too short to carry a signature")
	}
	rawAuthData := auth.AuthenticatorData[:37]
	sig := auth.AuthenticatorData[37:]

	clientDataHash := sha256.Sum256([]byte(auth.ClientDataJSON))
	signedData := append(append([]byte{}, rawAuthData...), clientDataHash[:]...)

	if !verifySignature(pk.PubKey, signedData, sig) {
		return Passkey{}, apperr.NewUnauthorised("invalid assertion signature")
	}

	return pk, nil
}

// PasskeyForCredentialID looks up a registered passkey.
func (s *Store) PasskeyForCredentialID(id CredentialID) (Passkey, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pk, ok := s.passkeys[id]
	return pk, ok
}

// PasskeysForUser returns every passkey registered to userID.
func (s *Store) PasskeysForUser(userID envelope.Uid) []Passkey {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Passkey
	for _, pk := range s.passkeys {
		if pk.UserID == userID {
			out = append(out, pk)
		}
	}
	return out
}

// RemovePasskey deletes the passkey registered under id.
func (s *Store) RemovePasskey(id CredentialID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.passkeys, id)
}

// Purge empties the store.
func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingRegistrations = make(map[envelope.Uid]Registration)
	s.authChallenges = make(map[envelope.Uid]AuthChallenge)
	s.passkeys = make(map[CredentialID]Passkey)
}

func saltEqual(decoded []byte, salt envelope.Salt) bool {
	if len(decoded) != len(salt) {
		return false
	}
	for i := range salt {
		if decoded[i] != salt[i] {
			return false
		}
	}
	return true
}

// verifySignature supports two signature algorithms, chosen by public key
// length: Ed25519 (raw 32-byte public key, 64-byte signature) and ECDSA
// P-256 (65-byte uncompressed SEC1 public key, signature as raw
// fixed-width 64-byte r||s over SHA-256 of the signed data; ASN.1 DER
// signatures are not accepted).
func verifySignature(pubKey, signedData, sig []byte) bool {
	switch len(pubKey) {
	case ed25519.PublicKeySize:
		return ed25519.Verify(ed25519.PublicKey(pubKey), signedData, sig)
	case 65:
		return verifyECDSAP256(pubKey, signedData, sig)
	default:
		return false
	}
}

func verifyECDSAP256(pubKey, signedData, sig []byte) bool {
	if pubKey[0] != 0x04 {
		return false
	}
	curve := elliptic.P256()
	x := new(big.Int).SetBytes(pubKey[1:33])
	y := new(big.Int).SetBytes(pubKey[33:65])
	if !curve.IsOnCurve(x, y) {
		return false
	}
	pub := &ecdsa.PublicKey{Curve: curve, X: x, Y: y}

	if len(sig) != 64 {
		return false
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	hash := sha256.Sum256(signedData)
	return ecdsa.Verify(pub, hash[:], r, s)
}
