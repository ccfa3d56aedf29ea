// Package envelope implements coordplane's binary envelope data model
// (spec.md §3): opaque identifiers, AEAD envelopes, password-derived
// locks, and algorithm-tagged fixed-size key wrappers (size checked at
// construction). The server never
// performs the cryptographic operations these types represent (no AEAD
// seal/open, no Diffie-Hellman, no signing) — per spec.md §1 it only
// enforces their contracts: sizes, signatures-as-opaque-bytes, and
// serialization. Clients hold the keys and do the actual cryptography.
package envelope

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// Uid is an opaque 64-bit identifier with a URL-safe Base64 textual form
// (spec.md §3).
type Uid uint64

// ROOT_ID is the sentinel id of a forest root's conventional placeholder;
// NO_PARENT_ID marks a node with no parent (spec.md §3, §4.1).
const (
	RootID     Uid = 0
	NoParentID Uid = ^Uid(0) // 2^64 - 1
)

// NewUid generates a random non-sentinel Uid.
func NewUid() Uid {
	for {
		var b [8]byte
		if _, err := rand.Read(b[:]); err != nil {
			panic("envelope: crypto/rand failed: " + err.Error())
		}
		id := Uid(binary.BigEndian.Uint64(b[:]))
		if id != RootID && id != NoParentID {
			return id
		}
	}
}

// String renders the Uid in URL-safe Base64 of its 8 big-endian bytes.
func (u Uid) String() string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(u))
	return base64.URLEncoding.EncodeToString(b[:])
}

// ParseUid decodes the URL-safe Base64 textual form produced by String.
func ParseUid(s string) (Uid, error) {
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return 0, fmt.Errorf("envelope: bad uid: %w", err)
	}
	if len(b) != 8 {
		return 0, fmt.Errorf("envelope: bad uid length %d", len(b))
	}
	return Uid(binary.BigEndian.Uint64(b)), nil
}

// MarshalJSON renders the Uid in its URL-safe Base64 textual form — 64-bit
// values don't round-trip through JSON numbers in every client runtime, so
// the wire form is always the string form (spec.md §3).
func (u Uid) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

func (u *Uid) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseUid(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
