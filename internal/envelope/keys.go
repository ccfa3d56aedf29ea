package envelope

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// KeyAlg tags a fixed-size key with the algorithm it belongs to — the Go
// stand-in for original_source/src/key.rs's phantom-typed `Key<T, SIZE>`.
// Keys of every algorithm share the one Go type Key, so the compiler does
// not keep an X448 key apart from an Ed25519 key; the size is carried on
// the KeyAlg value itself, asserted in NewKey, and compared by Key.Equal.
type KeyAlg struct {
	name string
	size int
}

func (a KeyAlg) String() string { return a.name }

var (
	AlgX448       = KeyAlg{"x448", 56}
	AlgEd25519Pub = KeyAlg{"ed25519", 32}
	AlgEd25519Sig = KeyAlg{"ed25519-sig", 64}
	AlgEd448Pub   = KeyAlg{"ed448", 57}
	AlgEd448Sig   = KeyAlg{"ed448-sig", 114}
	AlgKyberPub   = KeyAlg{"kyber", 1568}
	AlgKyberCt    = KeyAlg{"kyber-ct", 1568}
)

// Key is a fixed-size, algorithm-tagged byte wrapper used for public keys,
// private keys, signatures, and ciphertext blobs whose length is dictated
// by a specific algorithm. It is the single representation behind the
// PublicKey/PrivateKey/Signature aliases below — the Go equivalent of the
// Rust prototype's `PrivateKey<T, N>` / `PublicKey<T, N>`, minus compile-time
// phantom typing (Go generics can't peg an array length to a type
// parameter), enforced instead at construction via NewKey/size checks.
type Key struct {
	alg   KeyAlg
	bytes []byte
}

// NewKey builds a Key of alg from raw bytes, rejecting any length mismatch
// so a key for one algorithm can never silently masquerade as another.
func NewKey(alg KeyAlg, raw []byte) (Key, error) {
	if len(raw) != alg.size {
		return Key{}, fmt.Errorf("envelope: %s key must be %d bytes, got %d", alg, alg.size, len(raw))
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return Key{alg: alg, bytes: cp}, nil
}

// Alg reports the algorithm this key was constructed for.
func (k Key) Alg() KeyAlg { return k.alg }

// Bytes returns a defensive copy of the key's raw bytes.
func (k Key) Bytes() []byte {
	cp := make([]byte, len(k.bytes))
	copy(cp, k.bytes)
	return cp
}

func (k Key) IsZero() bool { return k.bytes == nil }

func (k Key) Equal(other Key) bool {
	if k.alg != other.alg || len(k.bytes) != len(other.bytes) {
		return false
	}
	for i := range k.bytes {
		if k.bytes[i] != other.bytes[i] {
			return false
		}
	}
	return true
}

func (k Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(k.bytes))
}

// PublicKey, PrivateKey, and Signature are all represented by Key; the
// aliases exist purely for readability at call sites — NewKey's algorithm
// argument is what actually enforces size and identity, not the Go type.
type (
	PublicKey  = Key
	PrivateKey = Key
	Signature  = Key
)

// DecodeKey is the inverse of MarshalJSON for a given algorithm: it decodes
// standard Base64 and re-validates the expected size.
func DecodeKey(alg KeyAlg, b64 string) (Key, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Key{}, fmt.Errorf("envelope: bad key encoding: %w", err)
	}
	return NewKey(alg, raw)
}
