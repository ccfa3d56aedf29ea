package envelope

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// SaltSize is the length of a Salt in bytes (spec.md §3).
const SaltSize = 32

// Salt is 32 random bytes, used as AEAD salt material, WebAuthn challenge
// bytes, and unlock Seeds.
type Salt [SaltSize]byte

// GenerateSalt returns a fresh random Salt.
func GenerateSalt() Salt {
	var s Salt
	if _, err := rand.Read(s[:]); err != nil {
		panic("envelope: crypto/rand failed: " + err.Error())
	}
	return s
}

func (s Salt) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(s[:]))
}

func (s *Salt) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(str)
	if err != nil {
		return fmt.Errorf("envelope: bad salt encoding: %w", err)
	}
	if len(raw) != SaltSize {
		return fmt.Errorf("envelope: salt must be %d bytes, got %d", SaltSize, len(raw))
	}
	copy(s[:], raw)
	return nil
}
