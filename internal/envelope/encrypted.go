package envelope

import (
	"encoding/base64"
	"encoding/json"
)

// Encrypted is an AEAD ciphertext plus the salt used to derive its key
// (spec.md §3). The server never decrypts it; it only stores, copies, and
// serializes it.
type Encrypted struct {
	Ciphertext []byte `json:"-"`
	Salt       Salt   `json:"salt"`
}

type encryptedWire struct {
	Ciphertext string `json:"ciphertext"`
	Salt       Salt   `json:"salt"`
}

func (e Encrypted) MarshalJSON() ([]byte, error) {
	return json.Marshal(encryptedWire{
		Ciphertext: base64.StdEncoding.EncodeToString(e.Ciphertext),
		Salt:       e.Salt,
	})
}

func (e *Encrypted) UnmarshalJSON(data []byte) error {
	var w encryptedWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(w.Ciphertext)
	if err != nil {
		return err
	}
	e.Ciphertext = raw
	e.Salt = w.Salt
	return nil
}

// Lock represents a payload encrypted under a master key, with the master
// key itself encrypted under a password-derived key (spec.md §3).
type Lock struct {
	Ciphertext []byte    `json:"-"`
	MasterKey  Encrypted `json:"master_key"`
}

type lockWire struct {
	Ciphertext string    `json:"ciphertext"`
	MasterKey  Encrypted `json:"master_key"`
}

func (l Lock) MarshalJSON() ([]byte, error) {
	return json.Marshal(lockWire{
		Ciphertext: base64.StdEncoding.EncodeToString(l.Ciphertext),
		MasterKey:  l.MasterKey,
	})
}

func (l *Lock) UnmarshalJSON(data []byte) error {
	var w lockWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(w.Ciphertext)
	if err != nil {
		return err
	}
	l.Ciphertext = raw
	l.MasterKey = w.MasterKey
	return nil
}
