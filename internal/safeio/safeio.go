// Package safeio provides secret and body-size hygiene primitives shared
// across coordplane's HTTP surface: minimum secret length enforcement for
// the static bearer token, and bounded reads for request bodies.
package safeio

import (
	"errors"
	"fmt"
	"io"
)

// MinSecretLen is the minimum acceptable length for the static bearer
// secret. 32 bytes = 256 bits of entropy.
const MinSecretLen = 32

// MaxRequestBody is the default cap on request body reads (16 MiB); large
// binary payloads go through the presigned-URL upload path instead.
const MaxRequestBody int64 = 16 << 20

// ErrSecretTooShort is returned when a secret does not meet MinSecretLen.
var ErrSecretTooShort = fmt.Errorf("safeio: secret must be at least %d bytes", MinSecretLen)

// ErrBodyTooLarge is returned when LimitedReadAll exceeds its cap.
var ErrBodyTooLarge = errors.New("safeio: request body exceeds limit")

// ValidateSecret checks that secret is at least MinSecretLen bytes.
func ValidateSecret(secret []byte) error {
	if len(secret) < MinSecretLen {
		return ErrSecretTooShort
	}
	return nil
}

// LimitedReadAll reads at most maxBytes from r, returning ErrBodyTooLarge if
// the limit is exceeded.
func LimitedReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	lr := io.LimitReader(r, maxBytes+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}
