package safeio

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateSecret(t *testing.T) {
	if err := ValidateSecret(make([]byte, 32)); err != nil {
		t.Errorf("32 bytes should be valid, got %v", err)
	}
	if err := ValidateSecret(make([]byte, 31)); !errors.Is(err, ErrSecretTooShort) {
		t.Errorf("31 bytes should be ErrSecretTooShort, got %v", err)
	}
}

func TestLimitedReadAll(t *testing.T) {
	data, err := LimitedReadAll(strings.NewReader("hello"), 10)
	if err != nil || string(data) != "hello" {
		t.Fatalf("got (%q, %v), want (hello, nil)", data, err)
	}

	_, err = LimitedReadAll(strings.NewReader("hello world"), 5)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("got %v, want ErrBodyTooLarge", err)
	}
}
