package legacyupload

import (
	"strings"
	"testing"
)

func TestParseRangeValid(t *testing.T) {
	r, err := ParseRange("bytes=100-200")
	if err != nil {
		t.Fatalf("ParseRange: %v", err)
	}
	if r.Start != 100 || r.End != 200 {
		t.Errorf("ParseRange = %+v, want {100 200}", r)
	}
}

func TestParseRangeInvalid(t *testing.T) {
	cases := []string{
		"100-200",
		"bytes=100-",
		"bytes=-200",
		"bytes=100200",
		"bytes=abc-200",
		"bytes=100-xyz",
	}
	for _, c := range cases {
		if _, err := ParseRange(c); err == nil {
			t.Errorf("ParseRange(%q) expected error", c)
		}
	}
}

func TestParseContentRangeWithSize(t *testing.T) {
	cr, err := ParseContentRange("bytes 0-499/1234")
	if err != nil {
		t.Fatalf("ParseContentRange: %v", err)
	}
	if cr.Start != 0 || cr.End != 499 || cr.Length == nil || *cr.Length != 1234 {
		t.Errorf("ParseContentRange = %+v, want {0 499 1234}", cr)
	}
}

func TestParseContentRangeWithoutSize(t *testing.T) {
	cr, err := ParseContentRange("bytes 0-499/*")
	if err != nil {
		t.Fatalf("ParseContentRange: %v", err)
	}
	if cr.Length != nil {
		t.Errorf("expected nil Length for '*', got %v", *cr.Length)
	}
}

func TestParseContentRangeInvalid(t *testing.T) {
	cases := []string{
		"0-499/1234",
		"bytes 0499/1234",
		"bytes 0-4991234",
		"bytes 0-abc/1234",
		"bytes 0-499/abc",
		"bytes 0-/1234",
		"",
		"bytes 0 - 499 / 1234",
	}
	for _, c := range cases {
		if _, err := ParseContentRange(c); err == nil {
			t.Errorf("ParseContentRange(%q) expected error", c)
		}
	}
}

func TestAppendRejectsMalformedContentRange(t *testing.T) {
	dir := t.TempDir()
	a, err := NewAppender(dir, []byte(strings.Repeat("x", 32)))
	if err != nil {
		t.Fatalf("NewAppender: %v", err)
	}

	if err := a.Append("upload-1", "not-a-content-range", strings.NewReader("data")); err == nil {
		t.Fatal("expected rejection for malformed Content-Range")
	}
}

func TestAppendWritesAndAccumulates(t *testing.T) {
	dir := t.TempDir()
	a, err := NewAppender(dir, []byte(strings.Repeat("x", 32)))
	if err != nil {
		t.Fatalf("NewAppender: %v", err)
	}

	if err := a.Append("upload-1", "", strings.NewReader("hello ")); err != nil {
		t.Fatalf("first Append: %v", err)
	}
	if err := a.Append("upload-1", "", strings.NewReader("world")); err != nil {
		t.Fatalf("second Append: %v", err)
	}

	length, err := a.Length("upload-1")
	if err != nil {
		t.Fatalf("Length: %v", err)
	}
	if length != int64(len("hello world")) {
		t.Errorf("Length = %d, want %d", length, len("hello world"))
	}
}

func TestAuthorizedConstantTime(t *testing.T) {
	a, err := NewAppender(t.TempDir(), []byte(strings.Repeat("x", 32)))
	if err != nil {
		t.Fatalf("NewAppender: %v", err)
	}
	if !a.Authorized([]byte(strings.Repeat("x", 32))) {
		t.Error("expected matching token to authorize")
	}
	if a.Authorized([]byte(strings.Repeat("y", 32))) {
		t.Error("expected mismatched token to be rejected")
	}
}

func TestNewAppenderRejectsShortToken(t *testing.T) {
	if _, err := NewAppender(t.TempDir(), []byte("short")); err == nil {
		t.Fatal("expected rejection for short auth token")
	}
}
