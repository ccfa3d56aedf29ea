package reqctx

import (
	"context"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTraceID(ctx, "trace-1")
	ctx = WithSessionID(ctx, "sess-1")
	ctx = WithRemoteAddr(ctx, "10.0.0.1")

	if got := GetRequestID(ctx); got != "req-1" {
		t.Errorf("GetRequestID() = %q, want req-1", got)
	}
	if got := GetTraceID(ctx); got != "trace-1" {
		t.Errorf("GetTraceID() = %q, want trace-1", got)
	}
	if got := GetSessionID(ctx); got != "sess-1" {
		t.Errorf("GetSessionID() = %q, want sess-1", got)
	}
	if got := GetRemoteAddr(ctx); got != "10.0.0.1" {
		t.Errorf("GetRemoteAddr() = %q, want 10.0.0.1", got)
	}
}

func TestMissingValuesReturnZero(t *testing.T) {
	ctx := context.Background()
	if got := GetRequestID(ctx); got != "" {
		t.Errorf("GetRequestID() on empty ctx = %q, want empty", got)
	}
}
