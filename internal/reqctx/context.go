// Package reqctx carries request-scoped identifiers through a context.Context
// so handlers, the façade, and the audit logger can all tag their output
// with the same request/trace/session ids without threading them as
// explicit parameters.
package reqctx

import "context"

type contextKey string

const (
	RequestIDKey contextKey = "coordplane_request_id"
	TraceIDKey   contextKey = "coordplane_trace_id"
	SessionIDKey contextKey = "coordplane_session_id"
	RemoteAddrKey contextKey = "coordplane_remote_addr"
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TraceIDKey, id)
}

func GetTraceID(ctx context.Context) string {
	v, _ := ctx.Value(TraceIDKey).(string)
	return v
}

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SessionIDKey, id)
}

func GetSessionID(ctx context.Context) string {
	v, _ := ctx.Value(SessionIDKey).(string)
	return v
}

func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, RemoteAddrKey, addr)
}

func GetRemoteAddr(ctx context.Context) string {
	v, _ := ctx.Value(RemoteAddrKey).(string)
	return v
}
