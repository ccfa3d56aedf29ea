// Package shield provides reusable HTTP middleware for coordplane's
// request surface: security headers, a JSON body cap, rate limiting, a
// maintenance-mode gate, and request tracing. It is grounded on (and
// adapted from) the teacher's own shield package, trimmed to a JSON-API
// stack — the teacher's cookie-based Flash middleware has no home in an
// E2EE coordination API with no server-rendered pages, so it is dropped
// (see DESIGN.md).
//
// Usage:
//
//	stack, mm := shield.DefaultStack(auditDB, maxBodyBytes)
//	mm.StartReloader(done)
//	for _, mw := range stack {
//	    r.Use(mw)
//	}
package shield

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// DefaultStack returns coordplane's standard middleware stack, ordered
// Maintenance → HeadToGet → SecurityHeaders → MaxJSONBody → TraceID →
// RateLimiter. Health checks bypass maintenance and rate limiting.
func DefaultStack(db *sql.DB, maxBodyBytes int64) ([]func(http.Handler) http.Handler, *MaintenanceMode) {
	rl := NewRateLimiter(db, "/healthz")
	mm := NewMaintenanceMode(db, "/healthz")
	return []func(http.Handler) http.Handler{
		mm.Middleware,
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxJSONBody(maxBodyBytes),
		TraceID,
		rl.Middleware,
	}, mm
}

// GetLogger retrieves the per-request logger from the context, falling
// back to slog.Default() if none was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
