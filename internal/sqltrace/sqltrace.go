// Package sqltrace provides transparent SQL tracing for modernc.org/sqlite.
//
// It registers a "sqlite-trace" driver that wraps the standard "sqlite"
// driver, intercepting every Exec and Query at the database/sql/driver
// level. No application code changes are needed beyond switching the
// driver name:
//
//	import _ "github.com/vaultmesh/coordplane/internal/sqltrace" // registers "sqlite-trace"
//
//	// Trace store (opened with raw "sqlite" to avoid recursion)
//	traceDB, _ := sql.Open("sqlite", "traces.db")
//	store := sqltrace.NewStore(traceDB)
//	store.Init()
//	sqltrace.SetStore(store)
//
//	// Application DB — all queries are now traced automatically
//	db, _ := sql.Open("sqlite-trace", "coordplane.db")
//
// Without a Store (SetStore not called or nil), the driver still logs every
// query via slog with adaptive levels (Debug, Warn >100ms, Error on failure).
// Trace ID and remote address are read from context via reqctx.GetTraceID
// and reqctx.GetRemoteAddr — the remote address being the same
// shield.ExtractIP value the rate limiter keys on — so a slow or failing
// query can be traced
// back to both the request and the client IP that caused it.
package sqltrace

import (
	"database/sql"
	"sync"

	sqlite "modernc.org/sqlite"
)

// Entry is a single SQL trace record.
type Entry struct {
	TraceID    string // correlation with the HTTP request that issued the query
	RemoteAddr string // client IP, as seen by shield's rate limiter
	Op         string // "Exec" or "Query"
	Query      string // SQL statement
	DurationUs int64  // microseconds
	Error      string // empty if success
	Timestamp  int64  // unix microseconds
}

// Recorder is the interface for trace persistence backends. Store is the
// only implementation coordplane ships; the interface exists so tests can
// substitute a fake without touching sqlite.
type Recorder interface {
	RecordAsync(e *Entry)
	Close() error
}

var (
	globalStore Recorder
	storeMu     sync.RWMutex
)

// SetStore sets the global trace recorder for persistence. Pass nil to
// disable persistence (slog-only mode).
func SetStore(s Recorder) {
	storeMu.Lock()
	globalStore = s
	storeMu.Unlock()
}

func getStore() Recorder {
	storeMu.RLock()
	defer storeMu.RUnlock()
	return globalStore
}

func init() {
	sql.Register("sqlite-trace", &TracingDriver{
		Driver: &sqlite.Driver{},
	})
}
