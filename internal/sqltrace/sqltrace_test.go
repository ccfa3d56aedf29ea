package sqltrace

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func setupTraceDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStoreInit(t *testing.T) {
	db := setupTraceDB(t)
	store := NewStore(db)
	defer store.Close()

	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='sql_traces'").Scan(&count)
	if count != 1 {
		t.Fatal("sql_traces table not created")
	}
}

func TestStoreRecordAsyncAndClose(t *testing.T) {
	db := setupTraceDB(t)
	store := NewStore(db)
	store.Init()

	for i := 0; i < 10; i++ {
		store.RecordAsync(&Entry{
			TraceID:    "trc_abc",
			Op:         "Query",
			Query:      "SELECT 1",
			DurationUs: 42,
			Timestamp:  time.Now().UnixMicro(),
		})
	}

	store.Close()

	var count int
	db.QueryRow("SELECT COUNT(*) FROM sql_traces WHERE trace_id='trc_abc'").Scan(&count)
	if count != 10 {
		t.Fatalf("trace count: got %d, want 10", count)
	}
}

func TestStoreRecordsRemoteAddr(t *testing.T) {
	db := setupTraceDB(t)
	store := NewStore(db)
	store.Init()

	store.RecordAsync(&Entry{
		TraceID:    "trc_ip",
		RemoteAddr: "203.0.113.7",
		Op:         "Exec",
		Query:      "INSERT INTO nodes ...",
		DurationUs: 7,
		Timestamp:  time.Now().UnixMicro(),
	})
	store.Close()

	var addr string
	if err := db.QueryRow("SELECT remote_addr FROM sql_traces WHERE trace_id='trc_ip'").Scan(&addr); err != nil {
		t.Fatal(err)
	}
	if addr != "203.0.113.7" {
		t.Fatalf("remote_addr = %q, want 203.0.113.7", addr)
	}
}

func TestSetStoreNilDisablesPersistence(t *testing.T) {
	SetStore(nil)
	if getStore() != nil {
		t.Fatal("expected nil store")
	}
}

func TestTracingDriverRegistered(t *testing.T) {
	db, err := sql.Open("sqlite-trace", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE TABLE t (id INTEGER)"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("INSERT INTO t (id) VALUES (1)"); err != nil {
		t.Fatal(err)
	}

	var id int
	if err := db.QueryRow("SELECT id FROM t").Scan(&id); err != nil {
		t.Fatal(err)
	}
	if id != 1 {
		t.Fatalf("id = %d, want 1", id)
	}
}
