package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func setupAuditDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(Schema); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLogSync(t *testing.T) {
	db := setupAuditDB(t)
	a := NewLogger(db, 100)
	defer a.Close()

	entry := &Entry{Operation: "signup", Status: "success", DurationMs: 42}
	if err := a.Log(context.Background(), entry); err != nil {
		t.Fatal(err)
	}
	if entry.EntryID == "" {
		t.Fatal("entry_id not generated")
	}

	var op string
	db.QueryRow("SELECT operation FROM audit_log WHERE entry_id=?", entry.EntryID).Scan(&op)
	if op != "signup" {
		t.Fatalf("operation: got %q", op)
	}
}

func TestLogAsync(t *testing.T) {
	db := setupAuditDB(t)
	a := NewLogger(db, 100)

	a.LogAsync(&Entry{Operation: "node.move"})
	a.Close()

	var count int
	db.QueryRow("SELECT COUNT(*) FROM audit_log WHERE operation='node.move'").Scan(&count)
	if count != 1 {
		t.Fatalf("async count: got %d", count)
	}
}

func TestRecordSuccess(t *testing.T) {
	db := setupAuditDB(t)
	a := NewLogger(db, 100)

	a.Record(context.Background(), "upload.finish", map[string]string{"file_id": "f1"}, map[string]int{"parts": 3}, nil, 100*time.Millisecond)
	a.Close()

	var status, params, result string
	db.QueryRow("SELECT status, parameters, result FROM audit_log WHERE operation='upload.finish'").Scan(&status, &params, &result)
	if status != "success" {
		t.Fatalf("status: got %q", status)
	}
	if params == "" || result == "" {
		t.Fatal("parameters/result not marshalled")
	}
}

func TestRecordError(t *testing.T) {
	db := setupAuditDB(t)
	a := NewLogger(db, 100)

	a.Record(context.Background(), "login", nil, nil, errors.New("bad credentials"), 5*time.Millisecond)
	a.Close()

	var status, errMsg string
	db.QueryRow("SELECT status, error_message FROM audit_log WHERE operation='login'").Scan(&status, &errMsg)
	if status != "error" {
		t.Fatalf("status: got %q", status)
	}
	if errMsg != "bad credentials" {
		t.Fatalf("error_message: got %q", errMsg)
	}
}

func TestQueryFiltersByOperation(t *testing.T) {
	db := setupAuditDB(t)
	a := NewLogger(db, 100)

	a.Log(context.Background(), &Entry{Operation: "signup", Status: "success"})
	a.Log(context.Background(), &Entry{Operation: "login", Status: "error"})

	op := "signup"
	entries, err := a.Query(context.Background(), &Filter{Operation: &op, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Operation != "signup" {
		t.Fatalf("entries = %+v", entries)
	}

	a.Close()
}

func TestCleanupRetention(t *testing.T) {
	db := setupAuditDB(t)
	a := NewLogger(db, 100)

	a.Log(context.Background(), &Entry{Operation: "old", Timestamp: time.Now().Add(-40 * 24 * time.Hour)})
	a.Log(context.Background(), &Entry{Operation: "new"})

	deleted, err := a.Cleanup(context.Background(), 30)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Fatalf("deleted: got %d", deleted)
	}

	a.Close()
}
