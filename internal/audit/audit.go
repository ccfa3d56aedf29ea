// Package audit persists a record of the façade operations that report to
// it — signup, login, get-user, get-invite, finish-invite-intents and
// purge — for after-the-fact
// forensics. It never stores plaintext content: Parameters/Result are
// small JSON summaries (ids, sizes, counts), never envelope payloads.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vaultmesh/coordplane/internal/idgen"
)

// Entry is a single operation record in the audit trail.
type Entry struct {
	EntryID   string
	Timestamp time.Time
	Operation string // e.g. "signup", "node.move", "upload.finish"

	UserID    string
	SessionID string
	RequestID string

	Parameters string // JSON, ids/sizes/counts only — never ciphertext
	Result     string // JSON
	Error      string
	DurationMs int64

	Status string // "success" or "error"
}

// Filter controls query results from the audit log.
type Filter struct {
	StartTime *time.Time
	EndTime   *time.Time
	Operation *string
	Status    *string
	Limit     int
	Offset    int
	OrderDir  string // "ASC" or "DESC"
}

// Logger persists entries asynchronously, batching writes to avoid
// putting SQLite on the latency-critical path of every façade call.
type Logger struct {
	db    *sql.DB
	newID idgen.Generator
	ch    chan *Entry
	stop  chan struct{}
	done  chan struct{}
}

// NewLogger creates an async audit logger. bufferSize of 1000 is a
// reasonable default for a single-instance coordination plane.
func NewLogger(db *sql.DB, bufferSize int) *Logger {
	a := &Logger{
		db:    db,
		newID: idgen.Prefixed("audit_", idgen.Default),
		ch:    make(chan *Entry, bufferSize),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go a.flushLoop()
	return a
}

// Log inserts an audit entry synchronously.
func (a *Logger) Log(ctx context.Context, entry *Entry) error {
	a.fillDefaults(entry)
	return a.insert(ctx, entry)
}

// Record builds and queues an entry from operation parameters, a
// result and an error. Params/result are marshalled to JSON; callers
// must not pass anything containing ciphertext or key material.
func (a *Logger) Record(ctx context.Context, operation string, params, result interface{}, err error, duration time.Duration) {
	entry := &Entry{
		EntryID:    a.newID(),
		Timestamp:  time.Now(),
		Operation:  operation,
		DurationMs: duration.Milliseconds(),
	}
	if params != nil {
		if b, e := json.Marshal(params); e == nil {
			entry.Parameters = string(b)
		}
	}
	if err != nil {
		entry.Status = "error"
		entry.Error = err.Error()
	} else {
		entry.Status = "success"
		if result != nil {
			if b, e := json.Marshal(result); e == nil {
				entry.Result = string(b)
			}
		}
	}
	a.LogAsync(entry)
}

// LogAsync queues an entry for async persistence, falling back to a
// synchronous insert if the buffer is full.
func (a *Logger) LogAsync(entry *Entry) {
	a.fillDefaults(entry)
	select {
	case a.ch <- entry:
	default:
		slog.Warn("audit buffer full, sync fallback", "operation", entry.Operation)
		if err := a.insert(context.Background(), entry); err != nil {
			slog.Error("audit: sync fallback failed", "error", err)
		}
	}
}

// Query retrieves audit entries matching the given filter.
func (a *Logger) Query(ctx context.Context, f *Filter) ([]*Entry, error) {
	q := `SELECT entry_id, timestamp, operation, user_id, session_id,
		request_id, parameters, result, error_message, duration_ms, status
		FROM audit_log WHERE 1=1`
	var args []interface{}

	if f.StartTime != nil {
		q += " AND timestamp >= ?"
		args = append(args, f.StartTime.Unix())
	}
	if f.EndTime != nil {
		q += " AND timestamp <= ?"
		args = append(args, f.EndTime.Unix())
	}
	if f.Operation != nil {
		q += " AND operation = ?"
		args = append(args, *f.Operation)
	}
	if f.Status != nil {
		q += " AND status = ?"
		args = append(args, *f.Status)
	}

	orderDir := "DESC"
	if f.OrderDir != "" {
		switch strings.ToUpper(f.OrderDir) {
		case "ASC", "DESC":
			orderDir = strings.ToUpper(f.OrderDir)
		default:
			return nil, fmt.Errorf("invalid order_dir: %q", f.OrderDir)
		}
	}
	q += " ORDER BY timestamp " + orderDir

	limit := 100
	if f.Limit > 0 {
		limit = f.Limit
	}
	q += " LIMIT ?"
	args = append(args, limit)
	if f.Offset > 0 {
		q += " OFFSET ?"
		args = append(args, f.Offset)
	}

	rows, err := a.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var ts int64
		var userID, sessionID, requestID, result, errMsg sql.NullString
		var durationMs sql.NullInt64

		if err := rows.Scan(
			&e.EntryID, &ts, &e.Operation, &userID, &sessionID, &requestID,
			&e.Parameters, &result, &errMsg, &durationMs, &e.Status,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		e.Timestamp = time.Unix(ts, 0)
		e.UserID = userID.String
		e.SessionID = sessionID.String
		e.RequestID = requestID.String
		e.Result = result.String
		e.Error = errMsg.String
		e.DurationMs = durationMs.Int64
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Cleanup deletes audit entries older than retentionDays.
func (a *Logger) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	threshold := time.Now().AddDate(0, 0, -retentionDays).Unix()
	result, err := a.db.ExecContext(ctx, "DELETE FROM audit_log WHERE timestamp < ?", threshold)
	if err != nil {
		return 0, fmt.Errorf("cleanup audit log: %w", err)
	}
	return result.RowsAffected()
}

// Close drains the buffer and stops the flush goroutine.
func (a *Logger) Close() error {
	close(a.stop)
	<-a.done
	return nil
}

func (a *Logger) fillDefaults(e *Entry) {
	if e.EntryID == "" {
		e.EntryID = a.newID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.Status == "" {
		if e.Error != "" {
			e.Status = "error"
		} else {
			e.Status = "success"
		}
	}
}

func (a *Logger) flushLoop() {
	defer close(a.done)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	batch := make([]*Entry, 0, 100)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		tx, err := a.db.BeginTx(ctx, nil)
		if err != nil {
			slog.Error("audit: begin tx", "error", err)
			return
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO audit_log
			(entry_id, timestamp, operation, user_id, session_id, request_id,
			 parameters, result, error_message, duration_ms, status)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
		if err != nil {
			tx.Rollback()
			slog.Error("audit: prepare", "error", err)
			return
		}
		defer stmt.Close()

		for _, e := range batch {
			if _, err := stmt.ExecContext(ctx,
				e.EntryID, e.Timestamp.Unix(), e.Operation, e.UserID, e.SessionID, e.RequestID,
				e.Parameters, e.Result, e.Error, e.DurationMs, e.Status,
			); err != nil {
				slog.Error("audit: insert", "error", err, "entry_id", e.EntryID)
			}
		}
		if err := tx.Commit(); err != nil {
			slog.Error("audit: commit", "error", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-a.stop:
			for {
				select {
				case e := <-a.ch:
					batch = append(batch, e)
				default:
					flush()
					return
				}
			}
		case e := <-a.ch:
			batch = append(batch, e)
			if len(batch) >= 100 {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (a *Logger) insert(ctx context.Context, e *Entry) error {
	_, err := a.db.ExecContext(ctx, `INSERT INTO audit_log
		(entry_id, timestamp, operation, user_id, session_id, request_id,
		 parameters, result, error_message, duration_ms, status)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		e.EntryID, e.Timestamp.Unix(), e.Operation, e.UserID, e.SessionID, e.RequestID,
		e.Parameters, e.Result, e.Error, e.DurationMs, e.Status)
	return err
}
