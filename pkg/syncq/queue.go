// Package syncq is the offline-first client companion to the locauto
// server. Writes made while disconnected are appended to a durable local
// queue, a monitor watches server reachability, and a sync engine replays
// the queue in order once the caller decides to synchronize.
package syncq

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Operation names accepted by the queue.
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// Entry is one queued write awaiting replay.
type Entry struct {
	ID         int64           `json:"id"`
	Table      string          `json:"table"`
	Operation  string          `json:"operation"`
	KeyField   string          `json:"key_field"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	Attempts   int             `json:"attempts"`
	LastError  string          `json:"last_error,omitempty"`
}

// Queue is a durable FIFO of pending writes backed by a local SQLite file.
// Each queue database carries a stable client ID identifying this
// installation to the server across reopens.
type Queue struct {
	db       *sql.DB
	clientID string
}

// NewQueue opens (creating if needed) the queue database at path.
func NewQueue(path string) (*Queue, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open queue database: %w", err)
	}

	q := &Queue{db: db}
	if err := q.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	if err := q.loadClientID(); err != nil {
		db.Close()
		return nil, err
	}
	return q, nil
}

func (q *Queue) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pending_operations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		table_name TEXT NOT NULL,
		operation TEXT NOT NULL,
		key_field TEXT NOT NULL,
		payload TEXT NOT NULL,
		enqueued_at TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		last_error TEXT NOT NULL DEFAULT '',
		abandoned INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS queue_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := q.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("migrate queue: %w", err)
	}
	return nil
}

// loadClientID reads the installation's client ID, minting one on first open.
func (q *Queue) loadClientID() error {
	err := q.db.QueryRow(
		`SELECT value FROM queue_meta WHERE key = 'client_id'`).Scan(&q.clientID)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("load client id: %w", err)
	}

	q.clientID = uuid.NewString()
	if _, err := q.db.Exec(
		`INSERT INTO queue_meta (key, value) VALUES ('client_id', ?)`, q.clientID); err != nil {
		return fmt.Errorf("store client id: %w", err)
	}
	return nil
}

// ClientID returns the stable identity of this queue installation.
func (q *Queue) ClientID() string {
	return q.clientID
}

// Close closes the queue database.
func (q *Queue) Close() error {
	return q.db.Close()
}

// Enqueue appends a write to the queue and returns its assigned id.
// A storage failure is returned to the caller; a write that never made it
// into the queue must not look like it did.
func (q *Queue) Enqueue(ctx context.Context, table, operation, keyField string, payload any) (int64, error) {
	switch operation {
	case OpInsert, OpUpdate, OpDelete:
	default:
		return 0, fmt.Errorf("unknown operation %q", operation)
	}
	if keyField == "" {
		return 0, fmt.Errorf("key field is required")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}

	result, err := q.db.ExecContext(ctx, `
		INSERT INTO pending_operations (table_name, operation, key_field, payload, enqueued_at)
		VALUES (?, ?, ?, ?, ?)
	`, table, operation, keyField, string(raw), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("enqueue operation: %w", err)
	}
	return result.LastInsertId()
}

// All returns the pending (non-abandoned) entries in FIFO order.
func (q *Queue) All(ctx context.Context) ([]Entry, error) {
	return q.list(ctx, false)
}

// Abandoned returns the dead-lettered entries in FIFO order.
func (q *Queue) Abandoned(ctx context.Context) ([]Entry, error) {
	return q.list(ctx, true)
}

// list orders by id: AUTOINCREMENT encodes insertion order, while the stored
// timestamp text does not sort chronologically across fractional-second widths.
func (q *Queue) list(ctx context.Context, abandoned bool) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, table_name, operation, key_field, payload, enqueued_at, attempts, last_error
		FROM pending_operations
		WHERE abandoned = ?
		ORDER BY id
	`, boolToInt(abandoned))
	if err != nil {
		return nil, fmt.Errorf("query queue: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var payload, enqueuedAt string
		if err := rows.Scan(&e.ID, &e.Table, &e.Operation, &e.KeyField, &payload, &enqueuedAt, &e.Attempts, &e.LastError); err != nil {
			return nil, fmt.Errorf("scan queue entry: %w", err)
		}
		e.Payload = json.RawMessage(payload)
		e.EnqueuedAt, _ = time.Parse(time.RFC3339Nano, enqueuedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of pending (non-abandoned) entries.
func (q *Queue) Count(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pending_operations WHERE abandoned = 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count queue: %w", err)
	}
	return n, nil
}

// Remove deletes a successfully replayed entry.
func (q *Queue) Remove(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM pending_operations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove queue entry: %w", err)
	}
	return nil
}

// MarkFailed records a replay failure and returns the new attempt count.
func (q *Queue) MarkFailed(ctx context.Context, id int64, cause string) (int, error) {
	var attempts int
	err := q.db.QueryRowContext(ctx, `
		UPDATE pending_operations SET attempts = attempts + 1, last_error = ?
		WHERE id = ?
		RETURNING attempts
	`, cause, id).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("mark entry failed: %w", err)
	}
	return attempts, nil
}

// Abandon dead-letters an entry that exhausted its attempt budget. The
// entry stays in the database for inspection but is excluded from replay.
func (q *Queue) Abandon(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE pending_operations SET abandoned = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("abandon queue entry: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
