// Package audit persists one row per hook execution in SQLite so operators
// can trace what ran around a content event and why it was allowed through.
package audit

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS executions (
	operation_id TEXT PRIMARY KEY,
	category     TEXT NOT NULL,
	kind         TEXT NOT NULL,
	success      INTEGER NOT NULL,
	can_proceed  INTEGER NOT NULL,
	duration_ms  INTEGER NOT NULL,
	error_code   TEXT NOT NULL DEFAULT '',
	error_msg    TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_executions_category ON executions(category);
CREATE INDEX IF NOT EXISTS idx_executions_created ON executions(created_at);
`

// Entry is one recorded hook execution.
type Entry struct {
	OperationID string    `json:"operation_id"`
	Category    string    `json:"category"`
	Kind        string    `json:"kind"`
	Success     bool      `json:"success"`
	CanProceed  bool      `json:"can_proceed"`
	DurationMs  int64     `json:"duration_ms"`
	ErrorCode   string    `json:"error_code,omitempty"`
	ErrorMsg    string    `json:"error_msg,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store wraps a sql.DB with audit-specific operations.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("audit: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("audit: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("audit: apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Record inserts one execution entry.
func (s *Store) Record(e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.conn.Exec(`
		INSERT INTO executions (operation_id, category, kind, success, can_proceed, duration_ms, error_code, error_msg, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.OperationID, e.Category, e.Kind, e.Success, e.CanProceed, e.DurationMs, e.ErrorCode, e.ErrorMsg, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// Recent returns the newest entries, optionally filtered by category.
func (s *Store) Recent(category string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT operation_id, category, kind, success, can_proceed, duration_ms, error_code, error_msg, created_at
		FROM executions`
	args := []any{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.OperationID, &e.Category, &e.Kind, &e.Success, &e.CanProceed,
			&e.DurationMs, &e.ErrorCode, &e.ErrorMsg, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// FailureCount returns how many recorded executions failed for a category
// since the given time.
func (s *Store) FailureCount(category string, since time.Time) (int, error) {
	var n int
	err := s.conn.QueryRow(`
		SELECT COUNT(*) FROM executions
		WHERE category = ? AND success = 0 AND created_at >= ?
	`, category, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("audit: failure count: %w", err)
	}
	return n, nil
}
