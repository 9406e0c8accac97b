// Package audit records per-request events in a local sqlite database.
//
// Operations teams lean on this when reconciling "who called what" questions
// across tenant and platform sessions; recording is strictly observational
// and can never fail a request.
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nexerp/ops-console/internal/apiclient"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS requests (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id  TEXT NOT NULL,
	scope       TEXT NOT NULL,
	method      TEXT NOT NULL,
	path        TEXT NOT NULL,
	status      INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	replayed    INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_requests_created_at ON requests(created_at);
`

// Entry is one recorded request.
type Entry struct {
	RequestID  string
	Scope      string
	Method     string
	Path       string
	Status     int
	DurationMS int64
	Replayed   bool
	CreatedAt  time.Time
}

// SQLiteRecorder implements apiclient.Recorder on a local sqlite file.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates (if needed) and opens the audit database at path.
func Open(path string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating audit dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit db: %w", err)
	}
	// The recorder serializes writes itself; a single connection keeps
	// sqlite's locking out of the picture.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating audit schema: %w", err)
	}
	return &SQLiteRecorder{db: db}, nil
}

// Record stores one request event. Failures are logged, never surfaced.
func (r *SQLiteRecorder) Record(e apiclient.RequestEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(
		`INSERT INTO requests (request_id, scope, method, path, status, duration_ms, replayed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.Scope, e.Method, e.Path, e.Status,
		e.Duration.Milliseconds(), boolToInt(e.Replayed),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		log.Warn().Err(err).Msg("recording audit event")
	}
}

// Recent returns the latest n entries, newest first.
func (r *SQLiteRecorder) Recent(n int) ([]Entry, error) {
	rows, err := r.db.Query(
		`SELECT request_id, scope, method, path, status, duration_ms, replayed, created_at
		 FROM requests ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying audit trail: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var replayed int
		var createdAt string
		if err := rows.Scan(&e.RequestID, &e.Scope, &e.Method, &e.Path, &e.Status, &e.DurationMS, &replayed, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}
		e.Replayed = replayed != 0
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ apiclient.Recorder = (*SQLiteRecorder)(nil)
