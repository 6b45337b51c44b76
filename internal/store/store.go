package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pricebook/ratesheet-extractor/internal/common"
)

// Store keeps the bookkeeping the pipeline itself does not own: which dataset
// a session is currently looking at, its shortlist, and an audit row per run.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	token      TEXT PRIMARY KEY,
	data_path  TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS shortlist (
	session_token TEXT NOT NULL,
	item_id       INTEGER NOT NULL,
	added_at      TEXT NOT NULL,
	PRIMARY KEY (session_token, item_id)
);
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	source_name TEXT NOT NULL,
	output_dir  TEXT NOT NULL,
	data_path   TEXT,
	item_count  INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL,
	created_at  TEXT NOT NULL
);`

// Open opens (creating if needed) the sqlite database at path and applies the
// schema. Use ":memory:" in tests.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	// modernc sqlite is in-process; a single writer avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SetCurrentDataset points the session at the canonical artifact of its most
// recent run.
func (s *Store) SetCurrentDataset(ctx context.Context, token, dataPath string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, data_path, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET data_path = excluded.data_path, updated_at = excluded.updated_at`,
		token, dataPath, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set current dataset: %w", err)
	}
	return nil
}

// CurrentDataset returns the session's dataset path, or ErrNotFound when the
// session has not processed anything yet.
func (s *Store) CurrentDataset(ctx context.Context, token string) (string, error) {
	var path string
	err := s.db.QueryRowContext(ctx,
		`SELECT data_path FROM sessions WHERE token = ?`, token).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load current dataset: %w", err)
	}
	return path, nil
}

// AddShortlist adds an item id to the session's shortlist; adding an already
// shortlisted item is a no-op.
func (s *Store) AddShortlist(ctx context.Context, token string, itemID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO shortlist (session_token, item_id, added_at) VALUES (?, ?, ?)`,
		token, itemID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("add shortlist item: %w", err)
	}
	return nil
}

// RemoveShortlist removes an item id from the session's shortlist; removing a
// missing item is a no-op.
func (s *Store) RemoveShortlist(ctx context.Context, token string, itemID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM shortlist WHERE session_token = ? AND item_id = ?`, token, itemID)
	if err != nil {
		return fmt.Errorf("remove shortlist item: %w", err)
	}
	return nil
}

// Shortlist returns the session's shortlisted item ids in insertion order.
func (s *Store) Shortlist(ctx context.Context, token string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id FROM shortlist WHERE session_token = ? ORDER BY added_at, item_id`, token)
	if err != nil {
		return nil, fmt.Errorf("load shortlist: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn("store.rows_close_error", "error", cerr)
		}
	}()

	ids := make([]int64, 0, 8)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan shortlist row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RunRecord is one audit row per pipeline run.
type RunRecord struct {
	ID         string
	SourceName string
	OutputDir  string
	DataPath   string
	ItemCount  int
	Status     string // "ok" or "failed"
}

// RecordRun persists one audit row; failures to audit are logged, never fatal.
func (s *Store) RecordRun(ctx context.Context, r RunRecord) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, source_name, output_dir, data_path, item_count, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SourceName, r.OutputDir, r.DataPath, r.ItemCount, r.Status,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		s.logger.Warn("store.record_run_failed", "run_id", r.ID, "error", err)
	}
}
