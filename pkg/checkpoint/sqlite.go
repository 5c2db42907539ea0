package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is the external key-value checkpoint store used in
// production deployments (§4.4: "two implementations: in-memory (default)
// and external key-value store"). It keeps one row per workflow,
// overwritten on every Save, mirroring MemoryStore's latest-wins semantics
// but surviving process restarts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) a sqlite database at path and
// ensures its schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open sqlite store: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS checkpoints (
			workflow_id TEXT PRIMARY KEY,
			phase       TEXT NOT NULL,
			snapshot    BLOB NOT NULL,
			saved_at    DATETIME NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("checkpoint: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, workflowID, phase string, snapshot json.RawMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (workflow_id, phase, snapshot, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(workflow_id) DO UPDATE SET
			phase = excluded.phase,
			snapshot = excluded.snapshot,
			saved_at = excluded.saved_at
	`, workflowID, phase, []byte(snapshot), time.Now())
	if err != nil {
		return fmt.Errorf("checkpoint: save: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadLatest(ctx context.Context, workflowID string) (Record, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT workflow_id, phase, snapshot, saved_at FROM checkpoints WHERE workflow_id = ?
	`, workflowID)

	var rec Record
	var snapshot []byte
	if err := row.Scan(&rec.WorkflowID, &rec.Phase, &snapshot, &rec.SavedAt); err != nil {
		if err == sql.ErrNoRows {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("checkpoint: load: %w", err)
	}
	rec.Snapshot = snapshot
	return rec, true, nil
}

func (s *SQLiteStore) Clear(ctx context.Context, workflowID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE workflow_id = ?`, workflowID); err != nil {
		return fmt.Errorf("checkpoint: clear: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
