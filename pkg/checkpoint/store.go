// Package checkpoint persists a workflow's state snapshot after each phase
// so a run can resume at its last recorded phase after a restart. Two
// implementations are provided: Memory (default) and SQLite (the external
// key-value store used in production), matching the two-store requirement
// for the workflow engine.
package checkpoint

import (
	"context"
	"encoding/json"
	"time"
)

// Record is one persisted checkpoint.
type Record struct {
	WorkflowID string
	Phase      string
	Snapshot   json.RawMessage
	SavedAt    time.Time
}

// Store is the checkpoint persistence contract.
type Store interface {
	// Save writes the latest snapshot for a workflow run, tagged with the
	// phase name. Implementations must make the most recently saved record
	// the one LoadLatest returns.
	Save(ctx context.Context, workflowID, phase string, snapshot json.RawMessage) error

	// LoadLatest returns the most recently saved record for workflowID,
	// or ok=false if none exists.
	LoadLatest(ctx context.Context, workflowID string) (rec Record, ok bool, err error)

	// Clear removes all checkpoints for a workflow (called on terminal
	// completion).
	Clear(ctx context.Context, workflowID string) error
}
