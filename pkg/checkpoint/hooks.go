package checkpoint

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Hooks wraps a Store so checkpoint writes never fail the primary workflow
// operation: save errors are logged and swallowed, per §4.4/§7's "audit
// failures never fail the primary operation" policy applied to checkpoint
// writes too.
type Hooks struct {
	store Store
}

func NewHooks(store Store) *Hooks {
	if store == nil {
		return nil
	}
	return &Hooks{store: store}
}

// AfterPhase persists state after a phase completes.
func (h *Hooks) AfterPhase(ctx context.Context, workflowID, phase string, state any) {
	if h == nil {
		return
	}
	snapshot, err := json.Marshal(state)
	if err != nil {
		slog.Warn("checkpoint: failed to marshal state", "workflow_id", workflowID, "phase", phase, "error", err)
		return
	}
	if err := h.store.Save(ctx, workflowID, phase, snapshot); err != nil {
		slog.Warn("checkpoint: failed to save", "workflow_id", workflowID, "phase", phase, "error", err)
	}
}

// OnComplete clears a workflow's checkpoints once it reaches a terminal
// state.
func (h *Hooks) OnComplete(ctx context.Context, workflowID string) {
	if h == nil {
		return
	}
	if err := h.store.Clear(ctx, workflowID); err != nil {
		slog.Warn("checkpoint: failed to clear on completion", "workflow_id", workflowID, "error", err)
	}
}

// Resume loads the latest checkpoint, if any.
func (h *Hooks) Resume(ctx context.Context, workflowID string) (Record, bool) {
	if h == nil {
		return Record{}, false
	}
	rec, ok, err := h.store.LoadLatest(ctx, workflowID)
	if err != nil {
		slog.Warn("checkpoint: failed to load latest", "workflow_id", workflowID, "error", err)
		return Record{}, false
	}
	return rec, ok
}
