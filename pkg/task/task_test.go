package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskLifecycle(t *testing.T) {
	tk := New("analyze repo", "look for patterns", "repository_analysis", PriorityHigh)
	assert.Equal(t, StatusPending, tk.Status())
	assert.True(t, tk.CompletedAt().IsZero())

	tk.Start("agent-1")
	assert.Equal(t, StatusInProgress, tk.Status())
	assert.Equal(t, "agent-1", tk.AssignedAgent)
	assert.False(t, tk.StartedAt().IsZero())

	tk.Complete(map[string]any{"structure": "ok"})
	assert.Equal(t, StatusCompleted, tk.Status())
	assert.NotNil(t, tk.Result())
	assert.Empty(t, tk.Err())
	assert.False(t, tk.CompletedAt().IsZero())
	assert.True(t, tk.CompletedAt().Compare(tk.StartedAt()) >= 0)
}

func TestTaskFail(t *testing.T) {
	tk := New("t", "d", "code_generation", PriorityMedium)
	tk.Start("agent-1")
	tk.Fail("boom")
	assert.Equal(t, StatusFailed, tk.Status())
	assert.Equal(t, "boom", tk.Err())
	assert.Nil(t, tk.Result())
}

func TestTaskCancelIdempotent(t *testing.T) {
	tk := New("t", "d", "planning", PriorityLow)
	tk.Cancel()
	assert.Equal(t, StatusCancelled, tk.Status())
	first := tk.CompletedAt()

	tk.Cancel()
	assert.Equal(t, first, tk.CompletedAt(), "cancelling a terminal task must not mutate it again")
}

func TestInMemoryServiceCRUD(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService()

	tk, err := svc.Create(ctx, "t", "d", "repository_analysis", PriorityMedium)
	require.NoError(t, err)

	got, err := svc.Get(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, tk.ID, got.ID)

	require.NoError(t, svc.Cancel(ctx, tk.ID))
	assert.Equal(t, StatusCancelled, got.Status())

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("agent-a", "agent-b", MessageCollaborationRequest, map[string]any{"x": 1})
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "agent-a", msg.SenderID)
	assert.Equal(t, "agent-b", msg.RecipientID)
	assert.False(t, msg.Timestamp.IsZero())
}
