package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentswarm/core/pkg/task"
)

func echoExecutor(_ context.Context, t *task.Task, mem *Memory) (map[string]any, error) {
	mem.SetWorking("seen_type", t.Type)
	return map[string]any{"echo": t.Description}, nil
}

func failingExecutor(_ context.Context, _ *task.Task, _ *Memory) (map[string]any, error) {
	return nil, errors.New("deliberate failure")
}

func newTestAgent(exec Executor) *BaseAgent {
	limits := ResourceLimits{MaxConcurrentTasks: 2, TaskTimeout: time.Second}
	a := NewBaseAgent("agent-1", "analyst", "Analyst", limits, []string{"handle_repository_analysis"}, exec)
	a.Start()
	return a
}

func TestAcceptRespectsCapabilityAndActive(t *testing.T) {
	a := newTestAgent(echoExecutor)
	tk := task.New("t", "d", "repository_analysis", task.PriorityMedium)
	assert.True(t, a.Accept(tk))

	unknown := task.New("t", "d", "unsupported_type", task.PriorityMedium)
	assert.False(t, a.Accept(unknown))

	a.Stop()
	assert.False(t, a.Accept(tk))
}

func TestAcceptRespectsConcurrencyCap(t *testing.T) {
	a := newTestAgent(echoExecutor)
	t1 := task.New("t1", "d", "repository_analysis", task.PriorityMedium)
	t2 := task.New("t2", "d", "repository_analysis", task.PriorityMedium)

	a.mu.Lock()
	a.currentTasks[t1.ID] = t1
	a.currentTasks[t2.ID] = t2
	a.mu.Unlock()

	t3 := task.New("t3", "d", "repository_analysis", task.PriorityMedium)
	assert.False(t, a.Accept(t3), "agent at its concurrency cap must reject new work")
}

func TestProcessSuccessClearsWorkingMemory(t *testing.T) {
	a := newTestAgent(echoExecutor)
	tk := task.New("t", "hello", "repository_analysis", task.PriorityMedium)

	done := a.Process(context.Background(), tk)

	assert.Equal(t, task.StatusCompleted, done.Status())
	assert.Equal(t, "hello", done.Result()["echo"])
	assert.Equal(t, 0, a.currentTasksCountForTest())
	st, working, _ := a.memory.counts()
	_ = st
	assert.Equal(t, 0, working, "working memory must be cleared on every exit path")
}

func (a *BaseAgent) currentTasksCountForTest() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.currentTasks)
}

func TestProcessFailureNeverPanicsOut(t *testing.T) {
	a := newTestAgent(failingExecutor)
	tk := task.New("t", "d", "repository_analysis", task.PriorityMedium)

	done := a.Process(context.Background(), tk)

	assert.Equal(t, task.StatusFailed, done.Status())
	assert.Equal(t, "deliberate failure", done.Err())
	assert.Equal(t, 0, a.currentTasksCountForTest())
}

func TestProcessCancelledContext(t *testing.T) {
	a := newTestAgent(echoExecutor)
	tk := task.New("t", "d", "repository_analysis", task.PriorityMedium)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := a.Process(ctx, tk)
	assert.Equal(t, task.StatusCancelled, done.Status())
}

func TestStopCancelsInFlightTasks(t *testing.T) {
	a := newTestAgent(echoExecutor)
	tk := task.New("t", "d", "repository_analysis", task.PriorityMedium)
	tk.Start(a.id)
	a.mu.Lock()
	a.currentTasks[tk.ID] = tk
	a.mu.Unlock()

	a.Stop()

	assert.Equal(t, task.StatusCancelled, tk.Status())
	assert.False(t, a.Status().Active)
}

func TestReceiveCollaborationRequest(t *testing.T) {
	a := newTestAgent(echoExecutor)
	msg := task.NewMessage("other-agent", a.id, task.MessageCollaborationRequest, nil)

	reply := a.Receive(context.Background(), msg)
	require.NotNil(t, reply)
	assert.Equal(t, task.MessageCollaborationAccepted, reply.Type)
	assert.Contains(t, a.Status().CollaborationPartners, "other-agent")
}

func TestReceiveUnknownTypeDrawsNoReply(t *testing.T) {
	a := newTestAgent(echoExecutor)
	msg := task.NewMessage("other-agent", a.id, "totally_unknown", nil)

	reply := a.Receive(context.Background(), msg)
	assert.Nil(t, reply)
}

func TestReceiveStatusInquiry(t *testing.T) {
	a := newTestAgent(echoExecutor)
	msg := task.NewMessage("other-agent", a.id, task.MessageStatusInquiry, nil)

	reply := a.Receive(context.Background(), msg)
	require.NotNil(t, reply)
	assert.Equal(t, task.MessageStatusResponse, reply.Type)
	snap, ok := reply.Content["status"].(StatusSnapshot)
	require.True(t, ok)
	assert.Equal(t, a.id, snap.AgentID)
}
