package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentswarm/core/pkg/agent"
	"github.com/agentswarm/core/pkg/task"
)

func newRegisteredAgent(t *testing.T, b *Bus, id, taskType string, exec agent.Executor) *agent.BaseAgent {
	t.Helper()
	limits := agent.ResourceLimits{MaxConcurrentTasks: 2, TaskTimeout: time.Second}
	a := agent.NewBaseAgent(id, "worker", id, limits, []string{"handle_" + taskType}, exec)
	a.Start()
	b.RegisterAgent(a)
	return a
}

func syncExecutor(_ context.Context, tk *task.Task, _ *agent.Memory) (map[string]any, error) {
	return map[string]any{"ok": true, "from": tk.Type}, nil
}

func TestCoordinateTaskAssignsFirstSuitable(t *testing.T) {
	b := New()
	defer b.Shutdown()
	newRegisteredAgent(t, b, "a1", "repository_analysis", syncExecutor)

	tk := task.New("t", "d", "repository_analysis", task.PriorityMedium)
	res := b.CoordinateTask(tk, nil)

	require.True(t, res.Success)
	assert.Equal(t, []string{"a1"}, res.AssignedAgents)
}

func TestCoordinateTaskNoSuitableAgent(t *testing.T) {
	b := New()
	defer b.Shutdown()
	newRegisteredAgent(t, b, "a1", "repository_analysis", syncExecutor)

	tk := task.New("t", "d", "code_generation", task.PriorityMedium)
	res := b.CoordinateTask(tk, nil)

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestCoordinateThenProcessThenCollect(t *testing.T) {
	b := New()
	defer b.Shutdown()
	a := newRegisteredAgent(t, b, "a1", "repository_analysis", syncExecutor)

	tk := task.New("t", "d", "repository_analysis", task.PriorityMedium)
	res := b.CoordinateTask(tk, nil)
	require.True(t, res.Success)

	done := a.Process(context.Background(), tk)
	assert.Equal(t, task.StatusCompleted, done.Status())

	responses := b.CollectResponses(context.Background(), tk, time.Second)
	require.Contains(t, responses, "a1")
	assert.Equal(t, "completed", responses["a1"].Status)
	assert.Equal(t, true, responses["a1"].Result["ok"])
}

func TestCollectResponsesTimesOut(t *testing.T) {
	b := New()
	defer b.Shutdown()
	newRegisteredAgent(t, b, "a1", "repository_analysis", syncExecutor)

	tk := task.New("t", "d", "repository_analysis", task.PriorityMedium)
	res := b.CoordinateTask(tk, nil)
	require.True(t, res.Success)

	responses := b.CollectResponses(context.Background(), tk, 50*time.Millisecond)
	require.Contains(t, responses, "a1")
	assert.Equal(t, "timeout", responses["a1"].Status)
}

func TestGroupSendSkipsSenderAndNonMembers(t *testing.T) {
	b := New()
	defer b.Shutdown()
	newRegisteredAgent(t, b, "a1", "x", syncExecutor)
	newRegisteredAgent(t, b, "a2", "x", syncExecutor)
	newRegisteredAgent(t, b, "a3", "x", syncExecutor)

	require.NoError(t, b.CreateGroup("g1", []string{"a1", "a2"}))

	recipients := b.SendToGroup("g1", "a1", "status_inquiry", nil)
	assert.ElementsMatch(t, []string{"a2"}, recipients)

	recipients = b.SendToGroup("unknown-group", "a1", "status_inquiry", nil)
	assert.Empty(t, recipients)
}

func TestResolveConsensus(t *testing.T) {
	b := New()
	defer b.Shutdown()

	identical := []map[string]any{{"a": 1, "b": 2}, {"a": 1, "b": 2}}
	result, _ := b.ResolveConflicts(identical, StrategyConsensus)
	assert.Equal(t, identical[0], result)

	disjoint := []map[string]any{{"a": 1}, {"b": 2}}
	result, _ = b.ResolveConflicts(disjoint, StrategyConsensus)
	assert.Equal(t, disjoint[0], result)
}

func TestResolveMajorityPicksMostFrequent(t *testing.T) {
	b := New()
	defer b.Shutdown()

	candidates := []map[string]any{
		{"a": 1},
		{"a": 2},
		{"a": 1},
	}
	result, _ := b.ResolveConflicts(candidates, StrategyMajority)
	assert.Equal(t, 1, result["a"])
}

func TestHistoryBounded(t *testing.T) {
	b := New()
	defer b.Shutdown()
	b.historyBound = 5
	newRegisteredAgent(t, b, "a1", "x", syncExecutor)

	for i := 0; i < 20; i++ {
		b.Send(task.NewMessage("bus", "a1", "status_inquiry", nil))
	}

	require.Eventually(t, func() bool {
		_, _, _, historySize, _ := b.Snapshot()
		return historySize == 5
	}, time.Second, 10*time.Millisecond)
}
