package swarm

import (
	"context"
	"testing"
	"time"

	"github.com/agentswarm/core/pkg/agent"
	"github.com/agentswarm/core/pkg/bus"
	"github.com/agentswarm/core/pkg/checkpoint"
	"github.com/agentswarm/core/pkg/task"
	"github.com/agentswarm/core/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEchoAgent(role string, output map[string]any) agent.Agent {
	a := agent.NewBaseAgent(role+"-1", role, role, agent.DefaultResourceLimits(), []string{"handle_" + role},
		func(ctx context.Context, t *task.Task, mem *agent.Memory) (map[string]any, error) {
			return output, nil
		})
	a.Start()
	return a
}

func waitForTerminal(t *testing.T, m *Manager, taskID string) Result {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r, ok := m.Status(taskID)
		require.True(t, ok)
		switch r.Status {
		case "completed", "failed", "cancelled", "requires_approval":
			return r
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("task did not reach a terminal status in time")
	return Result{}
}

func TestSubmitRepositoryAnalysisDirectPath(t *testing.T) {
	b := bus.New()
	defer b.Shutdown()
	m := New(b, checkpoint.NewHooks(checkpoint.NewMemoryStore()), workflow.DefaultConfig())

	require.NoError(t, m.RegisterAgent("repository_analyst", newEchoAgent("repository_analyst", map[string]any{
		"structure": "layered", "patterns": []string{"mvc"}, "quality_insights": "ok", "recommendations": []string{},
	})))
	require.NoError(t, m.Initialize())

	taskID, err := m.Submit(context.Background(), Request{Description: "analyze repository", Type: "repository_analysis"})
	require.NoError(t, err)

	r := waitForTerminal(t, m, taskID)
	assert.Equal(t, "completed", r.Status)
	assert.Contains(t, r.AgentsInvolved, "repository_analyst-1")
	assert.Equal(t, "layered", r.Result["structure"])
}

func TestSubmitUnknownTypeDefaultsToRepositoryAnalysis(t *testing.T) {
	b := bus.New()
	defer b.Shutdown()
	m := New(b, nil, workflow.DefaultConfig())
	require.NoError(t, m.RegisterAgent("repository_analyst", newEchoAgent("repository_analyst", map[string]any{"structure": "x"})))
	require.NoError(t, m.Initialize())

	taskID, err := m.Submit(context.Background(), Request{Description: "do something", Type: "mystery"})
	require.NoError(t, err)

	r := waitForTerminal(t, m, taskID)
	assert.Equal(t, "completed", r.Status)
}

func TestSubmitBeforeInitializeFails(t *testing.T) {
	b := bus.New()
	defer b.Shutdown()
	m := New(b, nil, workflow.DefaultConfig())

	_, err := m.Submit(context.Background(), Request{Description: "x", Type: "repository_analysis"})
	require.Error(t, err)
}

func TestInitializeFailsFastWithNoAgents(t *testing.T) {
	b := bus.New()
	defer b.Shutdown()
	m := New(b, nil, workflow.DefaultConfig())

	require.Error(t, m.Initialize())
	require.Error(t, m.Initialize()) // fail-fast: repeated calls keep failing
}

func TestPlanningFanOutReturnsThreePlans(t *testing.T) {
	b := bus.New()
	defer b.Shutdown()
	m := New(b, nil, workflow.DefaultConfig())

	require.NoError(t, m.RegisterAgent("repository_analyst", newEchoAgent("repository_analyst", map[string]any{})))
	require.NoError(t, m.RegisterAgent("cutting_edge_planner", newEchoAgent("cutting_edge_planner", map[string]any{"approach": "bold"})))
	require.NoError(t, m.RegisterAgent("conservative_planner", newEchoAgent("conservative_planner", map[string]any{"approach": "safe"})))
	require.NoError(t, m.RegisterAgent("synthesis_planner", newEchoAgent("synthesis_planner", map[string]any{"approach": "blended"})))
	require.NoError(t, m.Initialize())

	taskID, err := m.Submit(context.Background(), Request{Description: "design an offline-first sync layer", Type: "planning"})
	require.NoError(t, err)

	r := waitForTerminal(t, m, taskID)
	require.Equal(t, "completed", r.Status)
	assert.EqualValues(t, 3, r.Result["total_plans"])
}

func registerCodeGenerationAgents(t *testing.T, m *Manager, qualityOutput map[string]any) {
	t.Helper()
	require.NoError(t, m.RegisterAgent("repository_analyst", newEchoAgent("repository_analyst", map[string]any{"structure": "ok"})))
	require.NoError(t, m.RegisterAgent("cutting_edge_planner", newEchoAgent("cutting_edge_planner", map[string]any{"approach": "rewrite"})))
	require.NoError(t, m.RegisterAgent("conservative_planner", newEchoAgent("conservative_planner", map[string]any{"approach": "patch"})))
	require.NoError(t, m.RegisterAgent("synthesis_planner", newEchoAgent("synthesis_planner", map[string]any{"selected_plan": map[string]any{"approach": "patch"}})))
	require.NoError(t, m.RegisterAgent("code_generator", newEchoAgent("code_generator", map[string]any{"generated_code": "package main"})))
	require.NoError(t, m.RegisterAgent("optimizer", newEchoAgent("optimizer", map[string]any{"optimized_code": "package main // fast", "test_results": map[string]any{"passed": true}})))
	require.NoError(t, m.RegisterAgent("quality_assessor", newEchoAgent("quality_assessor", qualityOutput)))
}

// TestSubmitCodeGenerationParksAtRequiresApproval verifies a workflow that
// legitimately parks at requires_approval surfaces as that status, not
// "completed".
func TestSubmitCodeGenerationParksAtRequiresApproval(t *testing.T) {
	b := bus.New()
	defer b.Shutdown()
	m := New(b, nil, workflow.DefaultConfig())
	registerCodeGenerationAgents(t, m, map[string]any{"passed": true, "requires_human_approval": true})
	require.NoError(t, m.Initialize())

	taskID, err := m.Submit(context.Background(), Request{Description: "implement rate limiter", Type: "code_generation"})
	require.NoError(t, err)

	r := waitForTerminal(t, m, taskID)
	assert.Equal(t, "requires_approval", r.Status)
	assert.Empty(t, r.Error)
}

// TestSubmitCodeGenerationCancelledNotReportedFailed verifies a workflow
// cancelled by a zero global timeout surfaces as "cancelled", not "failed".
func TestSubmitCodeGenerationCancelledNotReportedFailed(t *testing.T) {
	b := bus.New()
	defer b.Shutdown()
	cfg := workflow.DefaultConfig()
	cfg.GlobalTimeout = 0
	m := New(b, nil, cfg)
	registerCodeGenerationAgents(t, m, map[string]any{"passed": true, "requires_human_approval": false})
	require.NoError(t, m.Initialize())

	taskID, err := m.Submit(context.Background(), Request{Description: "implement rate limiter", Type: "code_generation"})
	require.NoError(t, err)

	r := waitForTerminal(t, m, taskID)
	assert.Equal(t, "cancelled", r.Status)
}

func TestParseChatMessageDerivesTypeAndPriority(t *testing.T) {
	req := ParseChatMessage("URGENT: implement a rate limiter API", nil)
	assert.Equal(t, "code_generation", req.Type)
	assert.Equal(t, task.PriorityHigh, req.Priority)
	assert.Contains(t, req.Context["parsed_keywords"], "api")
}
