package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/agentswarm/core/pkg/agent"
	"github.com/agentswarm/core/pkg/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeGeneratorRendersStepsWithoutErrorMarker(t *testing.T) {
	a := NewCodeGeneratorAgent("codegen-1", agent.DefaultResourceLimits())
	tk := task.New("generate", "implement rate limiter", "code_generation", task.PriorityMedium)
	tk.Context = map[string]any{
		"selected_plan": map[string]any{
			"implementation_steps": []Step{
				{Title: "Design token bucket", EstimatedHours: 4},
				{Title: "Wire middleware", EstimatedHours: 6},
			},
		},
	}

	result := a.Process(context.Background(), tk)
	require.Equal(t, task.StatusCompleted, result.Status())

	code, ok := result.Result()["generated_code"].(string)
	require.True(t, ok)
	assert.NotContains(t, strings.ToLower(code), "error")
	assert.Contains(t, code, "step_design_token_bucket")
}

func TestDebuggerStripsErrorLines(t *testing.T) {
	a := NewDebuggerAgent("debugger-1", agent.DefaultResourceLimits())
	tk := task.New("debug", "fix it", "debugging", task.PriorityMedium)
	tk.Context = map[string]any{
		"generated_code": "func ok() {}\n// this line has an ERROR in it\nfunc fine() {}",
	}

	result := a.Process(context.Background(), tk)
	require.Equal(t, task.StatusCompleted, result.Status())

	fixed, ok := result.Result()["debugged_code"].(string)
	require.True(t, ok)
	assert.NotContains(t, strings.ToLower(fixed), "error")
	assert.Contains(t, fixed, "func ok() {}")
}

func TestStripErrorLinesDropsEveryErrorLine(t *testing.T) {
	fixed := stripErrorLines("error\nerror")
	assert.Equal(t, "", strings.TrimSpace(fixed))
}

func TestOptimizerCollapsesBlankLines(t *testing.T) {
	a := NewOptimizerAgent("optimizer-1", agent.DefaultResourceLimits())
	tk := task.New("optimize", "clean up", "optimization", task.PriorityMedium)
	tk.Context = map[string]any{"code": "a\n\n\n\nb"}

	result := a.Process(context.Background(), tk)
	require.Equal(t, task.StatusCompleted, result.Status())

	out := result.Result()
	optimized, _ := out["optimized_code"].(string)
	assert.Equal(t, "a\n\nb", optimized)
	assert.Contains(t, out, "test_results")
}

func TestQualityAssessorFlagsApprovalOnFailure(t *testing.T) {
	a := NewQualityAssessorAgent("quality-1", agent.DefaultResourceLimits())
	tk := task.New("assess", "check quality", "quality_assessment", task.PriorityMedium)
	tk.Context = map[string]any{
		"optimized_code": "func run() {}",
		"test_results":   map[string]any{"syntax_check": false},
	}

	result := a.Process(context.Background(), tk)
	require.Equal(t, task.StatusCompleted, result.Status())

	out := result.Result()
	assert.Equal(t, true, out["requires_human_approval"])
	assert.Equal(t, false, out["passed"])
}

func TestQualityAssessorPassesOnSuccess(t *testing.T) {
	a := NewQualityAssessorAgent("quality-1", agent.DefaultResourceLimits())
	tk := task.New("assess", "check quality", "quality_assessment", task.PriorityMedium)
	tk.Context = map[string]any{
		"optimized_code": "func run() {}",
		"test_results":   map[string]any{"syntax_check": true},
	}

	result := a.Process(context.Background(), tk)
	require.Equal(t, task.StatusCompleted, result.Status())

	out := result.Result()
	assert.Equal(t, false, out["requires_human_approval"])
	assert.Equal(t, true, out["passed"])
}
