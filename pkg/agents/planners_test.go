package agents

import (
	"context"
	"testing"

	"github.com/agentswarm/core/pkg/agent"
	"github.com/agentswarm/core/pkg/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCuttingEdgePlannerSelectsExperimentalStack(t *testing.T) {
	a := NewCuttingEdgePlannerAgent("cutting-1", agent.DefaultResourceLimits())
	tk := task.New("plan", "design an api with a database backend", "planning", task.PriorityMedium)

	result := a.Process(context.Background(), tk)
	require.Equal(t, task.StatusCompleted, result.Status())

	plan, ok := result.Result()["plan"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "cutting_edge", plan["planner_type"])

	techs, ok := plan["technology_stack"].([]Technology)
	require.True(t, ok)
	names := techNames(techs)
	assert.Contains(t, names, "Fastify")
	assert.Contains(t, names, "SurrealDB")
}

func TestConservativePlannerSelectsStableStack(t *testing.T) {
	a := NewConservativePlannerAgent("conservative-1", agent.DefaultResourceLimits())
	tk := task.New("plan", "design an api with a database backend", "planning", task.PriorityMedium)

	result := a.Process(context.Background(), tk)
	require.Equal(t, task.StatusCompleted, result.Status())

	plan, ok := result.Result()["plan"].(map[string]any)
	require.True(t, ok)
	techs, ok := plan["technology_stack"].([]Technology)
	require.True(t, ok)
	names := techNames(techs)
	assert.Contains(t, names, "Express")
	assert.Contains(t, names, "PostgreSQL")
}

func TestSynthesisPlannerCombinesBothInputs(t *testing.T) {
	cutting := NewCuttingEdgePlannerAgent("cutting-1", agent.DefaultResourceLimits())
	conservative := NewConservativePlannerAgent("conservative-1", agent.DefaultResourceLimits())

	desc := "design an api with a database backend"
	cuttingResult := cutting.Process(context.Background(), task.New("plan", desc, "planning", task.PriorityMedium))
	conservativeResult := conservative.Process(context.Background(), task.New("plan", desc, "planning", task.PriorityMedium))

	synth := NewSynthesisPlannerAgent("synth-1", agent.DefaultResourceLimits())
	tk := task.New("synthesize", desc, "plan_synthesis", task.PriorityMedium)
	tk.Context = map[string]any{
		"plans": map[string]any{
			"cutting_edge": cuttingResult.Result(),
			"conservative": conservativeResult.Result(),
		},
	}

	result := synth.Process(context.Background(), tk)
	require.Equal(t, task.StatusCompleted, result.Status())

	out := result.Result()
	plan, ok := out["plan"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2, plan["plans_used"])

	selected, ok := out["selected_plan"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "synthesis", selected["planner_type"])

	techs, ok := plan["technology_stack"].([]Technology)
	require.True(t, ok)
	for _, tech := range techs {
		if techCategory(tech.Name) == "database" {
			assert.Equal(t, "PostgreSQL", tech.Name) // conservative wins for storage
		}
	}
}

func TestSynthesisPlannerFailsWithoutInputs(t *testing.T) {
	synth := NewSynthesisPlannerAgent("synth-1", agent.DefaultResourceLimits())
	tk := task.New("synthesize", "no inputs", "plan_synthesis", task.PriorityMedium)

	result := synth.Process(context.Background(), tk)
	assert.Equal(t, task.StatusFailed, result.Status())
}

func TestChooseSynthesizedTechnologyPrefersCuttingForUI(t *testing.T) {
	cutting := Technology{Name: "Solid.js"}
	conservative := Technology{Name: "React"}
	chosen := chooseSynthesizedTechnology(cutting, conservative)
	assert.Equal(t, "Solid.js", chosen.Name)
}

func TestMergeStepsAveragesEffortAndForcesModerateComplexity(t *testing.T) {
	cutting := Step{Title: "Design", EstimatedHours: 10, Complexity: "complex", Risks: []string{"r1"}}
	conservative := Step{Title: "Design", EstimatedHours: 6, Complexity: "moderate", Risks: []string{"r2"}}
	merged := mergeSteps(cutting, conservative, "step-1")

	assert.Equal(t, 8.0, merged.EstimatedHours)
	assert.Equal(t, "moderate", merged.Complexity)
	assert.ElementsMatch(t, []string{"r1", "r2"}, merged.Risks)
}
