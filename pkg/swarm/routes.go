package swarm

import (
	"context"
	"fmt"

	"github.com/agentswarm/core/pkg/agent"
	"github.com/agentswarm/core/pkg/task"
	"github.com/agentswarm/core/pkg/workflow"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// planningFanOutRoles are the two planner roles that run concurrently;
// synthesis_planner runs afterward, fed their combined output.
var planningFanOutRoles = []string{"cutting_edge_planner", "conservative_planner"}

// dispatch routes a request to the direct-agent, workflow-engine, or
// multi-planner path. The fourth return value is a status hint: empty for
// the direct/planning paths (the caller derives completed/failed from the
// error), or an explicit workflow status for the workflow path, since a
// workflow can legitimately end cancelled or parked at requires_approval
// without that being an error.
func (m *Manager) dispatch(ctx context.Context, taskID string, req Request) (map[string]any, []string, string, string, error) {
	switch req.Type {
	case "repository_analysis", "code_analysis":
		out, agents, wfID, err := m.dispatchDirect(ctx, taskID, req, "repository_analyst")
		return out, agents, wfID, "", err
	case "code_generation", "feature_implementation", "bug_fix":
		return m.dispatchWorkflow(ctx, taskID, req)
	case "planning", "architecture_design":
		out, agents, wfID, err := m.dispatchPlanning(ctx, taskID, req)
		return out, agents, wfID, "", err
	default:
		out, agents, wfID, err := m.dispatchDirect(ctx, taskID, req, "repository_analyst")
		return out, agents, wfID, "", err
	}
}

func (m *Manager) dispatchDirect(ctx context.Context, taskID string, req Request, role string) (map[string]any, []string, string, error) {
	a, ok := m.ResolveAgent(role)
	if !ok {
		return nil, nil, "", fmt.Errorf("swarm: no agent available for role %q", role)
	}

	t := task.New(fmt.Sprintf("Swarm task: %.50s", req.Description), req.Description, role, req.Priority)
	t.ID = taskID
	t.Context = req.Context

	coord := m.bus.CoordinateTask(t, []string{a.ID()})
	if !coord.Success {
		return nil, nil, "", fmt.Errorf("swarm: %s", coord.Error)
	}

	a.Process(ctx, t)

	if t.Status() != task.StatusCompleted {
		return nil, []string{a.ID()}, "", fmt.Errorf("repository analysis failed: %s", t.Err())
	}
	return t.Result(), []string{a.ID()}, "", nil
}

func (m *Manager) dispatchWorkflow(ctx context.Context, taskID string, req Request) (map[string]any, []string, string, string, error) {
	workflowID := uuid.NewString()
	state := workflow.NewState(workflowID, taskID, req.Description, req.Type, req.Context)

	result := m.engine.Run(ctx, state)

	agentsInvolved := make([]string, 0, len(result.State.PhaseAgent))
	seen := make(map[string]bool)
	for _, id := range result.State.PhaseAgent {
		if !seen[id] {
			seen[id] = true
			agentsInvolved = append(agentsInvolved, id)
		}
	}

	// Only a genuine failure is an error; cancelled and requires_approval
	// are terminal (or suspended) outcomes in their own right and must
	// surface as such, not collapse into "failed".
	if result.Status == workflow.StatusFailed {
		return nil, agentsInvolved, workflowID, string(result.Status), fmt.Errorf("workflow failed: %v", result.Errors)
	}

	out := map[string]any{
		"workflow_result": result,
		"generated_code":  firstNonEmpty(result.State.OptimizedCode, result.State.DebuggedCode, result.State.GeneratedCode),
	}
	return out, agentsInvolved, workflowID, string(result.Status), nil
}

func (m *Manager) dispatchPlanning(ctx context.Context, taskID string, req Request) (map[string]any, []string, string, error) {
	type planOutcome struct {
		role  string
		agent agent.Agent
		plan  map[string]any
		err   error
	}

	outcomes := make([]planOutcome, len(planningFanOutRoles))
	g, gctx := errgroup.WithContext(ctx)

	for i, role := range planningFanOutRoles {
		i, role := i, role
		a, ok := m.ResolveAgent(role)
		if !ok {
			outcomes[i] = planOutcome{role: role, err: fmt.Errorf("no agent for role %q", role)}
			continue
		}
		outcomes[i] = planOutcome{role: role, agent: a}

		g.Go(func() error {
			pt := task.New(fmt.Sprintf("plan_%s_%s", taskID, role), req.Description, role, req.Priority)
			pt.Context = req.Context

			coord := m.bus.CoordinateTask(pt, []string{a.ID()})
			if !coord.Success {
				outcomes[i].err = fmt.Errorf("%s", coord.Error)
				return nil
			}
			a.Process(gctx, pt)
			if pt.Status() != task.StatusCompleted {
				outcomes[i].err = fmt.Errorf("%s", pt.Err())
				return nil
			}
			outcomes[i].plan = pt.Result()
			return nil
		})
	}
	_ = g.Wait()

	agentsInvolved := make([]string, 0, len(outcomes)+1)
	planningResults := make([]map[string]any, 0, len(outcomes)+1)
	plans := map[string]any{}
	for _, o := range outcomes {
		if o.agent != nil {
			agentsInvolved = append(agentsInvolved, o.agent.ID())
		}
		if o.err != nil || o.plan == nil {
			continue
		}
		planningResults = append(planningResults, map[string]any{
			"planner": o.role,
			"plan":    o.plan,
		})
		switch o.role {
		case "cutting_edge_planner":
			plans["cutting_edge"] = o.plan
		case "conservative_planner":
			plans["conservative"] = o.plan
		}
	}

	if len(planningResults) == 0 {
		return nil, agentsInvolved, "", fmt.Errorf("no planning agents available")
	}

	synthAgent, ok := m.ResolveAgent("synthesis_planner")
	if ok {
		st := task.New(fmt.Sprintf("plan_%s_synthesis", taskID), req.Description, "synthesis_planner", req.Priority)
		synthContext := make(map[string]any, len(req.Context)+1)
		for k, v := range req.Context {
			synthContext[k] = v
		}
		synthContext["plans"] = plans
		st.Context = synthContext

		coord := m.bus.CoordinateTask(st, []string{synthAgent.ID()})
		if coord.Success {
			synthAgent.Process(ctx, st)
			agentsInvolved = append(agentsInvolved, synthAgent.ID())
			if st.Status() == task.StatusCompleted {
				planningResults = append(planningResults, map[string]any{
					"planner": "synthesis_planner",
					"plan":    st.Result(),
				})
			}
		}
	}

	return map[string]any{
		"planning_results": planningResults,
		"total_plans":      len(planningResults),
	}, agentsInvolved, "", nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
