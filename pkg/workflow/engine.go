// Package workflow implements the code-generation phase graph: repository
// analysis, dual-planner fan-out, synthesis, a bounded code/debug/optimize
// loop, quality assessment, optional human approval, and finalization.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentswarm/core/pkg/agent"
	"github.com/agentswarm/core/pkg/bus"
	"github.com/agentswarm/core/pkg/checkpoint"
	"github.com/agentswarm/core/pkg/task"
	"golang.org/x/sync/errgroup"
)

// AgentResolver resolves a role name to a live agent. The swarm manager
// implements this and is injected into the engine at construction time,
// so this package never imports pkg/swarm (which itself hands code
// generation tasks to the engine).
type AgentResolver interface {
	ResolveAgent(role string) (agent.Agent, bool)
}

// phaseRole maps each phase node to the agent role that executes it.
var phaseRole = map[Phase]string{
	PhaseRepositoryAnalysis:   "repository_analyst",
	PhaseCuttingEdgePlanning:  "cutting_edge_planner",
	PhaseConservativePlanning: "conservative_planner",
	PhasePlanSynthesis:        "synthesis_planner",
	PhaseCodeGeneration:       "code_generator",
	PhaseDebugging:            "debugger",
	PhaseOptimization:         "optimizer",
	PhaseQualityAssessment:    "quality_assessor",
}

// Config tunes the engine's three timeout layers and retry bound.
type Config struct {
	MaxRetries        int
	GlobalTimeout     time.Duration
	CollectionTimeout time.Duration
}

// DefaultConfig mirrors the environment defaults: MAX_RETRIES=3,
// WORKFLOW_TIMEOUT_SECONDS=1800.
func DefaultConfig() Config {
	return Config{
		MaxRetries:        DefaultMaxRetries,
		GlobalTimeout:      1800 * time.Second,
		CollectionTimeout: 30 * time.Second,
	}
}

// Engine drives one workflow's state through the phase graph.
type Engine struct {
	Resolver    AgentResolver
	Bus         *bus.Bus
	Checkpoints *checkpoint.Hooks
	Config      Config
}

func NewEngine(resolver AgentResolver, b *bus.Bus, checkpoints *checkpoint.Hooks, cfg Config) *Engine {
	return &Engine{Resolver: resolver, Bus: b, Checkpoints: checkpoints, Config: cfg}
}

// Run drives state from repository_analysis through to a terminal status.
func (e *Engine) Run(ctx context.Context, state *State) *Result {
	return e.run(ctx, state, PhaseRepositoryAnalysis)
}

// Resume re-enters the graph at state's recorded current_phase, used after
// loading the last checkpoint or after an external approval decision lands
// on a workflow parked at human_approval.
func (e *Engine) Resume(ctx context.Context, state *State) *Result {
	return e.run(ctx, state, state.Snapshot().CurrentPhase)
}

func (e *Engine) run(ctx context.Context, state *State, start Phase) *Result {
	deadline := e.Config.GlobalTimeout
	if deadline <= 0 {
		// A zero global timeout never reaches a timer, so it must
		// terminate at the first suspension point as cancelled rather
		// than failed.
		state.AppendError("workflow timeout: global deadline is zero")
		state.Finalize(StatusCancelled)
		return e.finish(state, nil, time.Now())
	}

	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	state.SetStatus(StatusRunning)
	started := time.Now()
	var nodes []NodeExecution

	phase := start
	for {
		select {
		case <-runCtx.Done():
			// A global-deadline expiry is a distinct outcome from an
			// external cancel: the former always ends the workflow failed
			// with a literal timeout message, the latter freezes it
			// cancelled.
			if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
				state.AppendError(fmt.Sprintf("Workflow timed out after %d seconds", int(deadline.Seconds())))
				state.Finalize(StatusFailed)
				return e.finish(state, nodes, started)
			}
			state.AppendError(fmt.Sprintf("workflow cancelled: %v", runCtx.Err()))
			state.Finalize(StatusCancelled)
			return e.finish(state, nodes, started)
		default:
		}

		switch phase {
		case PhaseRepositoryAnalysis:
			n, err := e.runPhase(runCtx, state, PhaseRepositoryAnalysis, nil)
			nodes = append(nodes, n)
			if err != nil {
				return e.fail(state, nodes, started, err)
			}
			phase = PhaseCuttingEdgePlanning

		case PhaseCuttingEdgePlanning:
			branchNodes, ok := e.runPlanningFanOut(runCtx, state)
			nodes = append(nodes, branchNodes...)
			if !ok {
				return e.fail(state, nodes, started, &EngineError{Code: "planning_fanout_failed", Message: "both planning branches failed"})
			}
			phase = PhasePlanSynthesis

		case PhasePlanSynthesis:
			n, err := e.runPhase(runCtx, state, PhasePlanSynthesis, nil)
			nodes = append(nodes, n)
			if err != nil {
				return e.fail(state, nodes, started, err)
			}
			phase = PhaseCodeGeneration

		case PhaseCodeGeneration:
			n, err := e.runPhase(runCtx, state, PhaseCodeGeneration, nil)
			nodes = append(nodes, n)
			if err != nil {
				return e.fail(state, nodes, started, err)
			}
			if shouldDebug(state) {
				phase = PhaseDebugging
			} else {
				phase = PhaseOptimization
			}

		case PhaseDebugging:
			n, err := e.runPhase(runCtx, state, PhaseDebugging, nil)
			n.RetryCount = state.Snapshot().RetryCount
			nodes = append(nodes, n)
			if err != nil {
				return e.fail(state, nodes, started, err)
			}
			switch shouldRetry(state, e.Config.MaxRetries) {
			case retryFail:
				return e.fail(state, nodes, started, &EngineError{Code: "debug_retries_exhausted", Message: "debug retries exhausted"})
			case retryProceed:
				phase = PhaseOptimization
			case retryDebug:
				phase = PhaseCodeGeneration
			}

		case PhaseOptimization:
			n, err := e.runPhase(runCtx, state, PhaseOptimization, nil)
			nodes = append(nodes, n)
			if err != nil {
				return e.fail(state, nodes, started, err)
			}
			phase = PhaseQualityAssessment

		case PhaseQualityAssessment:
			n, err := e.runPhase(runCtx, state, PhaseQualityAssessment, nil)
			nodes = append(nodes, n)
			if err != nil {
				return e.fail(state, nodes, started, err)
			}
			if requiresApproval(state) {
				state.SetStatus(StatusRequiresApproval)
				state.SetPhase(PhaseHumanApproval)
				e.checkpoint(runCtx, state, PhaseQualityAssessment)
				return e.finish(state, nodes, started)
			}
			phase = PhaseFinalization

		case PhaseHumanApproval:
			switch approvalDecision(state) {
			case ApprovalApproved:
				phase = PhaseFinalization
			case ApprovalRejected:
				phase = PhasePlanSynthesis
			case ApprovalCancelled:
				state.Finalize(StatusCancelled)
				return e.finish(state, nodes, started)
			default:
				// Still pending: park here for an external decision.
				state.SetStatus(StatusRequiresApproval)
				return e.finish(state, nodes, started)
			}

		case PhaseFinalization:
			state.SetPhase(PhaseFinalization)
			state.Finalize(StatusCompleted)
			e.checkpoint(runCtx, state, PhaseFinalization)
			if e.Checkpoints != nil {
				e.Checkpoints.OnComplete(runCtx, state.WorkflowID)
			}
			return e.finish(state, nodes, started)

		default:
			state.AppendError(fmt.Sprintf("internal invariant violation: unknown phase %q", phase))
			state.Finalize(StatusFailed)
			return e.finish(state, nodes, started)
		}
	}
}

// runPlanningFanOut runs the two planning phases concurrently. It reaches
// plan_synthesis if at least one plan succeeded; fails only when both fail.
func (e *Engine) runPlanningFanOut(ctx context.Context, state *State) ([]NodeExecution, bool) {
	nodes := make([]NodeExecution, 2)
	// A plain errgroup.Group derives no shared context, so one branch's
	// failure does not cancel the other.
	var g errgroup.Group

	g.Go(func() error {
		n, err := e.runPhase(ctx, state, PhaseCuttingEdgePlanning, nil)
		nodes[0] = n
		return err
	})
	g.Go(func() error {
		n, err := e.runPhase(ctx, state, PhaseConservativePlanning, nil)
		nodes[1] = n
		return err
	})
	// Both branches record their own NodeExecution; we deliberately
	// ignore the aggregate error and inspect each branch's own outcome
	// instead, so a lone failure doesn't mask the surviving plan.
	_ = g.Wait()

	cuttingOK := nodes[0].Status == "completed"
	conservativeOK := nodes[1].Status == "completed"
	return nodes, cuttingOK || conservativeOK
}

// runPhase resolves the phase's agent, dispatches a child task through the
// bus, and on success merges the returned output into state.
func (e *Engine) runPhase(ctx context.Context, state *State, phase Phase, extraContext map[string]any) (NodeExecution, error) {
	snap := state.Snapshot()
	n := NodeExecution{Phase: phase, StartedAt: time.Now(), Status: "running"}

	role := phaseRole[phase]
	ag, ok := e.Resolver.ResolveAgent(role)
	if !ok {
		n.Status = "failed"
		n.Error = fmt.Sprintf("no agent registered for role %q", role)
		n.EndedAt = time.Now()
		state.AppendError(n.Error)
		return n, &EngineError{Code: "agent_not_resolved", Message: n.Error}
	}
	n.AgentID = ag.ID()

	childContext := buildPhaseContext(phase, &snap)
	for k, v := range extraContext {
		childContext[k] = v
	}
	n.Input = childContext

	t := task.New(fmt.Sprintf("%s: %s", phase, state.Description), state.Description, string(phase), task.PriorityMedium)
	t.ParentTaskID = state.TaskID
	t.Context = childContext

	coordResult := e.Bus.CoordinateTask(t, []string{ag.ID()})
	if !coordResult.Success {
		n.Status = "failed"
		n.Error = coordResult.Error
		n.EndedAt = time.Now()
		state.AppendError(fmt.Sprintf("%s: %s", phase, coordResult.Error))
		return n, &EngineError{Code: "coordination_failed", Message: coordResult.Error}
	}

	// Process is synchronous but still needs to honor ctx's deadline;
	// run it on its own goroutine so a phase that ignores cancellation
	// can't wedge the engine past the deadline.
	done := make(chan struct{})
	go func() {
		defer close(done)
		ag.Process(ctx, t)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		n.Status = "timeout"
		n.Error = ctx.Err().Error()
		n.EndedAt = time.Now()
		state.AppendError(fmt.Sprintf("%s: %v", phase, ctx.Err()))
		return n, ctx.Err()
	}

	n.EndedAt = time.Now()
	state.SetPhase(phase)

	switch t.Status() {
	case task.StatusCompleted:
		n.Status = "completed"
		state.MergeOutput(phase, ag.ID(), t.Result())
		e.checkpoint(ctx, state, phase)
		return n, nil
	case task.StatusCancelled:
		n.Status = "cancelled"
		n.Error = "task cancelled"
		state.AppendError(fmt.Sprintf("%s: cancelled", phase))
		return n, &EngineError{Code: "phase_cancelled", Message: fmt.Sprintf("%s: cancelled", phase)}
	default:
		n.Status = "failed"
		n.Error = t.Err()
		state.AppendError(fmt.Sprintf("%s: %s", phase, t.Err()))
		return n, &EngineError{Code: "phase_failed", Message: t.Err()}
	}
}

// buildPhaseContext builds the child task's context: the subset of
// accumulated state the given phase actually needs.
func buildPhaseContext(phase Phase, snap *State) map[string]any {
	ctx := map[string]any{
		"task_description": snap.Description,
		"task_context":     snap.Context,
	}
	switch phase {
	case PhasePlanSynthesis:
		plans := map[string]any{}
		if snap.CuttingEdgePlan != nil {
			plans["cutting_edge"] = snap.CuttingEdgePlan
		}
		if snap.ConservativePlan != nil {
			plans["conservative"] = snap.ConservativePlan
		}
		ctx["plans"] = plans
	case PhaseCodeGeneration:
		ctx["selected_plan"] = snap.SelectedPlan
		ctx["repository_analysis"] = snap.RepositoryAnalysis
	case PhaseDebugging:
		ctx["generated_code"] = snap.GeneratedCode
	case PhaseOptimization:
		code := snap.DebuggedCode
		if code == "" {
			code = snap.GeneratedCode
		}
		ctx["code"] = code
	case PhaseQualityAssessment:
		ctx["optimized_code"] = snap.OptimizedCode
		ctx["test_results"] = snap.TestResults
	}
	return ctx
}

func (e *Engine) checkpoint(ctx context.Context, state *State, phase Phase) {
	if e.Checkpoints == nil {
		return
	}
	e.Checkpoints.AfterPhase(ctx, state.WorkflowID, string(phase), state.Snapshot())
}

func (e *Engine) fail(state *State, nodes []NodeExecution, started time.Time, err error) *Result {
	slog.Warn("workflow phase failed", "workflow_id", state.WorkflowID, "error", err)
	state.Finalize(StatusFailed)
	return e.finish(state, nodes, started)
}

func (e *Engine) finish(state *State, nodes []NodeExecution, _ time.Time) *Result {
	snap := state.Snapshot()
	return &Result{
		WorkflowID: snap.WorkflowID,
		TaskID:     snap.TaskID,
		Status:     snap.WorkflowStatus,
		State:      snap,
		Nodes:      nodes,
		Errors:     snap.Errors,
		StartedAt:  snap.StartedAt,
		EndedAt:    snap.EndedAt,
	}
}
