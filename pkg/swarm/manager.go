// Package swarm implements the central manager that owns the agent
// registry, routes requests to the direct-agent, workflow, or
// multi-planner-fan-out execution paths, and tracks task results.
package swarm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agentswarm/core/pkg/agent"
	"github.com/agentswarm/core/pkg/bus"
	"github.com/agentswarm/core/pkg/checkpoint"
	"github.com/agentswarm/core/pkg/registry"
	"github.com/agentswarm/core/pkg/task"
	"github.com/agentswarm/core/pkg/workflow"
	"github.com/google/uuid"
)

// historyBound is "keep the last 100 tasks" (original _execute history
// trim).
const historyBound = 100

// Request is a swarm task submission. Description is required;
// everything else may be zero-valued and filled in by ParseChatMessage
// for the free-text chat path.
type Request struct {
	Description string
	Type        string
	Priority    task.Priority
	Context     map[string]any
}

// Result tracks one submitted task's lifecycle for the /tasks routes.
type Result struct {
	TaskID           string         `json:"task_id"`
	Status           string         `json:"status"`
	Result           map[string]any `json:"result"`
	Error            string         `json:"error,omitempty"`
	WorkflowID       string         `json:"workflow_id,omitempty"`
	ProcessingTimeMs float64        `json:"processing_time_ms"`
	AgentsInvolved   []string       `json:"agents_involved"`
	CreatedAt        time.Time      `json:"created_at"`
	CompletedAt      time.Time      `json:"completed_at,omitempty"`
}

// Manager is the swarm's central coordinator. It implements
// workflow.AgentResolver so the engine it owns can resolve agents by role
// without pkg/workflow importing this package.
type Manager struct {
	agents *registry.BaseRegistry[agent.Agent]
	bus    *bus.Bus
	engine *workflow.Engine

	mu              sync.Mutex
	rolesIndex      map[string][]string
	results         map[string]*Result
	history         []*Result
	initialized     bool
	initErr         error
}

// New constructs a manager and its workflow engine in one step (the
// engine needs the manager as its AgentResolver, so construction is
// two-phase internally but a single call externally).
func New(b *bus.Bus, checkpoints *checkpoint.Hooks, cfg workflow.Config) *Manager {
	m := &Manager{
		agents:     registry.NewBaseRegistry[agent.Agent](),
		bus:        b,
		rolesIndex: make(map[string][]string),
		results:    make(map[string]*Result),
	}
	m.engine = workflow.NewEngine(m, b, checkpoints, cfg)
	return m
}

// RegisterAgent adds an agent under a role for routing purposes and
// registers it with the bus for message delivery.
func (m *Manager) RegisterAgent(role string, a agent.Agent) error {
	if err := m.agents.Register(a.ID(), a); err != nil {
		return err
	}
	m.bus.RegisterAgent(a)

	m.mu.Lock()
	m.rolesIndex[role] = append(m.rolesIndex[role], a.ID())
	m.mu.Unlock()
	return nil
}

// ResolveAgent implements workflow.AgentResolver: first-registered agent
// for the role.
func (m *Manager) ResolveAgent(role string) (agent.Agent, bool) {
	m.mu.Lock()
	ids := m.rolesIndex[role]
	m.mu.Unlock()
	if len(ids) == 0 {
		return nil, false
	}
	a, ok := m.agents.Get(ids[0])
	return a, ok
}

// resolveAllAgents returns every agent registered under role, in
// registration order, used by the multi-planner fan-out path.
func (m *Manager) resolveAllAgents(role string) []agent.Agent {
	m.mu.Lock()
	ids := append([]string(nil), m.rolesIndex[role]...)
	m.mu.Unlock()

	agents := make([]agent.Agent, 0, len(ids))
	for _, id := range ids {
		if a, ok := m.agents.Get(id); ok {
			agents = append(agents, a)
		}
	}
	return agents
}

// Initialize is idempotent: a prior failure is remembered and causes
// every subsequent call (and, by extension, every Submit) to fail fast.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}
	if m.initErr != nil {
		return m.initErr
	}

	if len(m.agents.List()) == 0 {
		m.initErr = fmt.Errorf("swarm: no agents registered")
		return m.initErr
	}

	m.initialized = true
	slog.Info("swarm manager initialized", "agents", len(m.agents.List()))
	return nil
}

// Shutdown sets every running or pending task's status to cancelled
// (stamping CompletedAt), stops every agent, and shuts the bus down. It
// does not cancel the context a task's execution runs under: an execution
// still in progress keeps running, and when it finishes its own outcome
// replaces the cancelled status.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	for _, r := range m.results {
		if r.Status == string(workflow.StatusRunning) || r.Status == "pending" {
			r.Status = string(workflow.StatusCancelled)
			r.CompletedAt = time.Now()
		}
	}
	m.mu.Unlock()

	for _, id := range m.agents.Keys() {
		if a, ok := m.agents.Get(id); ok {
			a.Stop()
		}
	}
	m.bus.Shutdown()
}

// Submit creates a task_id, starts execution in the background, and
// returns immediately (§6 /tasks/create returns {task_id, status,
// message} without waiting for completion).
func (m *Manager) Submit(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	initialized, initErr := m.initialized, m.initErr
	m.mu.Unlock()
	if initErr != nil {
		return "", initErr
	}
	if !initialized {
		return "", fmt.Errorf("swarm: not initialized")
	}

	taskID := uuid.NewString()
	result := &Result{
		TaskID:    taskID,
		Status:    "running",
		Result:    map[string]any{},
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.results[taskID] = result
	m.mu.Unlock()

	go m.run(ctx, taskID, req, result)

	return taskID, nil
}

func (m *Manager) run(ctx context.Context, taskID string, req Request, result *Result) {
	start := time.Now()

	out, agentsInvolved, workflowID, status, err := m.dispatch(ctx, taskID, req)

	m.mu.Lock()
	defer m.mu.Unlock()

	result.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000.0
	result.AgentsInvolved = agentsInvolved
	result.WorkflowID = workflowID
	result.CompletedAt = time.Now()

	switch {
	case status != "":
		// The dispatcher already knows the precise outcome (completed,
		// cancelled, requires_approval, failed); don't binarize it.
		result.Status = status
		result.Result = out
		if err != nil {
			result.Error = err.Error()
			slog.Error("swarm task failed", "task_id", taskID, "error", err)
		}
	case err != nil:
		result.Status = "failed"
		result.Error = err.Error()
		slog.Error("swarm task failed", "task_id", taskID, "error", err)
	default:
		result.Status = "completed"
		result.Result = out
	}

	m.history = append(m.history, result)
	if len(m.history) > historyBound {
		m.history = m.history[len(m.history)-historyBound:]
	}
}

// Status returns the current tracked result for a task id.
func (m *Manager) Status(taskID string) (Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[taskID]
	if !ok {
		return Result{}, false
	}
	return *r, true
}

// List returns a snapshot of every tracked result (§6 GET /tasks).
func (m *Manager) List() []Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Result, 0, len(m.results))
	for _, r := range m.results {
		out = append(out, *r)
	}
	return out
}

// ActiveCount is surfaced by the /health route.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.results {
		if r.Status == "running" || r.Status == "pending" {
			n++
		}
	}
	return n
}
