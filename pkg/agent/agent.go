// Package agent defines the worker contract shared by every swarm
// participant: capability advertising, cooperative task acceptance,
// the process pipeline, message handling, and tiered memory.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agentswarm/core/pkg/task"
)

// Agent is the contract every worker in the swarm implements.
type Agent interface {
	ID() string
	Role() string
	Name() string

	// Accept reports whether the agent can take on task t right now:
	// active, under its concurrency cap, and capable of the task's type.
	Accept(t *task.Task) bool

	// Process runs the full task lifecycle and returns the terminal task.
	// It never panics or returns an error for a failed task execution —
	// the outcome is carried in the task itself.
	Process(ctx context.Context, t *task.Task) *task.Task

	// Receive handles an inbound message and optionally replies.
	Receive(ctx context.Context, msg *task.Message) *task.Message

	Start()
	Stop()
	Status() StatusSnapshot
}

// Executor is the role-specific unit of work an Agent's Process pipeline
// invokes. Implementations should treat the input task as read-only aside
// from its Context map and return the result payload for a successful run.
type Executor func(ctx context.Context, t *task.Task, mem *Memory) (map[string]any, error)

// StatusSnapshot is the data returned by Status(), matching the original
// system's get_status() shape.
type StatusSnapshot struct {
	AgentID                string
	Name                   string
	Role                   string
	Active                 bool
	CurrentTasks           int
	Capabilities           []string
	CollaborationPartners  []string
	ShortTermItems         int
	WorkingMemoryItems     int
	KnowledgeBaseCategories int
	ConversationHistory    int
}

// ResourceLimits bounds an agent's concurrent work.
type ResourceLimits struct {
	MaxConcurrentTasks int
	MemoryLimitMB      int
	TaskTimeout        time.Duration
}

func DefaultResourceLimits() ResourceLimits {
	return ResourceLimits{
		MaxConcurrentTasks: 3,
		MemoryLimitMB:      512,
		TaskTimeout:        5 * time.Minute,
	}
}

// BaseAgent is the concrete, capability-bundle implementation of Agent.
// Role variants are built by constructing a BaseAgent with a distinct
// Executor closure rather than by subclassing.
type BaseAgent struct {
	mu sync.RWMutex

	id     string
	role   string
	name   string
	limits ResourceLimits

	capabilities          map[string]bool
	collaborationPartners map[string]bool
	currentTasks          map[string]*task.Task

	active bool
	memory *Memory

	execute Executor
}

// NewBaseAgent constructs an inactive agent. Call Start() before
// submitting work to it.
func NewBaseAgent(id, role, name string, limits ResourceLimits, capabilities []string, exec Executor) *BaseAgent {
	caps := make(map[string]bool, len(capabilities))
	for _, c := range capabilities {
		caps[c] = true
	}
	return &BaseAgent{
		id:                    id,
		role:                  role,
		name:                  name,
		limits:                limits,
		capabilities:          caps,
		collaborationPartners: make(map[string]bool),
		currentTasks:          make(map[string]*task.Task),
		memory:                NewMemory(id),
		execute:               exec,
	}
}

func (a *BaseAgent) ID() string   { return a.id }
func (a *BaseAgent) Role() string { return a.role }
func (a *BaseAgent) Name() string { return a.name }

func (a *BaseAgent) hasCapability(name string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.capabilities[name]
}

// AddCapability registers an additional capability string.
func (a *BaseAgent) AddCapability(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.capabilities[name] = true
}

// Accept implements Agent.
func (a *BaseAgent) Accept(t *task.Task) bool {
	a.mu.RLock()
	active := a.active
	atCap := len(a.currentTasks) >= a.limits.MaxConcurrentTasks
	a.mu.RUnlock()

	if !active || atCap {
		return false
	}
	return a.hasCapability("handle_" + t.Type)
}

// Process implements Agent: the canonical pipeline — assign owner, start,
// track in current_tasks, install working memory, run the role-specific
// executor, resolve the terminal status, then clean up on every exit path.
func (a *BaseAgent) Process(ctx context.Context, t *task.Task) *task.Task {
	t.Start(a.id)

	a.mu.Lock()
	a.currentTasks[t.ID] = t
	a.mu.Unlock()

	a.memory.SetWorking("current_task_id", t.ID)

	defer func() {
		a.memory.ClearWorking()
		a.mu.Lock()
		delete(a.currentTasks, t.ID)
		a.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		t.Cancel()
		return t
	default:
	}

	result, err := a.runExecutor(ctx, t)
	switch {
	case ctx.Err() != nil:
		t.Cancel()
	case err != nil:
		t.Fail(err.Error())
	default:
		t.Complete(result)
	}
	return t
}

// runExecutor isolates a panicking or erroring executor so a single bad
// task can never escape Process and crash the agent.
func (a *BaseAgent) runExecutor(ctx context.Context, t *task.Task) (result map[string]any, err error) {
	if a.execute == nil {
		return nil, fmt.Errorf("agent %s: no executor configured", a.id)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent %s: executor panicked: %v", a.id, r)
		}
	}()
	return a.execute(ctx, t, a.memory)
}

// Receive implements Agent's built-in message handlers; unknown types are
// logged and draw no reply.
func (a *BaseAgent) Receive(ctx context.Context, msg *task.Message) *task.Message {
	a.memory.AddConversation(msg)

	switch msg.Type {
	case task.MessageCollaborationRequest:
		return a.handleCollaborationRequest(msg)
	case task.MessageTaskDelegation:
		return a.handleTaskDelegation(msg)
	case task.MessageStatusInquiry:
		return a.handleStatusInquiry(msg)
	default:
		slog.Warn("agent received unhandled message type", "agent_id", a.id, "type", msg.Type)
		return nil
	}
}

func (a *BaseAgent) handleCollaborationRequest(msg *task.Message) *task.Message {
	a.mu.Lock()
	a.collaborationPartners[msg.SenderID] = true
	a.mu.Unlock()

	caps := a.capabilityList()
	return task.NewMessage(a.id, msg.SenderID, task.MessageCollaborationAccepted, map[string]any{
		"capabilities": caps,
	})
}

func (a *BaseAgent) handleTaskDelegation(msg *task.Message) *task.Message {
	taskIDAny, _ := msg.Content["task"].(map[string]any)
	taskType, _ := taskIDAny["type"].(string)
	taskID, _ := taskIDAny["id"].(string)

	accepted := false
	if taskType != "" {
		accepted = a.hasCapability("handle_" + taskType)
	}

	return task.NewMessage(a.id, msg.SenderID, task.MessageTaskResponse, map[string]any{
		"task_id":  taskID,
		"accepted": accepted,
	})
}

func (a *BaseAgent) handleStatusInquiry(msg *task.Message) *task.Message {
	status := a.Status()
	return task.NewMessage(a.id, msg.SenderID, task.MessageStatusResponse, map[string]any{
		"status": status,
	})
}

func (a *BaseAgent) capabilityList() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.capabilities))
	for c := range a.capabilities {
		out = append(out, c)
	}
	return out
}

// Start activates the agent, clearing short-term memory from any prior run.
func (a *BaseAgent) Start() {
	a.mu.Lock()
	a.active = true
	a.mu.Unlock()
	a.memory.ClearShortTerm()
}

// Stop deactivates the agent, cancelling any in-flight tasks and clearing
// short-term memory. Idempotent.
func (a *BaseAgent) Stop() {
	a.mu.Lock()
	a.active = false
	inFlight := make([]*task.Task, 0, len(a.currentTasks))
	for _, t := range a.currentTasks {
		inFlight = append(inFlight, t)
	}
	a.mu.Unlock()

	for _, t := range inFlight {
		slog.Warn("cancelling in-flight task on agent stop", "agent_id", a.id, "task_id", t.ID)
		t.Cancel()
	}
	a.memory.ClearShortTerm()
}

// Status implements Agent.
func (a *BaseAgent) Status() StatusSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	partners := make([]string, 0, len(a.collaborationPartners))
	for p := range a.collaborationPartners {
		partners = append(partners, p)
	}
	caps := make([]string, 0, len(a.capabilities))
	for c := range a.capabilities {
		caps = append(caps, c)
	}

	shortTerm, working, categories := a.memory.counts()

	return StatusSnapshot{
		AgentID:                 a.id,
		Name:                    a.name,
		Role:                    a.role,
		Active:                  a.active,
		CurrentTasks:            len(a.currentTasks),
		Capabilities:            caps,
		CollaborationPartners:   partners,
		ShortTermItems:          shortTerm,
		WorkingMemoryItems:      working,
		KnowledgeBaseCategories: categories,
		ConversationHistory:     a.memory.conversationLen(),
	}
}
