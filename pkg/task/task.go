// Package task defines the unit of work (Task) and inter-agent envelope
// (Message) records shared across the swarm, plus an in-memory Task
// Service. Both types are immutable after creation except through the
// mutation methods below, which are the sole writers.
package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is a task's lifecycle state. Transitions are monotonic except
// pending->cancelled and in_progress->cancelled.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Priority orders tasks for agents that support prioritized acceptance.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Task is a unit of work dispatched to an agent.
//
// Invariants: CompletedAt is set iff Status is terminal; Result is set iff
// Status == StatusCompleted; Err is set iff Status == StatusFailed.
type Task struct {
	mu sync.RWMutex

	ID             string
	Title          string
	Description    string
	Type           string
	Priority       Priority
	status         Status
	CreatedAt      time.Time
	startedAt      time.Time
	completedAt    time.Time
	AssignedAgent  string
	ParentTaskID   string
	Context        map[string]any
	result         map[string]any
	err            string
}

// New creates a pending task of the given type.
func New(title, description, taskType string, priority Priority) *Task {
	if priority == "" {
		priority = PriorityMedium
	}
	return &Task{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		Type:        taskType,
		Priority:    priority,
		status:      StatusPending,
		CreatedAt:   time.Now(),
		Context:     make(map[string]any),
	}
}

// Status returns the current status (thread-safe read).
func (t *Task) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// StartedAt, CompletedAt, Result, Err are thread-safe accessors mirroring
// the private fields mutated by Start/Complete/Fail/Cancel below.
func (t *Task) StartedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.startedAt
}

func (t *Task) CompletedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.completedAt
}

func (t *Task) Result() map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.result
}

func (t *Task) Err() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// Start assigns an owning agent and transitions to in_progress.
func (t *Task) Start(agentID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.AssignedAgent = agentID
	t.status = StatusInProgress
	t.startedAt = time.Now()
}

// Complete transitions to completed with a result payload.
func (t *Task) Complete(result map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.result = result
	t.status = StatusCompleted
	t.completedAt = time.Now()
}

// Fail transitions to failed with an error description.
func (t *Task) Fail(errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.err = errMsg
	t.status = StatusFailed
	t.completedAt = time.Now()
}

// Cancel transitions to cancelled, if not already terminal. Idempotent.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.IsTerminal() {
		return
	}
	t.status = StatusCancelled
	t.completedAt = time.Now()
}

// Message is an envelope routed between agents through the bus. Immutable
// after send.
type Message struct {
	ID              string
	SenderID        string
	RecipientID     string // empty => broadcast / group-scoped
	Type            string
	Content         map[string]any
	Timestamp       time.Time
	TaskID          string
	RequiresResponse bool
}

// NewMessage builds a message ready to hand to the bus.
func NewMessage(sender, recipient, msgType string, content map[string]any) *Message {
	return &Message{
		ID:          uuid.New().String(),
		SenderID:    sender,
		RecipientID: recipient,
		Type:        msgType,
		Content:     content,
		Timestamp:   time.Now(),
	}
}

// Well-known message types used by the built-in agent handlers.
const (
	MessageCollaborationRequest  = "collaboration_request"
	MessageCollaborationAccepted = "collaboration_accepted"
	MessageTaskAssignment        = "task_assignment"
	MessageTaskDelegation        = "task_delegation"
	MessageTaskResponse          = "task_response"
	MessageStatusInquiry         = "status_inquiry"
	MessageStatusResponse        = "status_response"
	MessageGroupCreated          = "group_created"
)

// Service manages task lifecycle storage, independent of any agent.
type Service interface {
	Create(ctx context.Context, title, description, taskType string, priority Priority) (*Task, error)
	Get(ctx context.Context, id string) (*Task, error)
	Update(ctx context.Context, t *Task) error
	Cancel(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Task, error)
}

// InMemoryService is the default Service implementation.
type InMemoryService struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

func NewInMemoryService() *InMemoryService {
	return &InMemoryService{tasks: make(map[string]*Task)}
}

func (s *InMemoryService) Create(_ context.Context, title, description, taskType string, priority Priority) (*Task, error) {
	t := New(title, description, taskType, priority)
	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()
	return t, nil
}

func (s *InMemoryService) Get(_ context.Context, id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

func (s *InMemoryService) Update(_ context.Context, t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; !ok {
		return ErrNotFound
	}
	s.tasks[t.ID] = t
	return nil
}

func (s *InMemoryService) Cancel(_ context.Context, id string) error {
	s.mu.Lock()
	t, ok := s.tasks[id]
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	t.Cancel()
	return nil
}

func (s *InMemoryService) List(_ context.Context) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	return out, nil
}

// TaskError is a task-related sentinel error.
type TaskError struct {
	Code    string
	Message string
}

func (e *TaskError) Error() string { return e.Message }

var (
	ErrNotFound = &TaskError{Code: "task_not_found", Message: "task not found"}
	ErrTerminal = &TaskError{Code: "task_terminal", Message: "task is in a terminal state"}
)
