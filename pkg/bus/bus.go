// Package bus implements the directed/group message bus: FIFO delivery,
// collaboration groups, per-task assignment and result collection, and
// conflict resolution across competing results for the same task.
//
// A Bus is a process-wide service constructed explicitly and injected into
// the swarm manager and engine — never a package-level singleton.
package bus

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agentswarm/core/pkg/agent"
	"github.com/agentswarm/core/pkg/task"
)

const (
	defaultHistoryBound       = 1000
	defaultCollectionInterval = 500 * time.Millisecond
	defaultCollectionTimeout  = 30 * time.Second
)

// BusError is a bus-related sentinel error.
type BusError struct {
	Code    string
	Message string
}

func (e *BusError) Error() string { return e.Message }

// Metrics mirrors the plain counters the original bus tracked. The bus
// updates them under its mutex; Snapshot returns a copy taken under it.
type Metrics struct {
	MessagesSent     int64
	MessagesDelivered int64
	MessagesFailed   int64
	ConflictsResolved int64
	TasksCoordinated int64
}

// Subscriber is invoked after a message of a subscribed type is delivered.
// Callback failures are isolated per the spec: logged, never re-raised.
type Subscriber func(msg *task.Message)

// Bus is the FIFO message router plus task-coordination surface.
type Bus struct {
	mu sync.Mutex

	agents map[string]agent.Agent
	queue  *list.List

	history      []*task.Message
	historyBound int

	groups map[string]map[string]bool // group name -> agent ids

	assignments map[string][]string // task id -> assigned agent ids
	subscribers map[string][]Subscriber

	metrics Metrics

	wake     chan struct{}
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New constructs a Bus and starts its background delivery worker. Call
// Shutdown to stop it cleanly.
func New() *Bus {
	b := &Bus{
		agents:       make(map[string]agent.Agent),
		queue:        list.New(),
		historyBound: defaultHistoryBound,
		groups:       make(map[string]map[string]bool),
		assignments:  make(map[string][]string),
		subscribers:  make(map[string][]Subscriber),
		wake:         make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	go b.deliveryLoop()
	return b
}

// RegisterAgent makes an agent addressable by the bus.
func (b *Bus) RegisterAgent(a agent.Agent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.agents[a.ID()] = a
}

// UnregisterAgent removes an agent from the bus's address space.
func (b *Bus) UnregisterAgent(agentID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.agents, agentID)
}

// Send enqueues a message for FIFO delivery.
func (b *Bus) Send(msg *task.Message) {
	b.mu.Lock()
	b.queue.PushBack(msg)
	b.metrics.MessagesSent++
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Broadcast sends msgType/content from sender to every other registered
// agent and returns the recipient ids.
func (b *Bus) Broadcast(sender, msgType string, content map[string]any) []string {
	b.mu.Lock()
	recipients := make([]string, 0, len(b.agents))
	for id := range b.agents {
		if id == sender {
			continue
		}
		recipients = append(recipients, id)
	}
	b.mu.Unlock()

	for _, r := range recipients {
		b.Send(task.NewMessage(sender, r, msgType, content))
	}
	return recipients
}

// CreateGroup registers a named group of at least two known agent ids,
// filtering out any id not currently registered, and notifies the members.
func (b *Bus) CreateGroup(name string, agentIDs []string) error {
	b.mu.Lock()
	valid := make(map[string]bool)
	for _, id := range agentIDs {
		if _, ok := b.agents[id]; ok {
			valid[id] = true
		}
	}
	if len(valid) < 2 {
		b.mu.Unlock()
		return &BusError{Code: "group_too_small", Message: fmt.Sprintf("bus: group %q needs at least 2 registered agents", name)}
	}
	b.groups[name] = valid
	b.mu.Unlock()

	for id := range valid {
		b.Send(task.NewMessage("bus", id, task.MessageGroupCreated, map[string]any{"group": name}))
	}
	return nil
}

// SendToGroup delivers to every member of name except sender. Unknown
// groups return an empty recipient list and log a warning.
func (b *Bus) SendToGroup(name, sender, msgType string, content map[string]any) []string {
	b.mu.Lock()
	members, ok := b.groups[name]
	if !ok {
		b.mu.Unlock()
		slog.Warn("send to unknown group", "group", name)
		return nil
	}
	recipients := make([]string, 0, len(members))
	for id := range members {
		if id != sender {
			recipients = append(recipients, id)
		}
	}
	b.mu.Unlock()

	for _, r := range recipients {
		b.Send(task.NewMessage(sender, r, msgType, content))
	}
	return recipients
}

// SubscribeToEvents registers a callback invoked after each successful
// delivery of messages of the given type.
func (b *Bus) SubscribeToEvents(msgType string, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[msgType] = append(b.subscribers[msgType], sub)
}

// deliveryLoop is the single background worker that drains the FIFO queue.
func (b *Bus) deliveryLoop() {
	defer close(b.doneCh)
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		b.drainQueue()
		select {
		case <-b.stopCh:
			return
		case <-b.wake:
		case <-ticker.C:
			// 25-second quiet tick: a suspension point with nothing to
			// deliver, kept alive so the worker never blocks forever.
		}
	}
}

func (b *Bus) drainQueue() {
	for {
		b.mu.Lock()
		front := b.queue.Front()
		if front == nil {
			b.mu.Unlock()
			return
		}
		b.queue.Remove(front)
		b.mu.Unlock()

		msg := front.Value.(*task.Message)
		b.deliver(msg)
	}
}

func (b *Bus) deliver(msg *task.Message) {
	b.mu.Lock()
	b.history = append(b.history, msg)
	if len(b.history) > b.historyBound {
		b.history = b.history[len(b.history)-b.historyBound:]
	}
	recipient, known := b.agents[msg.RecipientID]
	b.mu.Unlock()

	if msg.RecipientID == "" || !known {
		b.mu.Lock()
		b.metrics.MessagesFailed++
		b.mu.Unlock()
		slog.Warn("message delivery failed: unknown recipient", "recipient", msg.RecipientID, "type", msg.Type)
		return
	}

	reply := recipient.Receive(context.Background(), msg)

	b.mu.Lock()
	b.metrics.MessagesDelivered++
	b.mu.Unlock()

	if reply != nil {
		b.Send(reply)
	}
	b.notifySubscribers(msg)
}

func (b *Bus) notifySubscribers(msg *task.Message) {
	b.mu.Lock()
	subs := append([]Subscriber(nil), b.subscribers[msg.Type]...)
	b.mu.Unlock()

	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Warn("bus subscriber callback failed", "type", msg.Type, "panic", r)
				}
			}()
			sub(msg)
		}()
	}
}

// CoordinateResult is returned by CoordinateTask.
type CoordinateResult struct {
	Success         bool
	Error           string
	TaskID          string
	AssignedAgents  []string
	AvailableAgents []string
}

// CoordinateTask assigns a task to the first suitable agent among the
// preferred set (or all registered agents if none preferred), where
// "suitable" means Accept(task) == true. This is intentionally the
// simplest possible policy — see DESIGN.md Open Question #2.
func (b *Bus) CoordinateTask(t *task.Task, preferred []string) CoordinateResult {
	b.mu.Lock()
	var candidates []agent.Agent
	if len(preferred) > 0 {
		for _, id := range preferred {
			if a, ok := b.agents[id]; ok {
				candidates = append(candidates, a)
			}
		}
	} else {
		for _, a := range b.agents {
			candidates = append(candidates, a)
		}
	}
	b.mu.Unlock()

	var suitable []agent.Agent
	for _, a := range candidates {
		if a.Accept(t) {
			suitable = append(suitable, a)
		}
	}

	if len(suitable) == 0 {
		return CoordinateResult{Success: false, Error: "no suitable agent available", TaskID: t.ID}
	}

	assigned := suitable[0]
	b.mu.Lock()
	b.assignments[t.ID] = []string{assigned.ID()}
	b.metrics.TasksCoordinated++
	b.mu.Unlock()

	b.Send(task.NewMessage("bus", assigned.ID(), task.MessageTaskAssignment, map[string]any{
		"task_id": t.ID,
	}))

	available := make([]string, 0, len(suitable))
	for _, a := range suitable {
		available = append(available, a.ID())
	}

	return CoordinateResult{
		Success:         true,
		TaskID:          t.ID,
		AssignedAgents:  []string{assigned.ID()},
		AvailableAgents: available,
	}
}

// AgentResponse is one assigned agent's outcome in a CollectResponses call.
type AgentResponse struct {
	Status         string // "completed" or "timeout"
	Result         map[string]any
	Error          string
	CompletionTime time.Time
}

// CollectResponses polls t until it reaches a terminal state or timeout
// elapses, at the bus's collection cadence (default 500ms), and reports
// one AgentResponse per agent CoordinateTask assigned t to. It never
// blocks indefinitely — a positive ctx deadline or the timeout parameter
// (default 30s) always bounds the wait.
func (b *Bus) CollectResponses(ctx context.Context, t *task.Task, timeout time.Duration) map[string]AgentResponse {
	if timeout <= 0 {
		timeout = defaultCollectionTimeout
	}
	b.mu.Lock()
	assigned := append([]string(nil), b.assignments[t.ID]...)
	b.mu.Unlock()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(defaultCollectionInterval)
	defer ticker.Stop()

	for {
		if t.Status().IsTerminal() {
			responses := make(map[string]AgentResponse, len(assigned))
			for _, id := range assigned {
				responses[id] = AgentResponse{Status: "completed", Result: t.Result(), Error: t.Err(), CompletionTime: time.Now()}
			}
			return responses
		}

		if time.Now().After(deadline) || ctx.Err() != nil {
			responses := make(map[string]AgentResponse, len(assigned))
			for _, id := range assigned {
				responses[id] = AgentResponse{Status: "timeout", Error: "collection deadline exceeded"}
			}
			return responses
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}

// ConflictStrategy selects how CollectResponses results are reconciled.
type ConflictStrategy string

const (
	StrategyConsensus      ConflictStrategy = "consensus"
	StrategyMajority       ConflictStrategy = "majority"
	StrategyExpertPriority ConflictStrategy = "expert_priority"
)

// ResolveConflicts reconciles two or more candidate result maps for the
// same task using the named strategy, returning the chosen result and a
// confidence score in [0,1].
func (b *Bus) ResolveConflicts(candidates []map[string]any, strategy ConflictStrategy) (map[string]any, float64) {
	if len(candidates) == 0 {
		return nil, 0
	}
	if len(candidates) == 1 {
		return candidates[0], 1
	}

	var chosen map[string]any
	switch strategy {
	case StrategyConsensus:
		chosen = resolveByConsensus(candidates)
	case StrategyMajority:
		chosen = resolveByMajority(candidates)
	case StrategyExpertPriority:
		chosen = candidates[0]
	default:
		chosen = candidates[0]
	}

	b.mu.Lock()
	b.metrics.ConflictsResolved++
	b.mu.Unlock()

	return chosen, calculateConfidence(candidates, chosen)
}

// Snapshot returns a copy of the current metrics plus live sizes.
func (b *Bus) Snapshot() (Metrics, int, int, int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.metrics, len(b.agents), b.queue.Len(), len(b.history), len(b.groups)
}

// Shutdown stops the delivery worker and waits for it to exit.
func (b *Bus) Shutdown() {
	b.stopOnce.Do(func() { close(b.stopCh) })
	<-b.doneCh
}
