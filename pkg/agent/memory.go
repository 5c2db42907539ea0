package agent

import (
	"sync"
	"time"

	"github.com/agentswarm/core/pkg/task"
)

const defaultConversationHistoryBound = 100

// memoryEntry pairs a stored value with its last-write time and, for
// long-term entries, an access counter incremented on every retrieval.
type memoryEntry struct {
	value       any
	storedAt    time.Time
	accessCount int
}

// Memory is an agent's three-tier store plus bounded conversation history:
// short-term (session-scoped, cleared on Stop), working (task-scoped,
// cleared on every task completion), and long-term (categorized,
// never evicted by the core — eviction policy is an open question).
type Memory struct {
	mu sync.Mutex

	agentID string

	shortTerm map[string]*memoryEntry
	working   map[string]*memoryEntry
	longTerm  map[string]map[string]*memoryEntry // category -> key -> entry

	conversation     []*task.Message
	conversationBound int
}

func NewMemory(agentID string) *Memory {
	return &Memory{
		agentID:           agentID,
		shortTerm:         make(map[string]*memoryEntry),
		working:           make(map[string]*memoryEntry),
		longTerm:          make(map[string]map[string]*memoryEntry),
		conversationBound: defaultConversationHistoryBound,
	}
}

func (m *Memory) SetShortTerm(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shortTerm[key] = &memoryEntry{value: value, storedAt: time.Now()}
}

func (m *Memory) ClearShortTerm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shortTerm = make(map[string]*memoryEntry)
}

func (m *Memory) SetWorking(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.working[key] = &memoryEntry{value: value, storedAt: time.Now()}
}

// ClearWorking wipes task-scoped memory. Process calls this on every exit
// path (success, failure, cancellation) so invariant (ii) in §3 holds:
// working memory is empty whenever the agent has no in-progress task.
func (m *Memory) ClearWorking() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.working = make(map[string]*memoryEntry)
}

func (m *Memory) SetLongTerm(category, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cat, ok := m.longTerm[category]
	if !ok {
		cat = make(map[string]*memoryEntry)
		m.longTerm[category] = cat
	}
	cat[key] = &memoryEntry{value: value, storedAt: time.Now()}
}

// Retrieve checks short-term, then working, then long-term (any category),
// in that order, incrementing the access counter on whichever entry is found.
func (m *Memory) Retrieve(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.shortTerm[key]; ok {
		e.accessCount++
		return e.value, true
	}
	if e, ok := m.working[key]; ok {
		e.accessCount++
		return e.value, true
	}
	for _, cat := range m.longTerm {
		if e, ok := cat[key]; ok {
			e.accessCount++
			return e.value, true
		}
	}
	return nil, false
}

// AddConversation appends a message, dropping the oldest once the bound
// (default 100) is exceeded.
func (m *Memory) AddConversation(msg *task.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversation = append(m.conversation, msg)
	if len(m.conversation) > m.conversationBound {
		m.conversation = m.conversation[len(m.conversation)-m.conversationBound:]
	}
}

// RecentConversation returns up to limit of the most recent messages.
func (m *Memory) RecentConversation(limit int) []*task.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.conversation) {
		limit = len(m.conversation)
	}
	out := make([]*task.Message, limit)
	copy(out, m.conversation[len(m.conversation)-limit:])
	return out
}

func (m *Memory) conversationLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conversation)
}

// counts reports tier sizes for the status snapshot.
func (m *Memory) counts() (shortTerm, working, categories int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.shortTerm), len(m.working), len(m.longTerm)
}
