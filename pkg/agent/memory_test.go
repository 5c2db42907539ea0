package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentswarm/core/pkg/task"
)

func TestMemoryTierPrecedence(t *testing.T) {
	m := NewMemory("a1")
	m.SetLongTerm("general", "x", "long")
	m.SetWorking("x", "working")
	m.SetShortTerm("x", "short")

	v, ok := m.Retrieve("x")
	assert.True(t, ok)
	assert.Equal(t, "short", v, "short-term must take precedence over working and long-term")
}

func TestMemoryWorkingClearedDoesNotAffectOtherTiers(t *testing.T) {
	m := NewMemory("a1")
	m.SetShortTerm("s", 1)
	m.SetWorking("w", 2)
	m.SetLongTerm("cat", "l", 3)

	m.ClearWorking()

	_, ok := m.Retrieve("w")
	assert.False(t, ok)
	_, ok = m.Retrieve("s")
	assert.True(t, ok)
	_, ok = m.Retrieve("l")
	assert.True(t, ok)
}

func TestMemoryConversationHistoryBounded(t *testing.T) {
	m := NewMemory("a1")
	m.conversationBound = 3

	for i := 0; i < 5; i++ {
		m.AddConversation(task.NewMessage("a", "b", "status_inquiry", nil))
	}

	assert.Equal(t, 3, m.conversationLen())
}

func TestMemoryAccessCounterIncrements(t *testing.T) {
	m := NewMemory("a1")
	m.SetLongTerm("cat", "k", "v")

	_, _ = m.Retrieve("k")
	_, _ = m.Retrieve("k")

	m.mu.Lock()
	entry := m.longTerm["cat"]["k"]
	m.mu.Unlock()
	assert.Equal(t, 2, entry.accessCount)
}
