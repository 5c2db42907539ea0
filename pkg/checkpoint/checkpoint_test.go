package checkpoint

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSaveLoadLatest(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "wf-1", "repository_analysis", json.RawMessage(`{"a":1}`)))
	require.NoError(t, s.Save(ctx, "wf-1", "plan_synthesis", json.RawMessage(`{"a":2}`)))

	rec, ok, err := s.LoadLatest(ctx, "wf-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "plan_synthesis", rec.Phase)
}

func TestMemoryStoreClear(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "wf-1", "p", json.RawMessage(`{}`)))

	require.NoError(t, s.Clear(ctx, "wf-1"))

	_, ok, err := s.LoadLatest(ctx, "wf-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHooksNeverFailOnBadStore(t *testing.T) {
	h := NewHooks(&failingStore{})
	// Should not panic despite every operation erroring.
	h.AfterPhase(context.Background(), "wf-1", "phase", map[string]int{"a": 1})
	h.OnComplete(context.Background(), "wf-1")
	_, ok := h.Resume(context.Background(), "wf-1")
	assert.False(t, ok)
}

type failingStore struct{}

func (failingStore) Save(context.Context, string, string, json.RawMessage) error {
	return assertError{}
}
func (failingStore) LoadLatest(context.Context, string) (Record, bool, error) {
	return Record{}, false, assertError{}
}
func (failingStore) Clear(context.Context, string) error { return assertError{} }

type assertError struct{}

func (assertError) Error() string { return "boom" }
