package collaborators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLLMCountsTokens(t *testing.T) {
	llm, err := NewLocalLLM("gpt-4o")
	require.NoError(t, err)

	res, err := llm.Complete(context.Background(), CompletionRequest{Content: "hello world"})
	require.NoError(t, err)
	assert.Greater(t, res.TokenCount, 0)
	assert.False(t, res.FallbackUsed)
	assert.Equal(t, "local-stub", res.Provider)
}

func TestLocalRepositoryTreeAndFile(t *testing.T) {
	repo := NewLocalRepository(map[string][]byte{
		"src/main.go":  []byte("package main"),
		"src/util.go":  []byte("package main"),
		"README.md":    []byte("# hi"),
	})

	tree, err := repo.Tree(context.Background(), "src/", "main")
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "src/main.go", tree[0].Path)

	content, err := repo.File(context.Background(), "README.md")
	require.NoError(t, err)
	assert.Equal(t, "# hi", string(content))

	_, err = repo.File(context.Background(), "missing.go")
	assert.Error(t, err)
}
