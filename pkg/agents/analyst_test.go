package agents

import (
	"context"
	"testing"

	"github.com/agentswarm/core/pkg/agent"
	"github.com/agentswarm/core/pkg/collaborators"
	"github.com/agentswarm/core/pkg/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo() *collaborators.LocalRepository {
	return collaborators.NewLocalRepository(map[string][]byte{
		"services/order_service.go": []byte(`package order
func Handle() {
	if true {
		for i := 0; i < 3; i++ {
		}
	}
}
`),
		"services/payment_service.go": []byte("package payment\nfunc Run() {}\n"),
		"repository/user_repository.go": []byte(`// UserRepository persists users.
package repository
func Save() {}
`),
		"repository/order_repo.go": []byte("package repository\nfunc Load() {}\n"),
		"README.md":                   []byte("# Docs\n\nSome notes."),
	})
}

func TestRepositoryAnalystAgent(t *testing.T) {
	a := NewRepositoryAnalystAgent("analyst-1", agent.DefaultResourceLimits(), newTestRepo())
	tk := task.New("analyze", "analyze the repository", "repository_analysis", task.PriorityMedium)

	result := a.Process(context.Background(), tk)

	require.Equal(t, task.StatusCompleted, result.Status())
	out := result.Result()

	structure, ok := out["structure"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 5, structure["total_files"])

	patterns, ok := out["patterns"].(map[string]bool)
	require.True(t, ok)
	assert.True(t, patterns["microservices"] == false) // only 2 "service" paths, threshold is 3
	assert.True(t, patterns["repository_pattern"])

	assert.Contains(t, out, "quality_insights")
	assert.Contains(t, out, "recommendations")
	assert.Contains(t, out, "chunks_analyzed")
}

func TestDetectPatternsThresholds(t *testing.T) {
	paths := []string{"a/service1", "b/service2", "c/service3"}
	patterns := detectPatterns(paths)
	assert.True(t, patterns["microservices"])
}

func TestDetectPatternsMVC(t *testing.T) {
	paths := []string{"app/model.go", "app/view.go", "app/controller.go"}
	patterns := detectPatterns(paths)
	assert.True(t, patterns["mvc"])
}

func TestEstimateComplexityCapsAtOne(t *testing.T) {
	content := ""
	for i := 0; i < 200; i++ {
		content += "if true {}\nfor {}\ntry {} catch {}\n"
	}
	assert.Equal(t, 1.0, estimateComplexity(content))
}

func TestHasDocumentationRecognizesBlockComments(t *testing.T) {
	assert.True(t, hasDocumentation(`"""docstring"""`))
	assert.False(t, hasDocumentation("x := 1\ny := 2"))
}

func TestGenerateRecommendationsFlagsMissingTests(t *testing.T) {
	recs := generateRecommendations([]string{"main.go"}, nil)
	assert.Contains(t, recs["prioritized"], "Add comprehensive test suite")
}
