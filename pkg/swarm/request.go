package swarm

import (
	"strings"

	"github.com/agentswarm/core/pkg/task"
)

// techKeywords is the bounded technical-term vocabulary surfaced in
// parsed request context, mirroring the keyword extraction the original
// chat-parsing heuristic performed (§4.3 supplemented feature).
var techKeywords = []string{
	"api", "database", "service", "function", "class", "method",
	"test", "bug", "error", "performance", "security", "deploy",
	"refactor", "optimize", "documentation", "pattern",
}

var typeKeywords = []struct {
	taskType string
	words    []string
}{
	{"repository_analysis", []string{"analyze", "analysis", "review", "examine"}},
	{"code_generation", []string{"code", "implement", "build", "create", "generate"}},
	{"planning", []string{"plan", "design", "architecture"}},
}

var priorityKeywords = []struct {
	priority task.Priority
	words    []string
}{
	{task.PriorityHigh, []string{"urgent", "critical", "asap"}},
	{task.PriorityLow, []string{"low", "minor", "small"}},
}

// ParseChatMessage derives a Request from a free-text message, used by
// the chat path (§4.3: "an isolated function (swap target in §9)").
func ParseChatMessage(message string, userContext map[string]any) Request {
	lower := strings.ToLower(message)

	taskType := "repository_analysis"
	for _, tk := range typeKeywords {
		if containsAny(lower, tk.words) {
			taskType = tk.taskType
			break
		}
	}

	priority := task.PriorityMedium
	for _, pk := range priorityKeywords {
		if containsAny(lower, pk.words) {
			priority = pk.priority
			break
		}
	}

	return Request{
		Description: message,
		Type:        taskType,
		Priority:    priority,
		Context: map[string]any{
			"original_message": message,
			"parsed_keywords":  extractKeywords(lower),
			"user_context":     userContext,
		},
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func extractKeywords(lowerMessage string) []string {
	found := make([]string, 0)
	for _, kw := range techKeywords {
		if strings.Contains(lowerMessage, kw) {
			found = append(found, kw)
		}
	}
	return found
}
