package workflow

import "time"

// NodeExecution records one phase's run for the per-workflow metrics and
// for diagnostics on failure.
type NodeExecution struct {
	Phase      Phase          `json:"phase"`
	AgentID    string         `json:"agent_id"`
	Status     string         `json:"status"` // running | completed | failed | timeout | cancelled
	StartedAt  time.Time      `json:"started_at"`
	EndedAt    time.Time      `json:"ended_at"`
	RetryCount int            `json:"retry_count"`
	Input      map[string]any `json:"input,omitempty"`
	Error      string         `json:"error,omitempty"`
}

func (n NodeExecution) Duration() time.Duration {
	if n.EndedAt.IsZero() {
		return 0
	}
	return n.EndedAt.Sub(n.StartedAt)
}

// Result is the terminal record returned by the engine and surfaced
// through the swarm manager's result route.
type Result struct {
	WorkflowID   string          `json:"workflow_id"`
	TaskID       string          `json:"task_id"`
	Status       Status          `json:"status"`
	State        State           `json:"state"`
	Nodes        []NodeExecution `json:"nodes"`
	Errors       []string        `json:"errors"`
	StartedAt    time.Time       `json:"started_at"`
	EndedAt      time.Time       `json:"ended_at"`
}

// Metrics summarizes node executions: total nodes executed, success
// count, failure count, success rate, total and per-node durations.
type Metrics struct {
	TotalNodes    int                      `json:"total_nodes"`
	SuccessCount  int                      `json:"success_count"`
	FailureCount  int                      `json:"failure_count"`
	SuccessRate   float64                  `json:"success_rate"`
	TotalDuration time.Duration            `json:"total_duration"`
	NodeDurations map[Phase]time.Duration  `json:"node_durations"`
}

// combineMetrics reduces a node-execution list into summary metrics,
// folding branch outcomes into one record.
func combineMetrics(nodes []NodeExecution, total time.Duration) Metrics {
	m := Metrics{
		TotalNodes:    len(nodes),
		TotalDuration: total,
		NodeDurations: make(map[Phase]time.Duration, len(nodes)),
	}
	for _, n := range nodes {
		m.NodeDurations[n.Phase] = n.Duration()
		switch n.Status {
		case "completed":
			m.SuccessCount++
		case "failed", "timeout", "cancelled":
			m.FailureCount++
		}
	}
	if m.TotalNodes > 0 {
		m.SuccessRate = float64(m.SuccessCount) / float64(m.TotalNodes)
	}
	return m
}
