// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics collection for the swarm runtime.
type Metrics struct {
	config   *MetricsConfig
	registry *prometheus.Registry

	// Agent metrics
	agentCalls        *prometheus.CounterVec
	agentCallDuration *prometheus.HistogramVec
	agentErrors       *prometheus.CounterVec
	agentActiveRuns   *prometheus.GaugeVec

	// Collaborator metrics (LLM / repo-fetch / retrieval backends)
	collaboratorCalls        *prometheus.CounterVec
	collaboratorCallDuration *prometheus.HistogramVec
	collaboratorTokensInput  *prometheus.CounterVec
	collaboratorTokensOutput *prometheus.CounterVec
	collaboratorErrors       *prometheus.CounterVec

	// Chunking metrics
	chunkingRuns     *prometheus.CounterVec
	chunkingDuration *prometheus.HistogramVec
	chunkingErrors   *prometheus.CounterVec

	// Retrieval metrics
	retrievalSearches *prometheus.CounterVec
	retrievalDuration *prometheus.HistogramVec
	retrievalResults  *prometheus.HistogramVec

	// Workflow metrics
	workflowsStarted  *prometheus.CounterVec
	workflowsActive   *prometheus.GaugeVec
	phaseTransitions  *prometheus.CounterVec

	// HTTP metrics
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpRequestSize  *prometheus.HistogramVec
	httpResponseSize *prometheus.HistogramVec

	// Checkpoint metrics
	checkpointsSaved    *prometheus.CounterVec
	checkpointsSkipped  *prometheus.CounterVec
	checkpointsErrors   *prometheus.CounterVec
	checkpointSaveDur   *prometheus.HistogramVec
	checkpointsLoaded   *prometheus.CounterVec
	checkpointLoadDur   *prometheus.HistogramVec
	checkpointLoadBytes *prometheus.HistogramVec

	// Audit metrics
	auditWrites   *prometheus.CounterVec
	auditErrors   *prometheus.CounterVec
	auditWriteDur *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance from configuration.
func NewMetrics(cfg *MetricsConfig) (*Metrics, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	cfg.SetDefaults()

	m := &Metrics{
		config:   cfg,
		registry: prometheus.NewRegistry(),
	}

	m.initAgentMetrics()
	m.initCollaboratorMetrics()
	m.initChunkingMetrics()
	m.initRetrievalMetrics()
	m.initWorkflowMetrics()
	m.initHTTPMetrics()
	m.initCheckpointMetrics()
	m.initAuditMetrics()

	return m, nil
}

func (m *Metrics) initAgentMetrics() {
	m.agentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "agent",
			Name:      "calls_total",
			Help:      "Total number of agent task executions",
		},
		[]string{"agent_id", "role"},
	)

	m.agentCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "agent",
			Name:      "call_duration_seconds",
			Help:      "Agent task execution duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 15), // 10ms to 163s
		},
		[]string{"agent_id", "role"},
	)

	m.agentErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "agent",
			Name:      "errors_total",
			Help:      "Total number of agent task errors",
		},
		[]string{"agent_id", "role", "error_type"},
	)

	m.agentActiveRuns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.config.Namespace,
			Subsystem: "agent",
			Name:      "active_runs",
			Help:      "Number of currently running agent tasks",
		},
		[]string{"agent_id"},
	)

	m.registry.MustRegister(m.agentCalls, m.agentCallDuration, m.agentErrors, m.agentActiveRuns)
}

func (m *Metrics) initCollaboratorMetrics() {
	m.collaboratorCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "collaborator",
			Name:      "calls_total",
			Help:      "Total number of collaborator (LLM/repository) calls",
		},
		[]string{"model", "provider"},
	)

	m.collaboratorCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "collaborator",
			Name:      "call_duration_seconds",
			Help:      "Collaborator call duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to 204s
		},
		[]string{"model", "provider"},
	)

	m.collaboratorTokensInput = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "collaborator",
			Name:      "tokens_input_total",
			Help:      "Total number of input tokens consumed",
		},
		[]string{"model", "provider"},
	)

	m.collaboratorTokensOutput = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "collaborator",
			Name:      "tokens_output_total",
			Help:      "Total number of output tokens generated",
		},
		[]string{"model", "provider"},
	)

	m.collaboratorErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "collaborator",
			Name:      "errors_total",
			Help:      "Total number of collaborator call errors",
		},
		[]string{"model", "provider", "error_type"},
	)

	m.registry.MustRegister(m.collaboratorCalls, m.collaboratorCallDuration,
		m.collaboratorTokensInput, m.collaboratorTokensOutput, m.collaboratorErrors)
}

func (m *Metrics) initChunkingMetrics() {
	m.chunkingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "chunking",
			Name:      "runs_total",
			Help:      "Total number of file chunking runs",
		},
		[]string{"language"},
	)

	m.chunkingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "chunking",
			Name:      "duration_seconds",
			Help:      "File chunking duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to 16s
		},
		[]string{"language"},
	)

	m.chunkingErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "chunking",
			Name:      "errors_total",
			Help:      "Total number of chunking errors",
		},
		[]string{"language", "error_type"},
	)

	m.registry.MustRegister(m.chunkingRuns, m.chunkingDuration, m.chunkingErrors)
}

func (m *Metrics) initRetrievalMetrics() {
	m.retrievalSearches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "retrieval",
			Name:      "searches_total",
			Help:      "Total number of retrieval lookups",
		},
		[]string{"retriever"},
	)

	m.retrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "retrieval",
			Name:      "search_duration_seconds",
			Help:      "Retrieval lookup duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to 2s
		},
		[]string{"retriever"},
	)

	m.retrievalResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "retrieval",
			Name:      "search_results_count",
			Help:      "Number of results returned by a retrieval lookup",
			Buckets:   prometheus.LinearBuckets(0, 5, 11), // 0, 5, 10, ... 50
		},
		[]string{"retriever"},
	)

	m.registry.MustRegister(m.retrievalSearches, m.retrievalDuration, m.retrievalResults)
}

func (m *Metrics) initWorkflowMetrics() {
	m.workflowsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "workflow",
			Name:      "started_total",
			Help:      "Total number of workflows started",
		},
		[]string{"workflow_type"},
	)

	m.workflowsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.config.Namespace,
			Subsystem: "workflow",
			Name:      "active",
			Help:      "Number of currently active workflows",
		},
		[]string{"workflow_type"},
	)

	m.phaseTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "workflow",
			Name:      "phase_transitions_total",
			Help:      "Total number of workflow phase transitions",
		},
		[]string{"workflow_type", "phase"},
	)

	m.registry.MustRegister(m.workflowsStarted, m.workflowsActive, m.phaseTransitions)
}

func (m *Metrics) initHTTPMetrics() {
	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.httpRequestSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "http",
			Name:      "request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 7), // 100B to 100MB
		},
		[]string{"method", "path"},
	)

	m.httpResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 7), // 100B to 100MB
		},
		[]string{"method", "path"},
	)

	m.registry.MustRegister(m.httpRequests, m.httpDuration, m.httpRequestSize, m.httpResponseSize)
}

func (m *Metrics) initCheckpointMetrics() {
	m.checkpointsSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "checkpoint",
			Name:      "saved_total",
			Help:      "Total number of workflow checkpoints saved",
		},
		[]string{"backend"},
	)

	m.checkpointsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "checkpoint",
			Name:      "skipped_total",
			Help:      "Total number of checkpoint saves skipped (state unchanged)",
		},
		[]string{"backend"},
	)

	m.checkpointsErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "checkpoint",
			Name:      "errors_total",
			Help:      "Total number of checkpoint save/load errors",
		},
		[]string{"backend"},
	)

	m.checkpointSaveDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "checkpoint",
			Name:      "save_duration_seconds",
			Help:      "Checkpoint save duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to 2s
		},
		[]string{"backend"},
	)

	m.checkpointsLoaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "checkpoint",
			Name:      "loaded_total",
			Help:      "Total number of workflow checkpoints restored",
		},
		[]string{"backend"},
	)

	m.checkpointLoadDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "checkpoint",
			Name:      "load_duration_seconds",
			Help:      "Checkpoint load duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to 2s
		},
		[]string{"backend"},
	)

	m.checkpointLoadBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "checkpoint",
			Name:      "load_size_bytes",
			Help:      "Size of restored checkpoint payloads in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 7),
		},
		[]string{"backend"},
	)

	m.registry.MustRegister(m.checkpointsSaved, m.checkpointsSkipped, m.checkpointsErrors,
		m.checkpointSaveDur, m.checkpointsLoaded, m.checkpointLoadDur, m.checkpointLoadBytes)
}

func (m *Metrics) initAuditMetrics() {
	m.auditWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "audit",
			Name:      "writes_total",
			Help:      "Total number of audit log entries written",
		},
		[]string{"sink"},
	)

	m.auditErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "audit",
			Name:      "errors_total",
			Help:      "Total number of audit write errors",
		},
		[]string{"sink"},
	)

	m.auditWriteDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "audit",
			Name:      "write_duration_seconds",
			Help:      "Audit write duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"sink"},
	)

	m.registry.MustRegister(m.auditWrites, m.auditErrors, m.auditWriteDur)
}

// =============================================================================
// Agent Metrics
// =============================================================================

// RecordAgentCall records an agent task execution.
func (m *Metrics) RecordAgentCall(agentID, role string, duration time.Duration) {
	if m == nil {
		return
	}
	m.agentCalls.WithLabelValues(agentID, role).Inc()
	m.agentCallDuration.WithLabelValues(agentID, role).Observe(duration.Seconds())
}

// RecordAgentError records an agent task error.
func (m *Metrics) RecordAgentError(agentID, role, errorType string) {
	if m == nil {
		return
	}
	m.agentErrors.WithLabelValues(agentID, role, errorType).Inc()
}

// IncAgentActiveRuns increments the active runs gauge.
func (m *Metrics) IncAgentActiveRuns(agentID string) {
	if m == nil {
		return
	}
	m.agentActiveRuns.WithLabelValues(agentID).Inc()
}

// DecAgentActiveRuns decrements the active runs gauge.
func (m *Metrics) DecAgentActiveRuns(agentID string) {
	if m == nil {
		return
	}
	m.agentActiveRuns.WithLabelValues(agentID).Dec()
}

// =============================================================================
// Collaborator Metrics
// =============================================================================

// RecordCollaboratorCall records a call to an external collaborator (LLM, repo fetcher).
func (m *Metrics) RecordCollaboratorCall(model, provider string, duration time.Duration) {
	if m == nil {
		return
	}
	m.collaboratorCalls.WithLabelValues(model, provider).Inc()
	m.collaboratorCallDuration.WithLabelValues(model, provider).Observe(duration.Seconds())
}

// RecordCollaboratorTokens records token usage for a collaborator call.
func (m *Metrics) RecordCollaboratorTokens(model, provider string, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.collaboratorTokensInput.WithLabelValues(model, provider).Add(float64(inputTokens))
	m.collaboratorTokensOutput.WithLabelValues(model, provider).Add(float64(outputTokens))
}

// RecordCollaboratorError records a collaborator call error.
func (m *Metrics) RecordCollaboratorError(model, provider, errorType string) {
	if m == nil {
		return
	}
	m.collaboratorErrors.WithLabelValues(model, provider, errorType).Inc()
}

// =============================================================================
// Chunking Metrics
// =============================================================================

// RecordChunkingRun records a file chunking pass.
func (m *Metrics) RecordChunkingRun(language string, duration time.Duration) {
	if m == nil {
		return
	}
	m.chunkingRuns.WithLabelValues(language).Inc()
	m.chunkingDuration.WithLabelValues(language).Observe(duration.Seconds())
}

// RecordChunkingError records a chunking error.
func (m *Metrics) RecordChunkingError(language, errorType string) {
	if m == nil {
		return
	}
	m.chunkingErrors.WithLabelValues(language, errorType).Inc()
}

// =============================================================================
// Retrieval Metrics
// =============================================================================

// RecordRetrieval records a retrieval lookup.
func (m *Metrics) RecordRetrieval(retriever string, duration time.Duration, resultCount int) {
	if m == nil {
		return
	}
	m.retrievalSearches.WithLabelValues(retriever).Inc()
	m.retrievalDuration.WithLabelValues(retriever).Observe(duration.Seconds())
	m.retrievalResults.WithLabelValues(retriever).Observe(float64(resultCount))
}

// =============================================================================
// Workflow Metrics
// =============================================================================

// RecordWorkflowStarted records a workflow run starting.
func (m *Metrics) RecordWorkflowStarted(workflowType string) {
	if m == nil {
		return
	}
	m.workflowsStarted.WithLabelValues(workflowType).Inc()
}

// SetWorkflowsActive sets the number of currently active workflows.
func (m *Metrics) SetWorkflowsActive(workflowType string, count int) {
	if m == nil {
		return
	}
	m.workflowsActive.WithLabelValues(workflowType).Set(float64(count))
}

// RecordPhaseTransition records a workflow moving into a new phase.
func (m *Metrics) RecordPhaseTransition(workflowType, phase string) {
	if m == nil {
		return
	}
	m.phaseTransitions.WithLabelValues(workflowType, phase).Inc()
}

// =============================================================================
// HTTP Metrics
// =============================================================================

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration, reqSize, respSize int64) {
	if m == nil {
		return
	}
	status := statusCodeLabel(statusCode)
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	if reqSize > 0 {
		m.httpRequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	}
	if respSize > 0 {
		m.httpResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
	}
}

// statusCodeLabel converts a status code to a label string.
func statusCodeLabel(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// =============================================================================
// Checkpoint Metrics
// =============================================================================

// RecordCheckpointSaved records a checkpoint write.
func (m *Metrics) RecordCheckpointSaved(backend string, duration time.Duration) {
	if m == nil {
		return
	}
	m.checkpointsSaved.WithLabelValues(backend).Inc()
	m.checkpointSaveDur.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordCheckpointSkipped records a save skipped because state was unchanged.
func (m *Metrics) RecordCheckpointSkipped(backend string) {
	if m == nil {
		return
	}
	m.checkpointsSkipped.WithLabelValues(backend).Inc()
}

// RecordCheckpointError records a checkpoint save or load error.
func (m *Metrics) RecordCheckpointError(backend string) {
	if m == nil {
		return
	}
	m.checkpointsErrors.WithLabelValues(backend).Inc()
}

// RecordCheckpointLoaded records a checkpoint restore.
func (m *Metrics) RecordCheckpointLoaded(backend string, duration time.Duration, sizeBytes int) {
	if m == nil {
		return
	}
	m.checkpointsLoaded.WithLabelValues(backend).Inc()
	m.checkpointLoadDur.WithLabelValues(backend).Observe(duration.Seconds())
	m.checkpointLoadBytes.WithLabelValues(backend).Observe(float64(sizeBytes))
}

// =============================================================================
// Audit Metrics
// =============================================================================

// RecordAuditWrite records an audit log entry being written.
func (m *Metrics) RecordAuditWrite(sink string, duration time.Duration) {
	if m == nil {
		return
	}
	m.auditWrites.WithLabelValues(sink).Inc()
	m.auditWriteDur.WithLabelValues(sink).Observe(duration.Seconds())
}

// RecordAuditError records an audit write failure.
func (m *Metrics) RecordAuditError(sink string) {
	if m == nil {
		return
	}
	m.auditErrors.WithLabelValues(sink).Inc()
}

// =============================================================================
// HTTP Handler
// =============================================================================

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
