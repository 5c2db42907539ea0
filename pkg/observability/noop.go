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
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// =============================================================================
// No-op Manager
// =============================================================================

// NoopManager returns a no-operation Manager that does nothing.
// Use this when observability is completely disabled.
func NoopManager() *Manager {
	return &Manager{}
}

// =============================================================================
// No-op Tracer
// =============================================================================

// NoopTracer returns a no-operation Tracer.
type NoopTracer struct{}

// Start returns a no-op span.
func (NoopTracer) Start(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
	return ctx, noopSpan()
}

// StartAgentRun returns a no-op span.
func (NoopTracer) StartAgentRun(ctx context.Context, _, _, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan()
}

// StartCollaboratorCall returns a no-op span.
func (NoopTracer) StartCollaboratorCall(ctx context.Context, _ string, _ int, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan()
}

// StartChunking returns a no-op span.
func (NoopTracer) StartChunking(ctx context.Context, _, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan()
}

// StartRetrieval returns a no-op span.
func (NoopTracer) StartRetrieval(ctx context.Context, _ string, _ int) (context.Context, trace.Span) {
	return ctx, noopSpan()
}

// AddCollaboratorUsage is a no-op.
func (NoopTracer) AddCollaboratorUsage(_ trace.Span, _, _ int) {}

// AddFinishReason is a no-op.
func (NoopTracer) AddFinishReason(_ trace.Span, _ string) {}

// AddPayload is a no-op.
func (NoopTracer) AddPayload(_ trace.Span, _, _ string) {}

// AddChunkingPayload is a no-op.
func (NoopTracer) AddChunkingPayload(_ trace.Span, _, _ string) {}

// RecordError is a no-op.
func (NoopTracer) RecordError(_ trace.Span, _ error) {}

// DebugExporter returns nil.
func (NoopTracer) DebugExporter() *DebugExporter { return nil }

// Shutdown is a no-op.
func (NoopTracer) Shutdown(_ context.Context) error { return nil }

// =============================================================================
// No-op Metrics
// =============================================================================

// NoopMetrics is a metrics implementation that does nothing.
type NoopMetrics struct{}

// Agent metrics - no-op
func (NoopMetrics) RecordAgentCall(_, _ string, _ time.Duration) {}
func (NoopMetrics) RecordAgentError(_, _, _ string)              {}
func (NoopMetrics) IncAgentActiveRuns(_ string)                  {}
func (NoopMetrics) DecAgentActiveRuns(_ string)                  {}

// Collaborator metrics - no-op
func (NoopMetrics) RecordCollaboratorCall(_, _ string, _ time.Duration) {}
func (NoopMetrics) RecordCollaboratorTokens(_, _ string, _, _ int)      {}
func (NoopMetrics) RecordCollaboratorError(_, _, _ string)              {}

// Chunking metrics - no-op
func (NoopMetrics) RecordChunkingRun(_ string, _ time.Duration) {}
func (NoopMetrics) RecordChunkingError(_, _ string)             {}

// Retrieval metrics - no-op
func (NoopMetrics) RecordRetrieval(_ string, _ time.Duration, _ int) {}

// Workflow metrics - no-op
func (NoopMetrics) RecordWorkflowStarted(_ string)     {}
func (NoopMetrics) SetWorkflowsActive(_ string, _ int) {}
func (NoopMetrics) RecordPhaseTransition(_, _ string)  {}

// HTTP metrics - no-op
func (NoopMetrics) RecordHTTPRequest(_, _ string, _ int, _ time.Duration, _, _ int64) {}

// Checkpoint metrics - no-op
func (NoopMetrics) RecordCheckpointSaved(_ string, _ time.Duration)         {}
func (NoopMetrics) RecordCheckpointSkipped(_ string)                       {}
func (NoopMetrics) RecordCheckpointError(_ string)                         {}
func (NoopMetrics) RecordCheckpointLoaded(_ string, _ time.Duration, _ int) {}

// Audit metrics - no-op
func (NoopMetrics) RecordAuditWrite(_ string, _ time.Duration) {}
func (NoopMetrics) RecordAuditError(_ string)                  {}

// Handler returns a handler that returns 503 Service Unavailable.
func (NoopMetrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("metrics not enabled"))
	})
}

// =============================================================================
// Recorder Interface
// =============================================================================

// Recorder defines the interface for recording metrics.
// This allows for dependency injection and easier testing.
type Recorder interface {
	// Agent metrics
	RecordAgentCall(agentID, role string, duration time.Duration)
	RecordAgentError(agentID, role, errorType string)
	IncAgentActiveRuns(agentID string)
	DecAgentActiveRuns(agentID string)

	// Collaborator metrics
	RecordCollaboratorCall(model, provider string, duration time.Duration)
	RecordCollaboratorTokens(model, provider string, inputTokens, outputTokens int)
	RecordCollaboratorError(model, provider, errorType string)

	// Chunking metrics
	RecordChunkingRun(language string, duration time.Duration)
	RecordChunkingError(language, errorType string)

	// Retrieval metrics
	RecordRetrieval(retriever string, duration time.Duration, resultCount int)

	// Workflow metrics
	RecordWorkflowStarted(workflowType string)
	SetWorkflowsActive(workflowType string, count int)
	RecordPhaseTransition(workflowType, phase string)

	// HTTP metrics
	RecordHTTPRequest(method, path string, statusCode int, duration time.Duration, reqSize, respSize int64)

	// Checkpoint metrics
	RecordCheckpointSaved(backend string, duration time.Duration)
	RecordCheckpointSkipped(backend string)
	RecordCheckpointError(backend string)
	RecordCheckpointLoaded(backend string, duration time.Duration, sizeBytes int)

	// Audit metrics
	RecordAuditWrite(sink string, duration time.Duration)
	RecordAuditError(sink string)
}

// Ensure implementations satisfy the interface.
var (
	_ Recorder = (*Metrics)(nil)
	_ Recorder = NoopMetrics{}
)
