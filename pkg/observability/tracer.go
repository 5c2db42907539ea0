package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

var noopTracerProvider = tracenoop.NewTracerProvider()

// noopSpan returns a span that discards everything recorded on it, used
// whenever a Tracer (or NoopTracer) is asked for a span but has nothing
// to export to.
func noopSpan() trace.Span {
	_, span := noopTracerProvider.Tracer("noop").Start(context.Background(), "noop")
	return span
}

// Tracer wraps an OpenTelemetry tracer with the span helpers the rest of
// the runtime (agent execution, collaborator calls, chunking, retrieval,
// HTTP handlers) calls into. Built from a TracingConfig via NewTracer.
type Tracer struct {
	provider        *sdktrace.TracerProvider
	tracer          trace.Tracer
	debugExporter   *DebugExporter
	capturePayloads bool
}

// TracerOption configures a Tracer at construction time.
type TracerOption func(*Tracer)

// WithDebugExporter attaches an in-memory span exporter for UI inspection.
func WithDebugExporter(exp *DebugExporter) TracerOption {
	return func(t *Tracer) { t.debugExporter = exp }
}

// WithCapturePayloads enables AddPayload/AddChunkingPayload to actually
// record the payload content on spans rather than being a no-op.
func WithCapturePayloads(enabled bool) TracerOption {
	return func(t *Tracer) { t.capturePayloads = enabled }
}

// NewTracer builds a Tracer from a TracingConfig, wiring an OTLP exporter
// (plus an optional debug exporter) into a fresh TracerProvider.
func NewTracer(ctx context.Context, cfg *TracingConfig, opts ...TracerOption) (*Tracer, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: build resource: %w", err)
	}

	t := &Tracer{}
	for _, opt := range opts {
		opt(t)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SamplingRate)),
		sdktrace.WithResource(res),
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: create OTLP exporter: %w", err)
	}
	tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))

	if t.debugExporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(t.debugExporter))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)

	t.provider = tp
	t.tracer = tp.Tracer(cfg.ServiceName)
	return t, nil
}

// Start opens a generic span.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if t == nil || t.tracer == nil {
		return ctx, noopSpan()
	}
	return t.tracer.Start(ctx, name, opts...)
}

// StartAgentRun opens a span covering one agent task execution.
func (t *Tracer) StartAgentRun(ctx context.Context, agentID, role, taskID, taskType string) (context.Context, trace.Span) {
	return t.Start(ctx, SpanAgentRun, trace.WithAttributes(
		attribute.String(AttrAgentID, agentID),
		attribute.String(AttrAgentRole, role),
		attribute.String(AttrTaskID, taskID),
		attribute.String(AttrTaskType, taskType),
	))
}

// StartCollaboratorCall opens a span covering a call to an external
// collaborator (language model, repository fetcher, retriever).
func (t *Tracer) StartCollaboratorCall(ctx context.Context, model string, inputTokens int, kind, provider string) (context.Context, trace.Span) {
	return t.Start(ctx, SpanCollaboratorCall, trace.WithAttributes(
		attribute.String(AttrCollaboratorKind, kind),
		attribute.String(AttrCollaboratorProvider, provider),
		attribute.Int(AttrTokensInput, inputTokens),
		attribute.String("collaborator.model", model),
	))
}

// StartChunking opens a span covering a file chunking run.
func (t *Tracer) StartChunking(ctx context.Context, file, language, workflowID string) (context.Context, trace.Span) {
	return t.Start(ctx, SpanWorkflowPhase, trace.WithAttributes(
		attribute.String(AttrWorkflowID, workflowID),
		attribute.String("chunking.file", file),
		attribute.String("chunking.language", language),
	))
}

// StartRetrieval opens a span covering a retrieval lookup.
func (t *Tracer) StartRetrieval(ctx context.Context, retriever string, topK int) (context.Context, trace.Span) {
	return t.Start(ctx, SpanCollaboratorCall, trace.WithAttributes(
		attribute.String(AttrCollaboratorKind, "retriever"),
		attribute.String(AttrCollaboratorProvider, retriever),
	))
}

// AddCollaboratorUsage records token usage on an open span.
func (t *Tracer) AddCollaboratorUsage(span trace.Span, inputTokens, outputTokens int) {
	if span == nil {
		return
	}
	span.SetAttributes(
		attribute.Int(AttrTokensInput, inputTokens),
		attribute.Int(AttrTokensOutput, outputTokens),
	)
}

// AddFinishReason records why a collaborator call stopped producing output.
func (t *Tracer) AddFinishReason(span trace.Span, reason string) {
	if span == nil {
		return
	}
	span.SetAttributes(attribute.String("collaborator.finish_reason", reason))
}

// AddPayload records a request/response payload on a span when payload
// capture is enabled; otherwise it is a no-op to avoid bloating spans.
func (t *Tracer) AddPayload(span trace.Span, kind, payload string) {
	if t == nil || !t.capturePayloads || span == nil {
		return
	}
	span.AddEvent(kind, trace.WithAttributes(attribute.String("payload", payload)))
}

// AddChunkingPayload records a chunk's content on a span, subject to the
// same capture gate as AddPayload.
func (t *Tracer) AddChunkingPayload(span trace.Span, chunkID, content string) {
	t.AddPayload(span, "chunk:"+chunkID, content)
}

// RecordError marks a span as failed and attaches the error.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(attribute.String(AttrErrorType, err.Error()))
}

// DebugExporter returns the in-memory span exporter, or nil if none was configured.
func (t *Tracer) DebugExporter() *DebugExporter {
	if t == nil {
		return nil
	}
	return t.debugExporter
}

// Shutdown flushes and releases the underlying TracerProvider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
