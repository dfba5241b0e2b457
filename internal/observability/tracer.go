// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerConfig controls whether spans are recorded.
type TracerConfig struct {
	Enabled     bool
	ServiceName string
}

// Tracer wraps an OpenTelemetry TracerProvider with span helpers scoped to
// the agent's own domain: provider dispatches, tool executions,
// orchestrator runs/steps, and autonomous loop iterations.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewTracer builds a Tracer from cfg. A disabled or nil cfg yields a
// Tracer backed by the global no-op provider, so every Start* call and
// attribute helper remains safe to use unconditionally.
func NewTracer(cfg *TracerConfig) (*Tracer, error) {
	if cfg == nil || !cfg.Enabled {
		return &Tracer{tracer: otel.Tracer("vibe")}, nil
	}

	name := cfg.ServiceName
	if name == "" {
		name = "vibe-agent"
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", name),
	))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(&slogExporter{})),
	)

	return &Tracer{provider: tp, tracer: tp.Tracer(name)}, nil
}

// Shutdown flushes and releases the underlying TracerProvider, if any.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// StartRouterDispatch starts a span around one provider dispatch attempt.
func (t *Tracer) StartRouterDispatch(ctx context.Context, providerID, model string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "router.dispatch", trace.WithAttributes(
		attribute.String("provider.id", providerID),
		attribute.String("provider.model", model),
	))
}

// StartHTTPRequest starts a span around one inbound HTTP request.
func (t *Tracer) StartHTTPRequest(ctx context.Context, method, path string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "http.request", trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	))
}

// StartToolExecution starts a span around one tool invocation.
func (t *Tracer) StartToolExecution(ctx context.Context, toolName string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "tool.execute", trace.WithAttributes(
		attribute.String("tool.name", toolName),
	))
}

// StartOrchestratorRun starts a span covering an entire plan run.
func (t *Tracer) StartOrchestratorRun(ctx context.Context, runID, userID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "orchestrator.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("run.user_id", userID),
	))
}

// StartOrchestratorStep starts a span covering one plan step.
func (t *Tracer) StartOrchestratorStep(ctx context.Context, runID string, stepNumber int, primitiveName string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "orchestrator.step", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("step.number", stepNumber),
		attribute.String("step.primitive", primitiveName),
	))
}

// StartLoopIteration starts a span covering one autonomous loop iteration.
func (t *Tracer) StartLoopIteration(ctx context.Context, iteration int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "autonomous.iteration", trace.WithAttributes(
		attribute.Int("iteration.number", iteration),
	))
}

// RecordError marks span as failed and attaches err.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddCost annotates span with the estimated dollar cost of the operation
// it covers.
func AddCost(span trace.Span, costUSD float64) {
	span.SetAttributes(attribute.Float64("cost.usd", costUSD))
}

// AddTokens annotates span with prompt/completion token counts.
func AddTokens(span trace.Span, promptTokens, completionTokens int) {
	span.SetAttributes(
		attribute.Int("tokens.prompt", promptTokens),
		attribute.Int("tokens.completion", completionTokens),
	)
}

// slogExporter is a minimal sdktrace.SpanExporter that logs completed
// spans through the standard structured logger, used in place of a full
// OTLP exporter so tracing has an observable sink without pulling in a
// collector dependency.
type slogExporter struct{}

func (e *slogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		slog.Info("span",
			"name", s.Name(),
			"trace_id", s.SpanContext().TraceID().String(),
			"span_id", s.SpanContext().SpanID().String(),
			"duration_ms", s.EndTime().Sub(s.StartTime()).Milliseconds(),
			"status", s.Status().Code.String(),
		)
	}
	return nil
}

func (e *slogExporter) Shutdown(ctx context.Context) error { return nil }
