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

// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for the agent's Provider Router, Tool Registry, Orchestrator,
// and Autonomous Loop.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig controls whether metrics are collected and under what
// namespace they are registered.
type MetricsConfig struct {
	Enabled   bool
	Namespace string
}

// SetDefaults fills in an empty namespace.
func (c *MetricsConfig) SetDefaults() {
	if c.Namespace == "" {
		c.Namespace = "vibe"
	}
}

// Metrics collects Prometheus metrics for the agent's execution surfaces.
type Metrics struct {
	config   *MetricsConfig
	registry *prometheus.Registry

	// Provider Router metrics
	routerDispatches *prometheus.CounterVec
	routerDuration   *prometheus.HistogramVec
	routerTokensIn   *prometheus.CounterVec
	routerTokensOut  *prometheus.CounterVec
	routerCostUSD    *prometheus.CounterVec
	routerErrors     *prometheus.CounterVec
	routerFallbacks  *prometheus.CounterVec

	// Tool Registry metrics
	toolCalls        *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec
	toolErrors       *prometheus.CounterVec
	toolApprovals    *prometheus.CounterVec

	// Orchestrator metrics
	runsTotal      *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	stepsTotal     *prometheus.CounterVec
	stepDuration   *prometheus.HistogramVec
	activeRuns     prometheus.Gauge

	// Autonomous Loop metrics
	loopIterations prometheus.Counter
	loopStops      *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance from cfg. A nil or disabled cfg
// yields a nil *Metrics whose methods are all safe no-ops.
func NewMetrics(cfg *MetricsConfig) *Metrics {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	cfg.SetDefaults()

	m := &Metrics{config: cfg, registry: prometheus.NewRegistry()}
	m.initRouterMetrics()
	m.initToolMetrics()
	m.initOrchestratorMetrics()
	m.initLoopMetrics()
	return m
}

func (m *Metrics) initRouterMetrics() {
	m.routerDispatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.config.Namespace, Subsystem: "router", Name: "dispatches_total",
		Help: "Total number of completion requests dispatched to a provider",
	}, []string{"provider", "model"})

	m.routerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.config.Namespace, Subsystem: "router", Name: "dispatch_duration_seconds",
		Help: "Provider dispatch duration in seconds", Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"provider", "model"})

	m.routerTokensIn = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.config.Namespace, Subsystem: "router", Name: "tokens_prompt_total",
		Help: "Total prompt tokens consumed",
	}, []string{"provider", "model"})

	m.routerTokensOut = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.config.Namespace, Subsystem: "router", Name: "tokens_completion_total",
		Help: "Total completion tokens generated",
	}, []string{"provider", "model"})

	m.routerCostUSD = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.config.Namespace, Subsystem: "router", Name: "cost_usd_total",
		Help: "Total estimated cost in USD",
	}, []string{"provider", "model"})

	m.routerErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.config.Namespace, Subsystem: "router", Name: "errors_total",
		Help: "Total provider dispatch errors",
	}, []string{"provider", "error_class"})

	m.routerFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.config.Namespace, Subsystem: "router", Name: "fallbacks_total",
		Help: "Total number of times the router fell back past the first candidate",
	}, []string{"from_provider", "to_provider"})

	m.registry.MustRegister(m.routerDispatches, m.routerDuration, m.routerTokensIn,
		m.routerTokensOut, m.routerCostUSD, m.routerErrors, m.routerFallbacks)
}

func (m *Metrics) initToolMetrics() {
	m.toolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.config.Namespace, Subsystem: "tool", Name: "calls_total",
		Help: "Total number of tool invocations",
	}, []string{"tool_name"})

	m.toolCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.config.Namespace, Subsystem: "tool", Name: "call_duration_seconds",
		Help: "Tool execution duration in seconds", Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
	}, []string{"tool_name"})

	m.toolErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.config.Namespace, Subsystem: "tool", Name: "errors_total",
		Help: "Total number of tool errors",
	}, []string{"tool_name", "error_class"})

	m.toolApprovals = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.config.Namespace, Subsystem: "tool", Name: "approvals_total",
		Help: "Total approval decisions by mode and outcome",
	}, []string{"mode", "approved"})

	m.registry.MustRegister(m.toolCalls, m.toolCallDuration, m.toolErrors, m.toolApprovals)
}

func (m *Metrics) initOrchestratorMetrics() {
	m.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.config.Namespace, Subsystem: "orchestrator", Name: "runs_total",
		Help: "Total number of runs by terminal status",
	}, []string{"status"})

	m.runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.config.Namespace, Subsystem: "orchestrator", Name: "run_duration_seconds",
		Help: "Run duration in seconds", Buckets: prometheus.ExponentialBuckets(0.1, 2, 16),
	}, []string{"status"})

	m.stepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.config.Namespace, Subsystem: "orchestrator", Name: "steps_total",
		Help: "Total number of plan steps executed by primitive and outcome",
	}, []string{"primitive", "status"})

	m.stepDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.config.Namespace, Subsystem: "orchestrator", Name: "step_duration_seconds",
		Help: "Plan step duration in seconds", Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
	}, []string{"primitive"})

	m.activeRuns = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.config.Namespace, Subsystem: "orchestrator", Name: "active_runs",
		Help: "Number of runs currently executing",
	})

	m.registry.MustRegister(m.runsTotal, m.runDuration, m.stepsTotal, m.stepDuration, m.activeRuns)
}

func (m *Metrics) initLoopMetrics() {
	m.loopIterations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.config.Namespace, Subsystem: "loop", Name: "iterations_total",
		Help: "Total autonomous loop iterations",
	})

	m.loopStops = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.config.Namespace, Subsystem: "loop", Name: "stops_total",
		Help: "Total autonomous loop terminations by stop reason",
	}, []string{"reason"})

	m.registry.MustRegister(m.loopIterations, m.loopStops)
}

// RecordRouterDispatch records a completed provider dispatch.
func (m *Metrics) RecordRouterDispatch(provider, model string, duration time.Duration, promptTokens, completionTokens int, costUSD float64) {
	if m == nil {
		return
	}
	m.routerDispatches.WithLabelValues(provider, model).Inc()
	m.routerDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	m.routerTokensIn.WithLabelValues(provider, model).Add(float64(promptTokens))
	m.routerTokensOut.WithLabelValues(provider, model).Add(float64(completionTokens))
	m.routerCostUSD.WithLabelValues(provider, model).Add(costUSD)
}

// RecordRouterError records a failed provider dispatch attempt.
func (m *Metrics) RecordRouterError(provider, errorClass string) {
	if m == nil {
		return
	}
	m.routerErrors.WithLabelValues(provider, errorClass).Inc()
}

// RecordRouterFallback records the router moving from one candidate
// provider to the next after a skip or failure.
func (m *Metrics) RecordRouterFallback(fromProvider, toProvider string) {
	if m == nil {
		return
	}
	m.routerFallbacks.WithLabelValues(fromProvider, toProvider).Inc()
}

// RecordToolCall records a tool invocation.
func (m *Metrics) RecordToolCall(toolName string, duration time.Duration) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(toolName).Inc()
	m.toolCallDuration.WithLabelValues(toolName).Observe(duration.Seconds())
}

// RecordToolError records a tool execution error.
func (m *Metrics) RecordToolError(toolName, errorClass string) {
	if m == nil {
		return
	}
	m.toolErrors.WithLabelValues(toolName, errorClass).Inc()
}

// RecordApproval records an approval decision.
func (m *Metrics) RecordApproval(mode string, approved bool) {
	if m == nil {
		return
	}
	m.toolApprovals.WithLabelValues(mode, approvedLabel(approved)).Inc()
}

func approvedLabel(approved bool) string {
	if approved {
		return "true"
	}
	return "false"
}

// RecordRunStart marks a run entering the running state.
func (m *Metrics) RecordRunStart() {
	if m == nil {
		return
	}
	m.activeRuns.Inc()
}

// RecordRunFinish records a run's terminal status and total duration.
func (m *Metrics) RecordRunFinish(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.activeRuns.Dec()
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordStep records one plan step's outcome and duration.
func (m *Metrics) RecordStep(primitiveName, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.stepsTotal.WithLabelValues(primitiveName, status).Inc()
	m.stepDuration.WithLabelValues(primitiveName).Observe(duration.Seconds())
}

// RecordLoopIteration records one autonomous loop iteration.
func (m *Metrics) RecordLoopIteration() {
	if m == nil {
		return
	}
	m.loopIterations.Inc()
}

// RecordLoopStop records an autonomous loop termination by reason.
func (m *Metrics) RecordLoopStop(reason string) {
	if m == nil {
		return
	}
	m.loopStops.WithLabelValues(reason).Inc()
}

// Handler returns an HTTP handler serving the Prometheus exposition
// format. A nil Metrics serves 503 so wiring it unconditionally into a
// router is always safe.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry, or nil.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
