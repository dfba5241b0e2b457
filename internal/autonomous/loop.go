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

// Package autonomous wraps the Planner+Executor+Reviewer envelope in an
// iteration loop for open-ended tasks, bounded by an iteration count, a
// wall-clock duration, a per-loop circuit breaker, and a response
// analyzer that detects completion or stuck progress.
package autonomous

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/vibeagent/vibe/internal/observability"
	"github.com/vibeagent/vibe/internal/primitive"
	"github.com/vibeagent/vibe/internal/provider"
	"github.com/vibeagent/vibe/internal/verr"
)

// Config carries the loop's tunables, all with the spec-mandated defaults.
type Config struct {
	MaxIterations           int
	MaxDuration             time.Duration
	RateLimitPerHour        int
	ConfidenceThreshold     float64
	StuckThreshold          int
	EnableCircuitBreaker    bool
	CircuitFailureThreshold int
	CircuitResetTimeout     time.Duration
	MaxRetries              int
	BackoffBase             time.Duration
	BackoffCap              time.Duration
}

// DefaultConfig returns the configuration spelled out by the loop's
// specification.
func DefaultConfig() Config {
	return Config{
		MaxIterations:           100,
		MaxDuration:             60 * time.Minute,
		RateLimitPerHour:        100,
		ConfidenceThreshold:     0.7,
		StuckThreshold:          3,
		EnableCircuitBreaker:    true,
		CircuitFailureThreshold: 5,
		CircuitResetTimeout:     30 * time.Second,
		MaxRetries:              3,
		BackoffBase:             time.Second,
		BackoffCap:              10 * time.Second,
	}
}

// StopReason names why a Run terminated.
type StopReason string

const (
	StopComplete StopReason = "complete"
	StopStuck    StopReason = "stuck"
	StopBudget   StopReason = "budget"
	StopCircuit  StopReason = "circuit"
)

// IterationRecord is one iteration's truncated summary, response, and
// analysis, retained so later iterations can reference recent history.
type IterationRecord struct {
	Number     int
	Prompt     string
	Response   string
	Analysis   Analysis
	DurationMS int64
}

// Result is the terminal outcome of a Run: why it stopped, every
// iteration it completed, and the cumulative cost.
type Result struct {
	Reason     StopReason
	Iterations []IterationRecord
	Stats      provider.Totals
}

const summaryTruncateLen = 500

// Loop iterates the Planner+Executor+Reviewer envelope via the Completion
// primitive until a stop condition fires.
type Loop struct {
	Config     Config
	Completion *primitive.Completion
	Analyzer   *ResponseAnalyzer
	Breaker    *provider.CircuitBreaker
	Metrics    *observability.Metrics
	Tracer     *observability.Tracer

	// rateGate bounds the loop to Config.RateLimitPerHour iterations in
	// any trailing hour: one token is acquired per iteration and returned
	// on a one-hour timer, so Run blocks once the budget for the window
	// is exhausted instead of ignoring RateLimitPerHour entirely.
	rateGate *semaphore.Weighted
}

// New builds a Loop over completion with cfg, constructing a fresh
// analyzer, rate gate, and (if enabled) circuit breaker from cfg's
// thresholds.
func New(cfg Config, completion *primitive.Completion) *Loop {
	l := &Loop{
		Config:     cfg,
		Completion: completion,
		Analyzer:   NewResponseAnalyzer(cfg.ConfidenceThreshold, cfg.StuckThreshold),
	}
	if cfg.EnableCircuitBreaker {
		l.Breaker = provider.NewCircuitBreaker(cfg.CircuitFailureThreshold, cfg.CircuitResetTimeout)
	}
	if cfg.RateLimitPerHour > 0 {
		l.rateGate = semaphore.NewWeighted(int64(cfg.RateLimitPerHour))
	}
	return l
}

// Run drives iterations of task until completion, stuckness, or budget
// exhaustion, composing each iteration's prompt from the task, truncated
// prior summaries, and optional project context.
func (l *Loop) Run(ctx context.Context, task, systemPrompt, projectContext string) (*Result, error) {
	start := time.Now()
	result := &Result{}
	var responses []string

	for i := 1; i <= l.Config.MaxIterations; i++ {
		if time.Since(start) > l.Config.MaxDuration {
			result.Reason = StopBudget
			break
		}
		if l.Breaker != nil && !l.Breaker.Allow() {
			result.Reason = StopCircuit
			break
		}
		if l.rateGate != nil {
			if err := l.rateGate.Acquire(ctx, 1); err != nil {
				return result, fmt.Errorf("autonomous: rate gate: %w", err)
			}
			time.AfterFunc(time.Hour, func() { l.rateGate.Release(1) })
		}

		iterCtx := ctx
		var span trace.Span
		if l.Tracer != nil {
			iterCtx, span = l.Tracer.StartLoopIteration(ctx, i)
		}

		prompt := l.composePrompt(task, projectContext, result.Iterations)

		iterStart := time.Now()
		response, err := l.invokeWithRetry(iterCtx, systemPrompt, prompt)
		if err != nil {
			if l.Breaker != nil {
				l.Breaker.RecordFailure()
			}
			if span != nil {
				observability.RecordError(span, err)
				span.End()
			}
			return result, fmt.Errorf("autonomous: iteration %d: %w", i, err)
		}
		if l.Breaker != nil {
			l.Breaker.RecordSuccess()
		}
		if span != nil {
			span.End()
		}
		l.Metrics.RecordLoopIteration()

		analysis := l.Analyzer.Analyze(response, responses)
		responses = append(responses, response)
		result.Iterations = append(result.Iterations, IterationRecord{
			Number:     i,
			Prompt:     prompt,
			Response:   response,
			Analysis:   analysis,
			DurationMS: time.Since(iterStart).Milliseconds(),
		})

		if analysis.IsComplete && analysis.Confidence >= l.Config.ConfidenceThreshold {
			result.Reason = StopComplete
			break
		}
		if analysis.StuckHitCount >= l.Config.StuckThreshold {
			result.Reason = StopStuck
			break
		}

		if i == l.Config.MaxIterations {
			result.Reason = StopBudget
		}
	}

	l.Metrics.RecordLoopStop(string(result.Reason))

	if l.Completion.Router != nil {
		result.Stats = l.Completion.Router.Usage()
	}
	return result, nil
}

// invokeWithRetry calls Completion, retrying retryable errors with
// exponential backoff (capped) up to MaxRetries attempts. Non-retryable
// error classes (authentication, quota, validation, permission, not_found,
// replay_mismatch) short circuit immediately.
func (l *Loop) invokeWithRetry(ctx context.Context, systemPrompt, prompt string) (string, error) {
	var lastErr error
	backoff := l.Config.BackoffBase

	for attempt := 0; attempt <= l.Config.MaxRetries; attempt++ {
		result, err := l.Completion.Chat(ctx, primitive.CompletionInput{SystemPrompt: systemPrompt, Prompt: prompt})
		if err == nil {
			return result.Content, nil
		}

		lastErr = err
		if !verr.IsRetryable(lastErr) || attempt == l.Config.MaxRetries {
			return "", lastErr
		}

		slog.Warn("autonomous: iteration call failed, retrying", "attempt", attempt+1, "error", lastErr, "backoff", backoff)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > l.Config.BackoffCap {
			backoff = l.Config.BackoffCap
		}
	}
	return "", lastErr
}

// composePrompt builds the iteration prompt per the loop's specification:
// task description, truncated recent iteration summaries, and optional
// project context.
func (l *Loop) composePrompt(task, projectContext string, prior []IterationRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n", task)

	if len(prior) > 0 {
		b.WriteString("\nRecent iterations:\n")
		start := 0
		if len(prior) > 5 {
			start = len(prior) - 5
		}
		for _, rec := range prior[start:] {
			fmt.Fprintf(&b, "- iteration %d: %s\n", rec.Number, truncate(rec.Response, summaryTruncateLen))
		}
	}

	if projectContext != "" {
		fmt.Fprintf(&b, "\nProject context:\n%s\n", truncate(projectContext, 2000))
	}

	b.WriteString("\nIf the task is complete, say so explicitly using the sentinel TASK_COMPLETE.\n")
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
