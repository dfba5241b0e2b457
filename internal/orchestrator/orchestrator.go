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

// Package orchestrator executes a Plan by routing each step to its named
// primitive in sequence, persisting the run and step lifecycle to the
// Session Store as it goes.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/vibeagent/vibe/internal/observability"
	"github.com/vibeagent/vibe/internal/primitive"
	"github.com/vibeagent/vibe/internal/session"
	"github.com/vibeagent/vibe/internal/vibemodel"
)

// Handler dispatches one plan step's arguments to a registered primitive
// and returns its uniform Output.
type Handler func(ctx context.Context, args map[string]any) primitive.Output

// Orchestrator threads run identity through a Plan's steps, executing them
// sequentially and writing every transition to the Session Store.
type Orchestrator struct {
	Store          *session.Store
	Reviewer       *primitive.Reviewer
	AbortOnFailure bool
	Metrics        *observability.Metrics
	Tracer         *observability.Tracer

	handlers map[string]Handler
}

// New builds an Orchestrator backed by store, with aborting-on-failure the
// default policy per the Orchestrator's run lifecycle.
func New(store *session.Store, reviewer *primitive.Reviewer) *Orchestrator {
	return &Orchestrator{
		Store:          store,
		Reviewer:       reviewer,
		AbortOnFailure: true,
		handlers:       make(map[string]Handler),
	}
}

// RegisterHandler binds a primitive name used in Plan.Steps to the Handler
// that executes it.
func (o *Orchestrator) RegisterHandler(primitiveName string, h Handler) {
	o.handlers[primitiveName] = h
}

// Run executes plan under a fresh Run record, returning the completed Run
// once every step has been dispatched or the run aborted on failure.
func (o *Orchestrator) Run(ctx context.Context, userID, workspacePath string, plan vibemodel.Plan) (*vibemodel.Run, error) {
	run := &vibemodel.Run{
		ID:            uuid.NewString(),
		UserID:        userID,
		WorkspacePath: workspacePath,
		Status:        vibemodel.RunPending,
		StartedAt:     time.Now(),
	}
	if err := o.Store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("orchestrator: create run: %w", err)
	}
	if err := o.Store.UpdateRunStatus(ctx, run.ID, vibemodel.RunRunning); err != nil {
		return nil, fmt.Errorf("orchestrator: mark run running: %w", err)
	}
	run.Status = vibemodel.RunRunning

	var span trace.Span
	if o.Tracer != nil {
		ctx, span = o.Tracer.StartOrchestratorRun(ctx, run.ID, userID)
		defer span.End()
	}
	o.Metrics.RecordRunStart()
	runStart := time.Now()

	for i, planStep := range plan.Steps {
		step, err := o.runStep(ctx, run.ID, i+1, planStep)
		run.Steps = append(run.Steps, step)
		if err != nil {
			slog.Error("orchestrator: step failed", "run_id", run.ID, "step", i+1, "primitive", planStep.Primitive, "error", err)
			if span != nil {
				observability.RecordError(span, err)
			}
			if o.AbortOnFailure {
				break
			}
			continue
		}
	}

	run.Status = vibemodel.DeriveRunStatus(run.Steps)
	o.Metrics.RecordRunFinish(string(run.Status), time.Since(runStart))
	if err := o.Store.UpdateRunStatus(ctx, run.ID, run.Status); err != nil {
		return run, fmt.Errorf("orchestrator: update run status: %w", err)
	}
	return run, nil
}

// runStep executes one plan step: pending → running → {success|failed},
// persisting each transition, and invokes the Reviewer on failure to
// capture diagnostics.
func (o *Orchestrator) runStep(ctx context.Context, runID string, number int, planStep vibemodel.PlanStep) (*vibemodel.Step, error) {
	inputJSON, _ := json.Marshal(planStep.Args)
	step := &vibemodel.Step{
		ID:         uuid.NewString(),
		RunID:      runID,
		StepNumber: number,
		Primitive:  planStep.Primitive,
		Task:       planStep.Description,
		Status:     vibemodel.StepPending,
		Input:      inputJSON,
		CreatedAt:  time.Now(),
	}
	if err := o.Store.CreateStep(ctx, step); err != nil {
		return step, fmt.Errorf("create step: %w", err)
	}

	var span trace.Span
	if o.Tracer != nil {
		ctx, span = o.Tracer.StartOrchestratorStep(ctx, runID, number, planStep.Primitive)
		defer span.End()
	}

	handler, ok := o.handlers[planStep.Primitive]
	if !ok {
		step.Status = vibemodel.StepFailed
		step.Error = fmt.Sprintf("no handler registered for primitive %q", planStep.Primitive)
		_ = o.Store.UpdateStepResult(ctx, step.ID, nil, step.Status, step.Error, 0)
		o.Metrics.RecordStep(planStep.Primitive, string(step.Status), 0)
		if span != nil {
			observability.RecordError(span, fmt.Errorf("%s", step.Error))
		}
		return step, fmt.Errorf("%s", step.Error)
	}

	step.Status = vibemodel.StepRunning
	_ = o.Store.UpdateStepResult(ctx, step.ID, nil, step.Status, "", 0)

	start := time.Now()
	out := handler(ctx, planStep.Args)
	duration := time.Since(start)
	step.Duration = duration

	if !out.Success {
		step.Status = vibemodel.StepFailed
		step.Error = out.Error
		_ = o.Store.UpdateStepResult(ctx, step.ID, marshalData(out.Data), step.Status, step.Error, duration)
		o.Metrics.RecordStep(planStep.Primitive, string(step.Status), duration)
		if span != nil {
			observability.RecordError(span, fmt.Errorf("%s", out.Error))
		}

		if o.Reviewer != nil {
			review := o.Reviewer.Execute(ctx, primitive.ReviewInput{
				Task:     planStep.Description,
				Success:  false,
				ErrorMsg: out.Error,
			})
			if review.Success {
				if result, ok := review.Data.(primitive.ReviewResult); ok {
					slog.Info("orchestrator: reviewer diagnostics", "run_id", runID, "step", number, "explanation", result.Explanation)
				}
			}
		}
		return step, fmt.Errorf("%s", out.Error)
	}

	step.Status = vibemodel.StepSuccess
	step.Output = marshalData(out.Data)
	o.Metrics.RecordStep(planStep.Primitive, string(step.Status), duration)
	if err := o.Store.UpdateStepResult(ctx, step.ID, step.Output, step.Status, "", duration); err != nil {
		return step, fmt.Errorf("update step result: %w", err)
	}
	return step, nil
}

// marshalData best-effort serializes a primitive's Output.Data for
// persistence; nil or unmarshalable data yields an empty byte slice rather
// than failing the step.
func marshalData(data any) []byte {
	if data == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return b
}
