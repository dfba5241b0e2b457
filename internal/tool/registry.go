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

package tool

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vibeagent/vibe/internal/observability"
	"github.com/vibeagent/vibe/internal/verr"
	"github.com/vibeagent/vibe/internal/vibemodel"
)

// State is one position in a tool invocation's lifecycle:
//
//	validated -> policy-checked -> {denied | approved | auto} -> running -> {success | failed}
type State string

const (
	StateValidated     State = "validated"
	StatePolicyChecked State = "policy-checked"
	StateDenied        State = "denied"
	StateApproved      State = "approved"
	StateAuto          State = "auto"
	StateRunning       State = "running"
	StateSuccess       State = "success"
	StateFailed        State = "failed"
)

// Approver resolves whether a risky invocation may proceed. It is
// satisfied by the Approval primitive; the Registry depends only on this
// narrow interface to avoid a cycle back into the primitive package.
type Approver interface {
	Approve(ctx context.Context, summary string, steps []string, risk vibemodel.RiskLevel) (bool, error)
}

// ApprovalThreshold is the minimum risk level that requires approval in
// `prompt` mode when a tool does not itself demand approval.
const ApprovalThreshold = vibemodel.RiskMedium

// Registry holds every tool available to the Execution primitive and
// enforces the validate -> policy-check -> run state machine around each
// invocation.
type Registry struct {
	Metrics *observability.Metrics

	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry builds an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool definition.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name] = t
}

// Get returns one registered tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns every registered tool, sorted by name.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DeniedError reports that approval for a tool invocation was refused.
type DeniedError struct {
	Tool string
}

func (e *DeniedError) Error() string { return fmt.Sprintf("tool %q denied approval", e.Tool) }

// Execute runs the full state machine for one tool invocation: validate
// arguments, decide whether approval is required under mode, resolve
// approval via approver when needed, then dispatch the handler.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any, mode vibemodel.ApprovalMode, approver Approver) (vibemodel.ToolResult, error) {
	t, ok := r.Get(name)
	if !ok {
		return vibemodel.ToolResult{}, fmt.Errorf("tool %q not registered", name)
	}

	if err := t.Validate(args); err != nil {
		return vibemodel.ToolResult{Success: false, Error: err.Error()}, err
	}
	slog.Debug("tool validated", "tool", name, "state", StateValidated)

	riskAtOrAboveThreshold := t.Risk == ApprovalThreshold || t.Risk.Higher(ApprovalThreshold)
	needsApproval := t.RequiresApproval || (mode == vibemodel.ApprovalPrompt && riskAtOrAboveThreshold)
	slog.Debug("tool policy checked", "tool", name, "state", StatePolicyChecked, "needs_approval", needsApproval, "mode", mode)

	switch {
	case !needsApproval:
		slog.Debug("tool auto-approved", "tool", name, "state", StateAuto)
	case mode == vibemodel.ApprovalNever:
		slog.Info("tool denied by never-approval mode", "tool", name, "state", StateDenied)
		r.Metrics.RecordApproval(string(mode), false)
		return vibemodel.ToolResult{Success: false, Error: "approval required but mode is never"}, &DeniedError{Tool: name}
	case mode == vibemodel.ApprovalAuto:
		slog.Debug("tool approved by auto mode", "tool", name, "state", StateApproved)
		r.Metrics.RecordApproval(string(mode), true)
	default:
		if approver == nil {
			return vibemodel.ToolResult{Success: false, Error: "approval required but no approver configured"}, &DeniedError{Tool: name}
		}
		ok, err := approver.Approve(ctx, fmt.Sprintf("execute tool %q", name), []string{t.Description}, t.Risk)
		if err != nil {
			return vibemodel.ToolResult{Success: false, Error: err.Error()}, err
		}
		r.Metrics.RecordApproval(string(mode), ok)
		if !ok {
			slog.Info("tool denied by approver", "tool", name, "state", StateDenied)
			return vibemodel.ToolResult{Success: false, Error: "approval denied"}, &DeniedError{Tool: name}
		}
		slog.Debug("tool approved", "tool", name, "state", StateApproved)
	}

	slog.Debug("tool running", "tool", name, "state", StateRunning)
	start := time.Now()
	result, err := t.Handler(ctx, args)
	result.Duration = time.Since(start)

	if err != nil || !result.Success {
		slog.Warn("tool failed", "tool", name, "state", StateFailed, "error", err)
		if result.Error == "" && err != nil {
			result.Error = err.Error()
		}
		r.Metrics.RecordToolError(name, string(verr.ClassOf(err)))
		return result, err
	}

	slog.Debug("tool succeeded", "tool", name, "state", StateSuccess, "duration", result.Duration)
	r.Metrics.RecordToolCall(name, result.Duration)
	return result, nil
}
