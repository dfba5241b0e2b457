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

package primitive

import (
	"context"

	"github.com/vibeagent/vibe/internal/vibemodel"
)

// Prompter is the UI-layer collaborator that turns a human-readable
// summary and step list into an approve/deny decision. A CLI prompt, a
// server-side webhook wait, or a test double can all implement it.
type Prompter interface {
	Prompt(ctx context.Context, summary string, steps []string, risk vibemodel.RiskLevel) (bool, error)
}

// Approval resolves whether a risky action may proceed, per the
// configured ApprovalMode: auto approves unconditionally, never denies
// unconditionally, and prompt defers to a Prompter. It satisfies
// tool.Approver.
type Approval struct {
	Mode     vibemodel.ApprovalMode
	Prompter Prompter
}

func (a *Approval) Name() string { return "approval" }

// Approve implements tool.Approver.
func (a *Approval) Approve(ctx context.Context, summary string, steps []string, risk vibemodel.RiskLevel) (bool, error) {
	switch a.Mode {
	case vibemodel.ApprovalAuto:
		return true, nil
	case vibemodel.ApprovalNever:
		return false, nil
	default:
		if a.Prompter == nil {
			return false, nil
		}
		return a.Prompter.Prompt(ctx, summary, steps, risk)
	}
}

// Execute adapts Approve to the uniform primitive contract, for use when
// the Orchestrator dispatches approval as a plan step rather than through
// the Tool Registry directly.
func (a *Approval) Execute(ctx context.Context, summary string, steps []string, risk vibemodel.RiskLevel) Output {
	approved, err := a.Approve(ctx, summary, steps, risk)
	if err != nil {
		return Fail(err)
	}
	return Ok(map[string]any{"approved": approved})
}
