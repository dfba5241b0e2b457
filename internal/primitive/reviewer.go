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
	"fmt"
	"strings"

	"github.com/vibeagent/vibe/internal/provider"
)

const reviewSystemPrompt = `You are the review stage of an autonomous developer agent.
Given a completed step's task, its tool output, and whether it succeeded, write a
short verification: confirm whether the output satisfies the task, and if it
failed, explain the likely cause for diagnostics. Be concise.`

// ReviewInput is one executed step handed to the Reviewer for verification.
type ReviewInput struct {
	Task     string
	Output   string
	Success  bool
	ErrorMsg string
}

// ReviewResult is the Reviewer's verdict plus its explanation.
type ReviewResult struct {
	Verified    bool
	Explanation string
}

// Reviewer runs after a step's execution (or after a failed step, per the
// Orchestrator's abort path) to verify the result against the task and
// produce a diagnostic explanation.
type Reviewer struct {
	Router *provider.Router
}

func (r *Reviewer) Name() string { return "reviewer" }

func (r *Reviewer) Execute(ctx context.Context, input ReviewInput) Output {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Task: %s\n", input.Task)
	fmt.Fprintf(&prompt, "Succeeded: %v\n", input.Success)
	if input.Output != "" {
		fmt.Fprintf(&prompt, "Output:\n%s\n", input.Output)
	}
	if input.ErrorMsg != "" {
		fmt.Fprintf(&prompt, "Error:\n%s\n", input.ErrorMsg)
	}

	resp, _, err := r.Router.Chat(ctx, []provider.Message{
		{Role: provider.RoleSystem, Content: reviewSystemPrompt},
		{Role: provider.RoleUser, Content: prompt.String()},
	}, provider.Options{})
	if err != nil {
		return Fail(fmt.Errorf("reviewer: router chat: %w", err))
	}

	return Ok(ReviewResult{
		Verified:    input.Success,
		Explanation: resp.Content,
	})
}
