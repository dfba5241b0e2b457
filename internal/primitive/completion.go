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

	"github.com/vibeagent/vibe/internal/provider"
)

// CompletionInput is the prompt and conversation history handed to the
// Completion primitive.
type CompletionInput struct {
	SystemPrompt string
	History      []provider.Message
	Prompt       string
	Model        string
}

// CompletionResult carries the normalized model reply plus the usage and
// cost figures the Router reported.
type CompletionResult struct {
	Content    string
	ModelID    string
	ProviderID string
	CostUSD    float64
	Tokens     int
}

// Completion is a thin, stable wrapper over the Provider Router exposing a
// single free-form chat call other primitives and the Orchestrator can
// depend on without reaching into provider internals directly.
type Completion struct {
	Router *provider.Router
}

func (c *Completion) Name() string { return "completion" }

// Chat is the underlying call, returning the classified error untouched so
// callers that need to inspect it (the Autonomous Loop's retry policy, in
// particular) aren't limited to Output's flattened error string.
func (c *Completion) Chat(ctx context.Context, input CompletionInput) (CompletionResult, error) {
	messages := make([]provider.Message, 0, len(input.History)+2)
	if input.SystemPrompt != "" {
		messages = append(messages, provider.Message{Role: provider.RoleSystem, Content: input.SystemPrompt})
	}
	messages = append(messages, input.History...)
	messages = append(messages, provider.Message{Role: provider.RoleUser, Content: input.Prompt})

	resp, _, err := c.Router.Chat(ctx, messages, provider.Options{Model: input.Model})
	if err != nil {
		return CompletionResult{}, fmt.Errorf("completion: router chat: %w", err)
	}

	return CompletionResult{
		Content:    resp.Content,
		ModelID:    resp.ModelID,
		ProviderID: resp.ProviderID,
		CostUSD:    resp.CostUSD,
		Tokens:     resp.Usage.Total(),
	}, nil
}

func (c *Completion) Execute(ctx context.Context, input CompletionInput) Output {
	result, err := c.Chat(ctx, input)
	if err != nil {
		return Fail(err)
	}
	return Ok(result)
}
