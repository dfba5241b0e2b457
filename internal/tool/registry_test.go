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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibeagent/vibe/internal/vibemodel"
)

func echoTool(risk vibemodel.RiskLevel, requiresApproval bool) Tool {
	return Tool{
		Name:             "echo",
		Description:      "echoes its input argument",
		Category:         CategoryFilesystem,
		Risk:             risk,
		RequiresApproval: requiresApproval,
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"text": map[string]any{"type": "string"}},
			"required":   []string{"text"},
		},
		Handler: func(ctx context.Context, args map[string]any) (vibemodel.ToolResult, error) {
			return vibemodel.ToolResult{Success: true, Output: args["text"].(string)}, nil
		},
	}
}

type fakeApprover struct{ approve bool }

func (f fakeApprover) Approve(ctx context.Context, summary string, steps []string, risk vibemodel.RiskLevel) (bool, error) {
	return f.approve, nil
}

func TestExecuteMissingToolErrors(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), "nope", nil, vibemodel.ApprovalAuto, nil)
	assert.Error(t, err)
}

func TestExecuteValidatesRequiredArgs(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool(vibemodel.RiskLow, false))

	result, err := r.Execute(context.Background(), "echo", map[string]any{}, vibemodel.ApprovalAuto, nil)
	require.Error(t, err)
	assert.False(t, result.Success)
}

func TestExecuteLowRiskRunsWithoutApprover(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool(vibemodel.RiskLow, false))

	result, err := r.Execute(context.Background(), "echo", map[string]any{"text": "hi"}, vibemodel.ApprovalPrompt, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "hi", result.Output)
}

func TestExecuteNeverModeDeniesApprovalRequiredTool(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool(vibemodel.RiskHigh, true))

	_, err := r.Execute(context.Background(), "echo", map[string]any{"text": "hi"}, vibemodel.ApprovalNever, nil)
	require.Error(t, err)
	var denied *DeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestExecuteAutoModeBypassesApprover(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool(vibemodel.RiskCritical, true))

	result, err := r.Execute(context.Background(), "echo", map[string]any{"text": "hi"}, vibemodel.ApprovalAuto, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestExecutePromptModeConsultsApprover(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool(vibemodel.RiskHigh, true))

	result, err := r.Execute(context.Background(), "echo", map[string]any{"text": "hi"}, vibemodel.ApprovalPrompt, fakeApprover{approve: true})
	require.NoError(t, err)
	assert.True(t, result.Success)

	_, err = r.Execute(context.Background(), "echo", map[string]any{"text": "hi"}, vibemodel.ApprovalPrompt, fakeApprover{approve: false})
	require.Error(t, err)
}

func TestListReturnsSortedTools(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool(vibemodel.RiskLow, false))
	r.Register(Tool{Name: "aardvark", Handler: func(ctx context.Context, args map[string]any) (vibemodel.ToolResult, error) {
		return vibemodel.ToolResult{Success: true}, nil
	}})

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "aardvark", list[0].Name)
}
