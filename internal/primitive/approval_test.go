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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibeagent/vibe/internal/vibemodel"
)

type scriptedPrompter struct{ approve bool }

func (p scriptedPrompter) Prompt(ctx context.Context, summary string, steps []string, risk vibemodel.RiskLevel) (bool, error) {
	return p.approve, nil
}

func TestApprovalAutoAlwaysApproves(t *testing.T) {
	a := &Approval{Mode: vibemodel.ApprovalAuto, Prompter: scriptedPrompter{approve: false}}
	approved, err := a.Approve(context.Background(), "summary", nil, vibemodel.RiskCritical)
	require.NoError(t, err)
	assert.True(t, approved)
}

func TestApprovalNeverAlwaysDenies(t *testing.T) {
	a := &Approval{Mode: vibemodel.ApprovalNever, Prompter: scriptedPrompter{approve: true}}
	approved, err := a.Approve(context.Background(), "summary", nil, vibemodel.RiskLow)
	require.NoError(t, err)
	assert.False(t, approved)
}

func TestApprovalPromptConsultsPrompter(t *testing.T) {
	a := &Approval{Mode: vibemodel.ApprovalPrompt, Prompter: scriptedPrompter{approve: true}}
	out := a.Execute(context.Background(), "summary", []string{"step one"}, vibemodel.RiskHigh)
	require.True(t, out.Success)
	assert.Equal(t, true, out.Data.(map[string]any)["approved"])
}

func TestApprovalPromptWithoutPrompterDenies(t *testing.T) {
	a := &Approval{Mode: vibemodel.ApprovalPrompt}
	approved, err := a.Approve(context.Background(), "summary", nil, vibemodel.RiskMedium)
	require.NoError(t, err)
	assert.False(t, approved)
}
