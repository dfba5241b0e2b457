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

package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibeagent/vibe/internal/primitive"
	"github.com/vibeagent/vibe/internal/vibemodel"
)

func TestRegisterBundleWiresApprovalAndMemory(t *testing.T) {
	o, store := newTestOrchestrator(t)

	approval := &primitive.Approval{Mode: vibemodel.ApprovalAuto}
	memory := &primitive.Memory{Store: store}
	RegisterBundle(o, Bundle{Approval: approval, Memory: memory})

	plan := vibemodel.Plan{Steps: []vibemodel.PlanStep{
		{Description: "approve it", Primitive: "approval", Args: map[string]any{
			"Summary": "apply a risky patch", "Steps": []string{"write file"}, "Risk": "high",
		}},
		{Description: "remember it", Primitive: "memory", Args: map[string]any{
			"Op": "append", "Key": "note-1", "Value": "hello",
		}},
	}}

	run, err := o.Run(context.Background(), "user-1", "/workspace", plan)
	require.NoError(t, err)
	assert.Equal(t, vibemodel.RunSuccess, run.Status)
	require.Len(t, run.Steps, 2)
	assert.Equal(t, vibemodel.StepSuccess, run.Steps[0].Status)
	assert.Equal(t, vibemodel.StepSuccess, run.Steps[1].Status)
}
