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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibeagent/vibe/internal/vibemodel"
)

func TestMultiEditAppliesAllEditsInOrder(t *testing.T) {
	registry, workspace := newTestRegistry(t)

	m := &MultiEdit{Registry: registry}
	out := m.Execute(context.Background(), MultiEditInput{
		Mode: vibemodel.ApprovalAuto,
		Edits: []Edit{
			{Path: "a.txt", Content: "one"},
			{Path: "b.txt", Content: "two"},
		},
	})
	require.True(t, out.Success, out.Error)

	result := out.Data.(MultiEditResult)
	assert.True(t, result.Complete)
	assert.Len(t, result.Outcomes, 2)

	a, err := os.ReadFile(filepath.Join(workspace, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(a))
}

func TestMultiEditHaltsOnFirstFailureButKeepsPriorEdits(t *testing.T) {
	registry, workspace := newTestRegistry(t)

	m := &MultiEdit{Registry: registry}
	out := m.Execute(context.Background(), MultiEditInput{
		Mode: vibemodel.ApprovalAuto,
		Edits: []Edit{
			{Path: "first.txt", Content: "kept"},
			{Path: "../escape.txt", Content: "denied"},
		},
	})
	assert.False(t, out.Success)

	result := out.Data.(MultiEditResult)
	assert.False(t, result.Complete)
	require.Len(t, result.Outcomes, 2)
	assert.True(t, result.Outcomes[0].Applied)
	assert.False(t, result.Outcomes[1].Applied)

	kept, err := os.ReadFile(filepath.Join(workspace, "first.txt"))
	require.NoError(t, err)
	assert.Equal(t, "kept", string(kept))
}
