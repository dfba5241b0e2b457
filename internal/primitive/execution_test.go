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

	"github.com/vibeagent/vibe/internal/checkpoint"
	"github.com/vibeagent/vibe/internal/tool"
	"github.com/vibeagent/vibe/internal/tool/filetool"
	"github.com/vibeagent/vibe/internal/vibemodel"
)

func newTestRegistry(t *testing.T) (*tool.Registry, string) {
	t.Helper()
	workspace := t.TempDir()
	checkpointDir := t.TempDir()

	cpStore, err := checkpoint.NewStore(checkpointDir)
	require.NoError(t, err)

	registry := tool.NewRegistry()
	filetool.Register(registry, filetool.Deps{
		Sandbox:    tool.NewSandbox(workspace),
		Checkpoint: cpStore,
		SessionID:  "test-session",
	})
	return registry, workspace
}

func TestExecutionRunsWriteFileThroughRegistry(t *testing.T) {
	registry, workspace := newTestRegistry(t)

	e := &Execution{Registry: registry}
	out := e.Execute(context.Background(), ExecutionInput{
		Tool: "write_file",
		Args: map[string]any{"path": "notes.txt", "content": "hello"},
		Mode: vibemodel.ApprovalAuto,
	})
	require.True(t, out.Success, out.Error)

	data, err := os.ReadFile(filepath.Join(workspace, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestExecutionFailsForUnknownTool(t *testing.T) {
	registry, _ := newTestRegistry(t)

	e := &Execution{Registry: registry}
	out := e.Execute(context.Background(), ExecutionInput{Tool: "nope", Mode: vibemodel.ApprovalAuto})
	assert.False(t, out.Success)
}
