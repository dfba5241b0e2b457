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

package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibeagent/vibe/internal/vibemodel"
)

func TestCreateCheckpointReturnsNilWhenNothingPending(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	cp, err := store.CreateCheckpoint("sess-1", "empty")
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestRollbackRestoresModifiedFileByteIdentical(t *testing.T) {
	workspace := t.TempDir()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	target := filepath.Join(workspace, "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0o644))

	store.Track("sess-1", target, vibemodel.ChangeModify)
	require.NoError(t, os.WriteFile(target, []byte("package main\n\nfunc main() {}\n"), 0o644))
	store.UpdateChangeContent("sess-1", target, "package main\n\nfunc main() {}\n")

	cp, err := store.CreateCheckpoint("sess-1", "add-main")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, "sess-1", cp.SessionID)
	assert.Len(t, cp.Changes, 1)

	result, err := store.Rollback(cp.ID)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, []string{target}, result.Reverted)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "package main\n", string(data))
}

func TestRollbackDeletesCreatedFile(t *testing.T) {
	workspace := t.TempDir()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	target := filepath.Join(workspace, "new.go")
	store.Track("sess-2", target, vibemodel.ChangeCreate)
	require.NoError(t, os.WriteFile(target, []byte("package foo\n"), 0o644))
	store.UpdateChangeContent("sess-2", target, "package foo\n")

	cp, err := store.CreateCheckpoint("sess-2", "")
	require.NoError(t, err)
	require.NotNil(t, cp)

	_, err = store.Rollback(cp.ID)
	require.NoError(t, err)

	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRollbackRecreatesDeletedFile(t *testing.T) {
	workspace := t.TempDir()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	target := filepath.Join(workspace, "gone.go")
	require.NoError(t, os.WriteFile(target, []byte("package gone\n"), 0o644))

	store.Track("sess-3", target, vibemodel.ChangeDelete)
	require.NoError(t, os.Remove(target))

	cp, err := store.CreateCheckpoint("sess-3", "")
	require.NoError(t, err)
	require.NotNil(t, cp)

	_, err = store.Rollback(cp.ID)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "package gone\n", string(data))
}

func TestListAndGetCheckpointRoundTrip(t *testing.T) {
	workspace := t.TempDir()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	target := filepath.Join(workspace, "a.go")
	require.NoError(t, os.WriteFile(target, []byte("a"), 0o644))
	store.Track("sess-4", target, vibemodel.ChangeModify)
	store.UpdateChangeContent("sess-4", target, "b")
	cp, err := store.CreateCheckpoint("sess-4", "first")
	require.NoError(t, err)

	list, err := store.ListCheckpoints("sess-4")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, cp.ID, list[0].ID)

	loaded, err := store.GetCheckpoint(cp.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", loaded.Name)
}

func TestDiffSummaryReportsPendingCount(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "no pending changes", store.DiffSummary("sess-5"))

	store.Track("sess-5", "/tmp/x.go", vibemodel.ChangeCreate)
	assert.Equal(t, "1 pending change", store.DiffSummary("sess-5"))

	store.Track("sess-5", "/tmp/y.go", vibemodel.ChangeCreate)
	assert.Equal(t, "2 pending changes", store.DiffSummary("sess-5"))
}
