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

package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibeagent/vibe/internal/vibemodel"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.db")
	store, err := Open(DialectSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMigrationsApplyIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	store1, err := Open(DialectSQLite, path)
	require.NoError(t, err)
	store1.Close()

	store2, err := Open(DialectSQLite, path)
	require.NoError(t, err)
	defer store2.Close()
}

func TestCreateRunAndUpdateStatus(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := &vibemodel.Run{
		ID:            "run-1",
		UserID:        "user-1",
		WorkspacePath: "/workspace",
		Status:        vibemodel.RunPending,
		StartedAt:     time.Now(),
	}
	require.NoError(t, store.CreateRun(ctx, run))
	require.NoError(t, store.UpdateRunStatus(ctx, "run-1", vibemodel.RunRunning))
}

func TestCreateStepAndRetrieve(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := &vibemodel.Run{ID: "run-2", UserID: "u", WorkspacePath: "/w", Status: vibemodel.RunPending, StartedAt: time.Now()}
	require.NoError(t, store.CreateRun(ctx, run))

	step := &vibemodel.Step{ID: "step-1", RunID: "run-2", StepNumber: 1, Primitive: "planning", Task: "do a thing", Status: vibemodel.StepPending, Input: []byte(`{"task":"do a thing"}`)}
	require.NoError(t, store.CreateStep(ctx, step))
	require.NoError(t, store.UpdateStepResult(ctx, "step-1", []byte("done"), vibemodel.StepSuccess, "", 5*time.Millisecond))

	steps, err := store.StepsForRun(ctx, "run-2")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, vibemodel.StepSuccess, steps[0].Status)
	assert.Equal(t, "done", string(steps[0].Output))
}

func TestGetRunReturnsFullRecord(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := &vibemodel.Run{
		ID:             "run-3",
		UserID:         "u",
		WorkspacePath:  "/w",
		Status:         vibemodel.RunPending,
		ConfigSnapshot: map[string]any{"default_provider": "anthropic"},
		StartedAt:      time.Now(),
	}
	require.NoError(t, store.CreateRun(ctx, run))
	require.NoError(t, store.UpdateRunStatus(ctx, "run-3", vibemodel.RunSuccess))

	step := &vibemodel.Step{ID: "step-2", RunID: "run-3", StepNumber: 1, Primitive: "completion", Task: "say hi", Status: vibemodel.StepPending}
	require.NoError(t, store.CreateStep(ctx, step))

	got, err := store.GetRun(ctx, "run-3")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, vibemodel.RunSuccess, got.Status)
	assert.Equal(t, "anthropic", got.ConfigSnapshot["default_provider"])
	require.Len(t, got.Steps, 1)
	assert.Equal(t, "completion", got.Steps[0].Primitive)
}

func TestGetRunMissingReturnsNil(t *testing.T) {
	store := openTestStore(t)
	got, err := store.GetRun(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPersistenceItemUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k1", "v1", ""))
	value, ok, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", value)

	require.NoError(t, store.Put(ctx, "k1", "v2", ""))
	value, ok, err = store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", value)

	_, ok, err = store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
