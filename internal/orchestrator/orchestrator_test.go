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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibeagent/vibe/internal/primitive"
	"github.com/vibeagent/vibe/internal/session"
	"github.com/vibeagent/vibe/internal/vibemodel"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *session.Store) {
	t.Helper()
	store, err := session.Open(session.DialectSQLite, filepath.Join(t.TempDir(), "orch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return New(store, nil), store
}

func TestRunExecutesStepsSequentiallyToSuccess(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	var order []string

	o.RegisterHandler("noop", func(ctx context.Context, args map[string]any) primitive.Output {
		order = append(order, "noop")
		return primitive.Ok("done")
	})

	plan := vibemodel.Plan{Steps: []vibemodel.PlanStep{
		{Description: "first", Primitive: "noop"},
		{Description: "second", Primitive: "noop"},
	}}

	run, err := o.Run(context.Background(), "user-1", "/workspace", plan)
	require.NoError(t, err)
	assert.Equal(t, vibemodel.RunSuccess, run.Status)
	assert.Len(t, run.Steps, 2)
	assert.Equal(t, []string{"noop", "noop"}, order)
}

func TestRunAbortsOnFirstFailureByDefault(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	var ran []string

	o.RegisterHandler("good", func(ctx context.Context, args map[string]any) primitive.Output {
		ran = append(ran, "good")
		return primitive.Ok("ok")
	})
	o.RegisterHandler("bad", func(ctx context.Context, args map[string]any) primitive.Output {
		ran = append(ran, "bad")
		return primitive.Fail(assertErr("boom"))
	})

	plan := vibemodel.Plan{Steps: []vibemodel.PlanStep{
		{Description: "first", Primitive: "good"},
		{Description: "second", Primitive: "bad"},
		{Description: "third", Primitive: "good"},
	}}

	run, err := o.Run(context.Background(), "user-1", "/workspace", plan)
	require.NoError(t, err)
	assert.Equal(t, vibemodel.RunFailed, run.Status)
	assert.Equal(t, []string{"good", "bad"}, ran)
	require.Len(t, run.Steps, 2)
	assert.Equal(t, vibemodel.StepFailed, run.Steps[1].Status)
}

func TestRunFailsStepForUnregisteredPrimitive(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	plan := vibemodel.Plan{Steps: []vibemodel.PlanStep{{Description: "ghost", Primitive: "ghost"}}}
	run, err := o.Run(context.Background(), "user-1", "/workspace", plan)
	require.NoError(t, err)
	assert.Equal(t, vibemodel.RunFailed, run.Status)
	assert.Contains(t, run.Steps[0].Error, "no handler registered")
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
