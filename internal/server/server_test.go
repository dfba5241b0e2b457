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

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibeagent/vibe/internal/orchestrator"
	"github.com/vibeagent/vibe/internal/primitive"
	"github.com/vibeagent/vibe/internal/provider"
	"github.com/vibeagent/vibe/internal/session"
	"github.com/vibeagent/vibe/internal/vibemodel"
)

type scriptedAdapter struct{ content string }

func (s *scriptedAdapter) ID() string           { return "scripted" }
func (s *scriptedAdapter) DefaultModel() string { return "scripted-model" }

func (s *scriptedAdapter) Chat(ctx context.Context, messages []provider.Message, opts provider.Options) (*provider.Response, error) {
	return &provider.Response{Content: s.content, ModelID: "scripted-model", ProviderID: "scripted"}, nil
}

func (s *scriptedAdapter) Stream(ctx context.Context, messages []provider.Message, opts provider.Options) (<-chan provider.StreamChunk, error) {
	ch := make(chan provider.StreamChunk)
	close(ch)
	return ch, nil
}

func newTestServer(t *testing.T, planJSON string) *Server {
	t.Helper()
	store, err := session.Open(session.DialectSQLite, filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	router := provider.NewRouter(provider.DefaultPriceTable(), &scriptedAdapter{content: planJSON})
	planning := &primitive.Planning{Router: router, Primitives: []string{"completion"}}

	o := orchestrator.New(store, nil)
	orchestrator.RegisterBundle(o, orchestrator.Bundle{Completion: &primitive.Completion{Router: router}})

	return &Server{Orchestrator: o, Planning: planning, Store: store}
}

func TestHandleCreateRunPlansAndExecutes(t *testing.T) {
	planJSON := `{"steps": [{"description": "say hi", "primitive": "completion", "args": {"Prompt": "hi"}, "reason": "demo"}], "tools": [], "estimatedRisk": "low"}`
	srv := newTestServer(t, planJSON)

	body, _ := json.Marshal(RunRequest{
		UserID:        "user-1",
		WorkspacePath: "/workspace",
		Task:          vibemodel.Task{Description: "say hi"},
	})

	req := httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var run vibemodel.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, vibemodel.RunSuccess, run.Status)
	assert.Len(t, run.Steps, 1)
}

func TestHandleGetRunMissingReturns404(t *testing.T) {
	srv := newTestServer(t, `{"steps": []}`)

	req := httptest.NewRequest(http.MethodGet, "/runs/does-not-exist", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, `{"steps": []}`)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
