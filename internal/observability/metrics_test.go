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

package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsDisabledReturnsNil(t *testing.T) {
	assert.Nil(t, NewMetrics(nil))
	assert.Nil(t, NewMetrics(&MetricsConfig{Enabled: false}))
}

func TestNilMetricsMethodsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRouterDispatch("anthropic", "claude", time.Millisecond, 10, 5, 0.01)
		m.RecordRouterError("anthropic", "network")
		m.RecordRouterFallback("anthropic", "openai")
		m.RecordToolCall("write_file", time.Millisecond)
		m.RecordToolError("write_file", "permission")
		m.RecordApproval("prompt", true)
		m.RecordRunStart()
		m.RecordRunFinish("success", time.Millisecond)
		m.RecordStep("execution", "success", time.Millisecond)
		m.RecordLoopIteration()
		m.RecordLoopStop("complete")
	})
	assert.Nil(t, m.Registry())
}

func TestMetricsRecordingAndScrape(t *testing.T) {
	m := NewMetrics(&MetricsConfig{Enabled: true})
	require.NotNil(t, m)

	m.RecordRouterDispatch("anthropic", "claude-sonnet", 50*time.Millisecond, 100, 50, 0.002)
	m.RecordRouterError("openai", "rate_limit")
	m.RecordRouterFallback("anthropic", "openai")
	m.RecordToolCall("search_workspace", 5*time.Millisecond)
	m.RecordToolError("write_file", "validation")
	m.RecordApproval("auto", true)
	m.RecordRunStart()
	m.RecordRunFinish("success", 200*time.Millisecond)
	m.RecordStep("planning", "success", 10*time.Millisecond)
	m.RecordLoopIteration()
	m.RecordLoopStop("stuck")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vibe_router_dispatches_total")
	assert.Contains(t, rec.Body.String(), "vibe_orchestrator_steps_total")
}

func TestDisabledMetricsHandlerReturnsUnavailable(t *testing.T) {
	var m *Metrics
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
