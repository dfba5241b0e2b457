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
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracerDisabledIsNoop(t *testing.T) {
	tr, err := NewTracer(nil)
	require.NoError(t, err)
	require.NotNil(t, tr)

	ctx, span := tr.StartRouterDispatch(context.Background(), "anthropic", "claude")
	assert.NotNil(t, ctx)
	span.End()

	assert.NoError(t, tr.Shutdown(context.Background()))
}

func TestNewTracerEnabledRecordsSpans(t *testing.T) {
	tr, err := NewTracer(&TracerConfig{Enabled: true, ServiceName: "vibe-test"})
	require.NoError(t, err)
	require.NotNil(t, tr)
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })

	_, runSpan := tr.StartOrchestratorRun(context.Background(), "run-1", "user-1")
	AddCost(runSpan, 0.01)
	runSpan.End()

	_, stepSpan := tr.StartOrchestratorStep(context.Background(), "run-1", 1, "execution")
	RecordError(stepSpan, errors.New("boom"))
	stepSpan.End()

	_, toolSpan := tr.StartToolExecution(context.Background(), "write_file")
	toolSpan.End()

	_, iterSpan := tr.StartLoopIteration(context.Background(), 1)
	AddTokens(iterSpan, 100, 50)
	iterSpan.End()
}

func TestRecordErrorIgnoresNil(t *testing.T) {
	tr, err := NewTracer(nil)
	require.NoError(t, err)
	_, span := tr.StartToolExecution(context.Background(), "noop")
	defer span.End()
	assert.NotPanics(t, func() { RecordError(span, nil) })
}
