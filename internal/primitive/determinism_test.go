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
)

func TestDeterminismRecordThenReplayMatches(t *testing.T) {
	log := NewLog(nil)

	recorder := &Determinism{Mode: ModeRecord, Log: log}
	out := recorder.Execute(context.Background(), DeterminismInput{Tool: "read_file", Input: "a.txt", Output: "contents"})
	require.True(t, out.Success, out.Error)

	replayLog := NewLog(log.Entries())
	replayer := &Determinism{Mode: ModeReplay, Log: replayLog}
	out = replayer.Execute(context.Background(), DeterminismInput{Tool: "read_file", Input: "a.txt"})
	require.True(t, out.Success, out.Error)
	assert.Equal(t, "contents", out.Data)
}

func TestDeterminismReplayMismatchRaisesReplayMismatchClass(t *testing.T) {
	log := NewLog([]IOEntry{{Tool: "read_file", Input: "a.txt", Output: "contents"}})
	replayer := &Determinism{Mode: ModeReplay, Log: log}

	out := replayer.Execute(context.Background(), DeterminismInput{Tool: "read_file", Input: "b.txt"})
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "replay diverged")
}

func TestDeterminismReplayExhaustedLogFails(t *testing.T) {
	log := NewLog(nil)
	replayer := &Determinism{Mode: ModeReplay, Log: log}

	out := replayer.Execute(context.Background(), DeterminismInput{Tool: "read_file", Input: "a.txt"})
	assert.False(t, out.Success)
}
