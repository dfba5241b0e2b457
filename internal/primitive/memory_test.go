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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibeagent/vibe/internal/session"
)

func TestMemoryAppendThenQuery(t *testing.T) {
	store, err := session.Open(session.DialectSQLite, filepath.Join(t.TempDir(), "mem.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	m := &Memory{Store: store}

	out := m.Execute(context.Background(), MemoryInput{Op: "append", Key: "greeting", Value: "hello"})
	require.True(t, out.Success, out.Error)

	out = m.Execute(context.Background(), MemoryInput{Op: "query", Key: "greeting"})
	require.True(t, out.Success, out.Error)
	assert.Equal(t, "hello", out.Data)
}

func TestMemoryQueryMissingKeyFails(t *testing.T) {
	store, err := session.Open(session.DialectSQLite, filepath.Join(t.TempDir(), "mem.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	m := &Memory{Store: store}
	out := m.Execute(context.Background(), MemoryInput{Op: "query", Key: "absent"})
	assert.False(t, out.Success)
}
