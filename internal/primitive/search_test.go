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

	"github.com/vibeagent/vibe/internal/tool/searchtool"
)

func TestSearchFindsMatchingLine(t *testing.T) {
	workspace := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workspace, "main.go"), []byte("package main\n\nfunc handleLogin() {}\n"), 0o644))

	s := &Search{WorkspaceRoot: workspace}
	out := s.Execute(context.Background(), SearchInput{Query: "login"})
	require.True(t, out.Success, out.Error)

	matches := out.Data.([]searchtool.Match)
	require.NotEmpty(t, matches)
	assert.Contains(t, matches[0].Content, "handleLogin")
}

func TestSearchRespectsMaxResults(t *testing.T) {
	workspace := t.TempDir()
	var body string
	for i := 0; i < 10; i++ {
		body += "token match line\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(workspace, "data.go"), []byte(body), 0o644))

	s := &Search{WorkspaceRoot: workspace}
	out := s.Execute(context.Background(), SearchInput{Query: "token", MaxResults: 3})
	require.True(t, out.Success, out.Error)

	matches := out.Data.([]searchtool.Match)
	assert.Len(t, matches, 3)
}
