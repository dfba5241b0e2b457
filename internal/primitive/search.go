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
	"fmt"

	"github.com/vibeagent/vibe/internal/tool/searchtool"
)

// SearchInput is a ranked path/content query over the workspace.
type SearchInput struct {
	Query      string
	MaxResults int
}

// Search wraps searchtool.Search as a primitive so the Orchestrator can
// dispatch a workspace search as an ordinary plan step.
type Search struct {
	WorkspaceRoot string
}

func (s *Search) Name() string { return "search" }

func (s *Search) Execute(ctx context.Context, input SearchInput) Output {
	matches, err := searchtool.Search(s.WorkspaceRoot, input.Query)
	if err != nil {
		return Fail(fmt.Errorf("search: %w", err))
	}

	max := input.MaxResults
	if max <= 0 {
		max = 20
	}
	if len(matches) > max {
		matches = matches[:max]
	}

	return Ok(matches)
}
