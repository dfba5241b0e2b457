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

	"github.com/vibeagent/vibe/internal/tool"
	"github.com/vibeagent/vibe/internal/vibemodel"
)

// Edit is one file's desired new content within a MultiEdit batch.
type Edit struct {
	Path    string
	Content string
}

// MultiEditInput is a batch of edits applied in order under a single
// approval mode.
type MultiEditInput struct {
	Edits []Edit
	Mode  vibemodel.ApprovalMode
}

// EditOutcome records the per-file result of applying one Edit.
type EditOutcome struct {
	Path    string
	Applied bool
	Error   string
}

// MultiEditResult is the aggregate outcome of a MultiEdit batch: the
// per-file outcomes, plus whether the whole batch completed.
type MultiEditResult struct {
	Outcomes []EditOutcome
	Complete bool
}

// MultiEdit applies a batch of file edits through the write_file tool,
// each one individually tracked by the Checkpoint Store so a partial
// failure leaves already-applied edits intact and rollback-able, while
// halting the remaining batch at the first failure.
type MultiEdit struct {
	Registry *tool.Registry
	Approver tool.Approver
}

func (m *MultiEdit) Name() string { return "multi_edit" }

func (m *MultiEdit) Execute(ctx context.Context, input MultiEditInput) Output {
	result := MultiEditResult{}

	for _, edit := range input.Edits {
		_, err := m.Registry.Execute(ctx, "write_file", map[string]any{
			"path":    edit.Path,
			"content": edit.Content,
		}, input.Mode, m.Approver)

		if err != nil {
			result.Outcomes = append(result.Outcomes, EditOutcome{Path: edit.Path, Applied: false, Error: err.Error()})
			return Output{Success: false, Data: result, Error: fmt.Sprintf("multi_edit: halted at %s: %v", edit.Path, err)}
		}

		result.Outcomes = append(result.Outcomes, EditOutcome{Path: edit.Path, Applied: true})
	}

	result.Complete = true
	return Ok(result)
}
