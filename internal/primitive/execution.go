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

// ExecutionInput names a registered tool and the arguments to invoke it
// with, under a given approval mode.
type ExecutionInput struct {
	Tool string
	Args map[string]any
	Mode vibemodel.ApprovalMode
}

// Execution dispatches one tool call through the Tool Registry's
// validate/policy-check/approve/run state machine.
type Execution struct {
	Registry *tool.Registry
	Approver tool.Approver
}

func (e *Execution) Name() string { return "execution" }

func (e *Execution) Execute(ctx context.Context, input ExecutionInput) Output {
	result, err := e.Registry.Execute(ctx, input.Tool, input.Args, input.Mode, e.Approver)
	if err != nil {
		return Fail(fmt.Errorf("execution: %w", err))
	}
	if !result.Success {
		return Output{Success: false, Data: result, Error: result.Error}
	}
	return Ok(result)
}
