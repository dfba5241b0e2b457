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

// Package commandtool provides the sandboxed shell execution tool: a
// command blocklist/allowlist, a working-directory jail, and a
// per-invocation deadline.
package commandtool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/vibeagent/vibe/internal/tool"
	"github.com/vibeagent/vibe/internal/vibemodel"
)

// DefaultTimeout is the deadline applied to a shell invocation when the
// caller does not override it.
const DefaultTimeout = 60 * time.Second

// Config configures the registered execute_command tool.
type Config struct {
	Sandbox *tool.Sandbox
	Timeout time.Duration
}

// commandArgs is the execute_command parameter schema, reflected by
// tool.ArgsSchema.
type commandArgs struct {
	Command string `json:"command" jsonschema:"required,description=The shell command to execute"`
}

// Register adds execute_command to registry.
func Register(registry *tool.Registry, cfg Config) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	registry.Register(tool.Tool{
		Name:             "execute_command",
		Description:      "Execute a shell command inside the workspace sandbox.",
		Category:         tool.CategoryShell,
		Risk:             vibemodel.RiskHigh,
		RequiresApproval: true,
		Parameters:       tool.ArgsSchema[commandArgs](),
		Handler: func(ctx context.Context, args map[string]any) (vibemodel.ToolResult, error) {
			command, _ := args["command"].(string)
			if err := cfg.Sandbox.ValidateCommand(command); err != nil {
				return vibemodel.ToolResult{Success: false, Error: err.Error()}, err
			}

			execCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			cmd := exec.CommandContext(execCtx, "sh", "-c", command)
			cmd.Dir = cfg.Sandbox.WorkspaceRoot

			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			start := time.Now()
			runErr := cmd.Run()
			duration := time.Since(start)

			output := stdout.String()
			if stderr.Len() > 0 {
				output += "\n[stderr]\n" + stderr.String()
			}

			var exitCode *int
			if cmd.ProcessState != nil {
				code := cmd.ProcessState.ExitCode()
				exitCode = &code
			}

			result := vibemodel.ToolResult{
				Success:  runErr == nil,
				Output:   output,
				ExitCode: exitCode,
				Duration: duration,
			}
			if runErr != nil {
				if execCtx.Err() != nil {
					result.Error = fmt.Sprintf("command timed out after %s", timeout)
				} else {
					result.Error = runErr.Error()
				}
			}
			return result, runErr
		},
	})
}
