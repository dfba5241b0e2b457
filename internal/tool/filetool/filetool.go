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

// Package filetool provides the filesystem tools: read, write and list,
// each routed through a Sandbox path check and tracked by the Checkpoint
// Store before mutation.
package filetool

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/vibeagent/vibe/internal/checkpoint"
	"github.com/vibeagent/vibe/internal/contextmgr"
	"github.com/vibeagent/vibe/internal/tool"
	"github.com/vibeagent/vibe/internal/vibemodel"
)

// Deps are the shared collaborators every file tool needs: a sandbox for
// path validation, a checkpoint store for pre/post mutation tracking, and
// the context manager whose caches must be invalidated on write.
type Deps struct {
	Sandbox    *tool.Sandbox
	Checkpoint *checkpoint.Store
	Context    *contextmgr.Manager
	SessionID  string
}

// Register adds read_file, write_file and list_files to registry.
func Register(registry *tool.Registry, deps Deps) {
	registry.Register(readFileTool(deps))
	registry.Register(writeFileTool(deps))
	registry.Register(listFilesTool(deps))
}

// readFileArgs is the read_file parameter schema, reflected by
// tool.ArgsSchema.
type readFileArgs struct {
	Path      string `json:"path" jsonschema:"required,description=Path relative to the workspace root"`
	StartLine int    `json:"start_line,omitempty" jsonschema:"description=1-indexed inclusive start line"`
	EndLine   int    `json:"end_line,omitempty" jsonschema:"description=1-indexed inclusive end line"`
}

func readFileTool(deps Deps) tool.Tool {
	return tool.Tool{
		Name:        "read_file",
		Description: "Read a file's contents, optionally restricted to a line range.",
		Category:    tool.CategoryFilesystem,
		Risk:        vibemodel.RiskLow,
		Parameters:  tool.ArgsSchema[readFileArgs](),
		Handler: func(ctx context.Context, args map[string]any) (vibemodel.ToolResult, error) {
			rawPath, _ := args["path"].(string)
			clean, err := deps.Sandbox.ValidatePath(rawPath)
			if err != nil {
				return vibemodel.ToolResult{Success: false, Error: err.Error()}, err
			}

			data, err := os.ReadFile(clean)
			if err != nil {
				return vibemodel.ToolResult{Success: false, Error: err.Error()}, err
			}

			lines := strings.Split(string(data), "\n")
			start, end := 1, len(lines)
			if v, ok := args["start_line"]; ok {
				start = toInt(v)
			}
			if v, ok := args["end_line"]; ok {
				end = toInt(v)
			}
			if start < 1 {
				start = 1
			}
			if start > len(lines) {
				start = len(lines) + 1
			}
			if end > len(lines) || end < start {
				end = len(lines)
			}

			selected := lines[start-1 : end]
			return vibemodel.ToolResult{Success: true, Output: strings.Join(selected, "\n")}, nil
		},
	}
}

// writeFileArgs is the write_file parameter schema, reflected by
// tool.ArgsSchema.
type writeFileArgs struct {
	Path    string `json:"path" jsonschema:"required,description=Path relative to the workspace root"`
	Content string `json:"content" jsonschema:"required,description=New file content"`
}

func writeFileTool(deps Deps) tool.Tool {
	return tool.Tool{
		Name:             "write_file",
		Description:      "Create or overwrite a file's contents.",
		Category:         tool.CategoryFilesystem,
		Risk:             vibemodel.RiskMedium,
		RequiresApproval: false,
		Parameters:       tool.ArgsSchema[writeFileArgs](),
		Handler: func(ctx context.Context, args map[string]any) (vibemodel.ToolResult, error) {
			rawPath, _ := args["path"].(string)
			content, _ := args["content"].(string)

			clean, err := deps.Sandbox.ValidatePath(rawPath)
			if err != nil {
				return vibemodel.ToolResult{Success: false, Error: err.Error()}, err
			}

			changeType := vibemodel.ChangeModify
			if _, statErr := os.Stat(clean); os.IsNotExist(statErr) {
				changeType = vibemodel.ChangeCreate
			}

			if deps.Checkpoint != nil {
				deps.Checkpoint.Track(deps.SessionID, clean, changeType)
			}

			if err := os.WriteFile(clean, []byte(content), 0o644); err != nil {
				return vibemodel.ToolResult{Success: false, Error: err.Error()}, err
			}

			if deps.Checkpoint != nil {
				deps.Checkpoint.UpdateChangeContent(deps.SessionID, clean, content)
			}
			if deps.Context != nil {
				deps.Context.Invalidate(clean)
			}

			return vibemodel.ToolResult{
				Success:      true,
				Output:       fmt.Sprintf("wrote %d bytes to %s", len(content), clean),
				FilesMutated: []string{clean},
			}, nil
		},
	}
}

// listFilesArgs is the list_files parameter schema, reflected by
// tool.ArgsSchema.
type listFilesArgs struct {
	Path string `json:"path,omitempty" jsonschema:"description=Directory, relative to the workspace root"`
}

func listFilesTool(deps Deps) tool.Tool {
	return tool.Tool{
		Name:        "list_files",
		Description: "List files under a workspace-relative directory.",
		Category:    tool.CategoryFilesystem,
		Risk:        vibemodel.RiskLow,
		Parameters:  tool.ArgsSchema[listFilesArgs](),
		Handler: func(ctx context.Context, args map[string]any) (vibemodel.ToolResult, error) {
			rawPath, _ := args["path"].(string)
			if rawPath == "" {
				rawPath = "."
			}
			clean, err := deps.Sandbox.ValidatePath(rawPath)
			if err != nil {
				return vibemodel.ToolResult{Success: false, Error: err.Error()}, err
			}

			entries, err := os.ReadDir(clean)
			if err != nil {
				return vibemodel.ToolResult{Success: false, Error: err.Error()}, err
			}

			names := make([]string, 0, len(entries))
			for _, e := range entries {
				name := e.Name()
				if e.IsDir() {
					name += "/"
				}
				names = append(names, name)
			}
			sort.Strings(names)

			return vibemodel.ToolResult{Success: true, Output: strings.Join(names, "\n")}, nil
		},
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}
