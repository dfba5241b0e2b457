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

// Package tool is the Tool Registry & Sandbox: named side-effecting
// capabilities classified by risk and category, executed through a
// validate -> policy-check -> run state machine.
package tool

import (
	"context"

	"github.com/vibeagent/vibe/internal/vibemodel"
)

// Category groups tools by the kind of side effect they perform.
type Category string

const (
	CategoryFilesystem Category = "filesystem"
	CategoryShell       Category = "shell"
	CategorySearch      Category = "search"
	CategoryMemory      Category = "memory"
	CategoryNetwork     Category = "network"
)

// Handler performs the tool's actual work. ctx carries cancellation; args
// is the validated argument map.
type Handler func(ctx context.Context, args map[string]any) (vibemodel.ToolResult, error)

// Tool is one named, side-effecting capability registered with a Registry.
type Tool struct {
	Name              string
	Description       string
	Category          Category
	Risk              vibemodel.RiskLevel
	RequiresApproval  bool
	Parameters        map[string]any // schema built by ArgsSchema[Args]()
	Handler           Handler
}

// Validate checks args against the tool's required parameters before
// dispatch. It does not perform full JSON-schema validation — only the
// presence of fields listed under "required" in Parameters.
func (t Tool) Validate(args map[string]any) error {
	for _, name := range requiredFields(t.Parameters) {
		if _, ok := args[name]; !ok {
			return &ValidationError{Tool: t.Name, Field: name}
		}
	}
	return nil
}

// requiredFields extracts the "required" field names from a schema built
// by ArgsSchema. The schema round-trips through encoding/json, so the
// list decodes as []any holding strings, not []string.
func requiredFields(parameters map[string]any) []string {
	raw, _ := parameters["required"].([]any)
	names := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			names = append(names, s)
		}
	}
	return names
}

// ValidationError reports a missing required argument.
type ValidationError struct {
	Tool  string
	Field string
}

func (e *ValidationError) Error() string {
	return "tool " + e.Tool + ": missing required argument " + e.Field
}
