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

// Package memorytool provides append/query access to a local key-value
// store keyed by content hash, backed by the Session Store's
// persistence_items table.
package memorytool

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/vibeagent/vibe/internal/tool"
	"github.com/vibeagent/vibe/internal/vibemodel"
)

// Store is the narrow persistence surface memorytool depends on; it is
// satisfied by the Session Store's persistence_items table.
type Store interface {
	Put(ctx context.Context, key, value, metadata string) error
	Get(ctx context.Context, key string) (value string, ok bool, err error)
}

// HashKey derives the content-hash key memorytool uses by default when
// the caller does not supply an explicit key.
func HashKey(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:16])
}

// memoryAppendArgs is the memory_append parameter schema, reflected by
// tool.ArgsSchema.
type memoryAppendArgs struct {
	Key      string `json:"key,omitempty" jsonschema:"description=Explicit key; defaults to a content hash of value"`
	Value    string `json:"value" jsonschema:"required,description=Value to store"`
	Metadata string `json:"metadata,omitempty" jsonschema:"description=Free-form annotation stored alongside value"`
}

// memoryQueryArgs is the memory_query parameter schema, reflected by
// tool.ArgsSchema.
type memoryQueryArgs struct {
	Key string `json:"key" jsonschema:"required,description=Key to look up"`
}

// Register adds memory_append and memory_query to registry.
func Register(registry *tool.Registry, store Store) {
	registry.Register(tool.Tool{
		Name:        "memory_append",
		Description: "Append a value to the local memory store, keyed by content hash unless a key is given.",
		Category:    tool.CategoryMemory,
		Risk:        vibemodel.RiskLow,
		Parameters:  tool.ArgsSchema[memoryAppendArgs](),
		Handler: func(ctx context.Context, args map[string]any) (vibemodel.ToolResult, error) {
			value, _ := args["value"].(string)
			key, _ := args["key"].(string)
			if key == "" {
				key = HashKey(value)
			}
			metadata, _ := args["metadata"].(string)

			if err := store.Put(ctx, key, value, metadata); err != nil {
				return vibemodel.ToolResult{Success: false, Error: err.Error()}, err
			}
			return vibemodel.ToolResult{Success: true, Output: fmt.Sprintf("stored under key %s", key)}, nil
		},
	})

	registry.Register(tool.Tool{
		Name:        "memory_query",
		Description: "Look up a previously stored value by its key.",
		Category:    tool.CategoryMemory,
		Risk:        vibemodel.RiskLow,
		Parameters:  tool.ArgsSchema[memoryQueryArgs](),
		Handler: func(ctx context.Context, args map[string]any) (vibemodel.ToolResult, error) {
			key, _ := args["key"].(string)
			value, ok, err := store.Get(ctx, key)
			if err != nil {
				return vibemodel.ToolResult{Success: false, Error: err.Error()}, err
			}
			if !ok {
				return vibemodel.ToolResult{Success: false, Error: fmt.Sprintf("no value stored under key %s", key)}, nil
			}
			return vibemodel.ToolResult{Success: true, Output: value}, nil
		},
	})
}
