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

	"github.com/vibeagent/vibe/internal/tool/memorytool"
)

// MemoryInput is a single append or query against the local memory store.
type MemoryInput struct {
	Op       string // "append" or "query"
	Key      string // optional on append; derived from Value's content hash if empty
	Value    string
	Metadata string
}

// Memory is a direct wrapper over the Session Store's key-value surface,
// exposed as a primitive so the Orchestrator can dispatch memory
// operations as ordinary plan steps.
type Memory struct {
	Store memorytool.Store
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Execute(ctx context.Context, input MemoryInput) Output {
	switch input.Op {
	case "append":
		key := input.Key
		if key == "" {
			key = memorytool.HashKey(input.Value)
		}
		if err := m.Store.Put(ctx, key, input.Value, input.Metadata); err != nil {
			return Fail(fmt.Errorf("memory: append: %w", err))
		}
		return Ok(map[string]string{"key": key})
	case "query":
		value, ok, err := m.Store.Get(ctx, input.Key)
		if err != nil {
			return Fail(fmt.Errorf("memory: query: %w", err))
		}
		if !ok {
			return Fail(fmt.Errorf("memory: no value stored under key %q", input.Key))
		}
		return Ok(value)
	default:
		return Fail(fmt.Errorf("memory: unknown op %q", input.Op))
	}
}
