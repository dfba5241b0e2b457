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

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vibeagent/vibe/internal/primitive"
	"github.com/vibeagent/vibe/internal/vibemodel"
)

// Bundle collects one instance of every primitive the Orchestrator can
// dispatch a plan step to. A process wires each field once at startup and
// hands the Bundle to RegisterBundle.
type Bundle struct {
	Planning    *primitive.Planning
	Completion  *primitive.Completion
	Execution   *primitive.Execution
	MultiEdit   *primitive.MultiEdit
	Approval    *primitive.Approval
	Memory      *primitive.Memory
	Determinism *primitive.Determinism
	Search      *primitive.Search
}

// RegisterBundle registers a Handler for every non-nil primitive in b,
// decoding each step's args map into the primitive's concrete input type.
func RegisterBundle(o *Orchestrator, b Bundle) {
	if b.Planning != nil {
		o.RegisterHandler(b.Planning.Name(), func(ctx context.Context, args map[string]any) primitive.Output {
			task, _ := args["task"].(string)
			return b.Planning.Execute(ctx, task)
		})
	}
	if b.Completion != nil {
		o.RegisterHandler(b.Completion.Name(), func(ctx context.Context, args map[string]any) primitive.Output {
			input, err := decodeArgs[primitive.CompletionInput](args)
			if err != nil {
				return primitive.Fail(err)
			}
			return b.Completion.Execute(ctx, input)
		})
	}
	if b.Execution != nil {
		o.RegisterHandler(b.Execution.Name(), func(ctx context.Context, args map[string]any) primitive.Output {
			input, err := decodeArgs[primitive.ExecutionInput](args)
			if err != nil {
				return primitive.Fail(err)
			}
			return b.Execution.Execute(ctx, input)
		})
	}
	if b.MultiEdit != nil {
		o.RegisterHandler(b.MultiEdit.Name(), func(ctx context.Context, args map[string]any) primitive.Output {
			input, err := decodeArgs[primitive.MultiEditInput](args)
			if err != nil {
				return primitive.Fail(err)
			}
			return b.MultiEdit.Execute(ctx, input)
		})
	}
	if b.Approval != nil {
		o.RegisterHandler(b.Approval.Name(), func(ctx context.Context, args map[string]any) primitive.Output {
			input, err := decodeArgs[approvalArgs](args)
			if err != nil {
				return primitive.Fail(err)
			}
			return b.Approval.Execute(ctx, input.Summary, input.Steps, vibemodel.RiskLevel(input.Risk))
		})
	}
	if b.Memory != nil {
		o.RegisterHandler(b.Memory.Name(), func(ctx context.Context, args map[string]any) primitive.Output {
			input, err := decodeArgs[primitive.MemoryInput](args)
			if err != nil {
				return primitive.Fail(err)
			}
			return b.Memory.Execute(ctx, input)
		})
	}
	if b.Determinism != nil {
		o.RegisterHandler(b.Determinism.Name(), func(ctx context.Context, args map[string]any) primitive.Output {
			input, err := decodeArgs[primitive.DeterminismInput](args)
			if err != nil {
				return primitive.Fail(err)
			}
			return b.Determinism.Execute(ctx, input)
		})
	}
	if b.Search != nil {
		o.RegisterHandler(b.Search.Name(), func(ctx context.Context, args map[string]any) primitive.Output {
			input, err := decodeArgs[primitive.SearchInput](args)
			if err != nil {
				return primitive.Fail(err)
			}
			return b.Search.Execute(ctx, input)
		})
	}
}

type approvalArgs struct {
	Summary string
	Steps   []string
	Risk    string
}

// decodeArgs round-trips a plan step's loosely-typed args map through JSON
// into T, the concrete input type a primitive expects.
func decodeArgs[T any](args map[string]any) (T, error) {
	var out T
	data, err := json.Marshal(args)
	if err != nil {
		return out, fmt.Errorf("orchestrator: marshal step args: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("orchestrator: decode step args: %w", err)
	}
	return out, nil
}
