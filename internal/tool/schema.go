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

package tool

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// ArgsSchema generates a Tool's Parameters schema from T's exported
// fields, using the same tags as the rest of the ecosystem:
//
//   - json:"name" / json:",omitempty" - parameter name, optional-ness
//   - jsonschema:"required" - explicitly mark a field required
//   - jsonschema:"description=..." - parameter description
//
// The result is the {type, properties, required} shape Validate and the
// Planner expect, not a full draft-2020-12 document.
func ArgsSchema[T any]() map[string]any {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(T))

	data, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("tool: marshal args schema: %v", err))
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		panic(fmt.Sprintf("tool: unmarshal args schema: %v", err))
	}

	result := map[string]any{"type": "object"}
	if props, ok := raw["properties"]; ok {
		result["properties"] = props
	}
	if required, ok := raw["required"]; ok {
		result["required"] = required
	}
	return result
}
