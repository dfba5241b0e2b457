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

// Package primitive implements the composable units the Orchestrator
// dispatches: Planning, Completion, Execution, Multi-Edit, Approval,
// Memory, Determinism and Search. Each exposes a uniform
// execute(input) -> {success, data?, error?} contract.
package primitive

// Output is the uniform return shape of every primitive.
type Output struct {
	Success bool
	Data    any
	Error   string
}

// Fail builds a failed Output from an error.
func Fail(err error) Output {
	if err == nil {
		return Output{Success: false}
	}
	return Output{Success: false, Error: err.Error()}
}

// Ok builds a successful Output carrying data.
func Ok(data any) Output {
	return Output{Success: true, Data: data}
}

// Primitive is implemented by every unit the Orchestrator can dispatch by
// name.
type Primitive interface {
	Name() string
}
