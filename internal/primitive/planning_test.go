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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibeagent/vibe/internal/provider"
	"github.com/vibeagent/vibe/internal/vibemodel"
)

// scriptedAdapter is a fixed-response provider.Adapter for primitive tests.
type scriptedAdapter struct {
	content string
}

func (s *scriptedAdapter) ID() string           { return "scripted" }
func (s *scriptedAdapter) DefaultModel() string { return "scripted-model" }

func (s *scriptedAdapter) Chat(ctx context.Context, messages []provider.Message, opts provider.Options) (*provider.Response, error) {
	return &provider.Response{Content: s.content, ModelID: "scripted-model", ProviderID: "scripted"}, nil
}

func (s *scriptedAdapter) Stream(ctx context.Context, messages []provider.Message, opts provider.Options) (<-chan provider.StreamChunk, error) {
	ch := make(chan provider.StreamChunk)
	close(ch)
	return ch, nil
}

func TestPlanningParsesBalancedJSONAndValidatesPrimitives(t *testing.T) {
	content := `Sure, here is the plan:
{"steps": [{"description": "read the file", "primitive": "execution", "args": {"tool": "read_file"}, "risk": "low"}]}
Let me know if you need anything else.`
	router := provider.NewRouter(provider.DefaultPriceTable(), &scriptedAdapter{content: content})

	p := &Planning{Router: router, Primitives: []string{"execution", "search"}}
	out := p.Execute(context.Background(), "read the readme")
	require.True(t, out.Success, out.Error)

	plan, ok := out.Data.(vibemodel.Plan)
	require.True(t, ok)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "execution", plan.Steps[0].Primitive)
	assert.Equal(t, vibemodel.RiskLow, plan.Steps[0].Risk)
}

func TestPlanningRejectsUnregisteredPrimitive(t *testing.T) {
	content := `{"steps": [{"description": "do a thing", "primitive": "ghost", "risk": "low"}]}`
	router := provider.NewRouter(provider.DefaultPriceTable(), &scriptedAdapter{content: content})

	p := &Planning{Router: router, Primitives: []string{"execution"}}
	out := p.Execute(context.Background(), "do a thing")
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "ghost")
}

func TestPlanningErrorsWithNoJSONObject(t *testing.T) {
	router := provider.NewRouter(provider.DefaultPriceTable(), &scriptedAdapter{content: "no json here"})

	p := &Planning{Router: router, Primitives: []string{"execution"}}
	out := p.Execute(context.Background(), "do a thing")
	assert.False(t, out.Success)
}
