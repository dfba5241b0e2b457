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
)

func TestCompletionReturnsNormalizedResponse(t *testing.T) {
	router := provider.NewRouter(provider.DefaultPriceTable(), &scriptedAdapter{content: "hello there"})

	c := &Completion{Router: router}
	out := c.Execute(context.Background(), CompletionInput{Prompt: "say hi"})
	require.True(t, out.Success, out.Error)

	result, ok := out.Data.(CompletionResult)
	require.True(t, ok)
	assert.Equal(t, "hello there", result.Content)
	assert.Equal(t, "scripted", result.ProviderID)
}
