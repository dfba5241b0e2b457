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

func TestReviewerExplainsFailedStep(t *testing.T) {
	router := provider.NewRouter(provider.DefaultPriceTable(), &scriptedAdapter{content: "the command timed out before completion"})

	r := &Reviewer{Router: router}
	out := r.Execute(context.Background(), ReviewInput{
		Task:     "run the test suite",
		Success:  false,
		ErrorMsg: "context deadline exceeded",
	})
	require.True(t, out.Success, out.Error)

	result := out.Data.(ReviewResult)
	assert.False(t, result.Verified)
	assert.Contains(t, result.Explanation, "timed out")
}
