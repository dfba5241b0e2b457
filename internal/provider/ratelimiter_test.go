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

package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlidingWindowLimiterMonotonicity(t *testing.T) {
	l := NewSlidingWindowLimiter(3, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow())
	}
	assert.False(t, l.Allow(), "fourth attempt within the window must be denied")
	assert.LessOrEqual(t, l.Count(), 3)

	time.Sleep(60 * time.Millisecond)
	assert.True(t, l.Allow(), "window has rolled over, a new attempt is allowed")
}
