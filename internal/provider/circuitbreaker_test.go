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

func TestCircuitBreakerHysteresis(t *testing.T) {
	b := NewCircuitBreaker(3, 20*time.Millisecond)

	for i := 0; i < 3; i++ {
		assert.True(t, b.Allow())
		b.RecordFailure()
	}
	assert.Equal(t, BreakerOpen, b.State())
	assert.False(t, b.Allow(), "request within reset timeout must be refused without dispatch")

	time.Sleep(25 * time.Millisecond)
	assert.True(t, b.Allow(), "first request after reset timeout dispatches exactly one probe")
	assert.False(t, b.Allow(), "a second concurrent probe must not be admitted")

	b.RecordSuccess()
	assert.Equal(t, BreakerClosed, b.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewCircuitBreaker(1, 10*time.Millisecond)
	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.Equal(t, BreakerOpen, b.State())

	time.Sleep(15 * time.Millisecond)
	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.Equal(t, BreakerOpen, b.State())
}
