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
	"sync"
	"time"
)

// BreakerState is one of the three circuit breaker states.
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half_open"
)

// CircuitBreaker is a per-provider failure gate. In closed, failures
// increment a counter; reaching FailureThreshold opens the breaker. In
// open, all requests are refused for ResetTimeout, then the breaker moves
// to half-open and admits exactly one probe; success closes it, failure
// reopens it for another ResetTimeout.
type CircuitBreaker struct {
	FailureThreshold int
	ResetTimeout     time.Duration

	mu          sync.Mutex
	state       BreakerState
	failures    int
	openedAt    time.Time
	probeInFlight bool
}

// NewCircuitBreaker builds a closed breaker with the given thresholds.
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		FailureThreshold: failureThreshold,
		ResetTimeout:     resetTimeout,
		state:            BreakerClosed,
	}
}

// Allow reports whether a request may be dispatched right now, transitioning
// open -> half-open when ResetTimeout has elapsed. It reserves the single
// half-open probe slot so concurrent callers don't all dispatch at once.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if time.Since(b.openedAt) < b.ResetTimeout {
			return false
		}
		b.state = BreakerHalfOpen
		b.probeInFlight = true
		return true
	case BreakerHalfOpen:
		if !b.probeInFlight {
			b.probeInFlight = true
			return true
		}
		return false
	}
	return false
}

// RecordSuccess closes the breaker and resets the failure counter.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
	b.failures = 0
	b.probeInFlight = false
}

// RecordFailure increments the failure counter, opening the breaker once
// FailureThreshold is reached (or immediately, if the failing request was
// the half-open probe).
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerHalfOpen {
		b.open()
		return
	}

	b.failures++
	if b.failures >= b.FailureThreshold {
		b.open()
	}
}

func (b *CircuitBreaker) open() {
	b.state = BreakerOpen
	b.openedAt = time.Now()
	b.failures = 0
	b.probeInFlight = false
}

// State returns the current breaker state, without side effects.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker back to closed; used by the administrative
// resetCircuit(id) operation.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
	b.failures = 0
	b.probeInFlight = false
}
