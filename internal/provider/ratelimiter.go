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

// SlidingWindowLimiter is a per-provider sliding-window request throttle.
// Deny is non-blocking: callers proceed to the next fallback provider
// instead of waiting.
type SlidingWindowLimiter struct {
	MaxRequests int
	Window      time.Duration

	mu        sync.Mutex
	timestamps []time.Time
}

// NewSlidingWindowLimiter builds a limiter allowing MaxRequests per Window.
func NewSlidingWindowLimiter(maxRequests int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{MaxRequests: maxRequests, Window: window}
}

// Allow reports whether a new request may proceed and, if so, records the
// attempt. This is the "record an intent before dispatch" step from the
// router's fallback algorithm, combined into one atomic check-and-record.
func (l *SlidingWindowLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-l.Window)

	kept := l.timestamps[:0]
	for _, t := range l.timestamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.timestamps = kept

	if len(l.timestamps) >= l.MaxRequests {
		return false
	}
	l.timestamps = append(l.timestamps, now)
	return true
}

// Count returns the number of attempts recorded within the current window.
func (l *SlidingWindowLimiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	cutoff := now.Add(-l.Window)
	n := 0
	for _, t := range l.timestamps {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}
