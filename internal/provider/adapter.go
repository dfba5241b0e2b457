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

// Package provider implements the Provider Router: fallback dispatch across
// heterogeneous LLM backends with circuit breakers, rate limiters and cost
// accounting.
package provider

import "context"

// Role tags one message in a chat request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one role-tagged turn in a chat request.
type Message struct {
	Role    Role
	Content string
}

// Options carries the caller's per-request overrides.
type Options struct {
	Model       string
	Temperature *float64
	MaxTokens   int
	Stream      bool
}

// Usage is the token accounting for one request.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

func (u Usage) Total() int { return u.PromptTokens + u.CompletionTokens }

// Response is the canonical shape every adapter normalizes its reply into.
type Response struct {
	Content    string
	Usage      Usage
	ModelID    string
	ProviderID string
	CostUSD    float64
}

// StreamChunk is one fragment of a streamed response.
type StreamChunk struct {
	Content string
	Done    bool
	Usage   *Usage // populated on the final chunk, when the backend reports it
}

// Adapter is the uniform contract every provider-specific backend
// implements. Adapters take only their own configuration plus the values
// the router passes per-call; they hold no back-reference to the router
// (design note: cyclic references between router and adapters, resolved
// one-way).
type Adapter interface {
	ID() string
	DefaultModel() string
	Chat(ctx context.Context, messages []Message, opts Options) (*Response, error)
	Stream(ctx context.Context, messages []Message, opts Options) (<-chan StreamChunk, error)
}
