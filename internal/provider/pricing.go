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

import "github.com/vibeagent/vibe/internal/vibemodel"

// PriceTable maps "provider:model" to its per-million-token pricing.
type PriceTable map[string]vibemodel.ModelDescriptor

// key is the canonical lookup key for a provider/model pair.
func key(providerID, modelID string) string { return providerID + ":" + modelID }

// Cost computes input-tokens*input-rate + output-tokens*output-rate in
// per-million-token units. An unknown model is priced at zero, matching a
// free/local backend like Ollama.
func (t PriceTable) Cost(providerID, modelID string, usage Usage) float64 {
	md, ok := t[key(providerID, modelID)]
	if !ok {
		return 0
	}
	in := float64(usage.PromptTokens) / 1_000_000 * md.InputPricePerMTok
	out := float64(usage.CompletionTokens) / 1_000_000 * md.OutputPricePerMTok
	return in + out
}

// Describe returns the registered descriptor for a provider/model pair.
func (t PriceTable) Describe(providerID, modelID string) (vibemodel.ModelDescriptor, bool) {
	md, ok := t[key(providerID, modelID)]
	return md, ok
}

// Register adds or overwrites a model's pricing entry.
func (t PriceTable) Register(md vibemodel.ModelDescriptor) {
	t[key(md.ProviderID, md.ID)] = md
}

// DefaultPriceTable is the static registry of well-known models, loaded at
// process start and read-only for the process lifetime, matching the
// provider/model descriptor registries in the teacher's pkg/config/provider.
func DefaultPriceTable() PriceTable {
	t := PriceTable{}
	for _, md := range []vibemodel.ModelDescriptor{
		{ID: "gpt-4o", ProviderID: "openai", Tier: vibemodel.TierBalanced, ContextWindow: 128000, InputPricePerMTok: 2.5, OutputPricePerMTok: 10},
		{ID: "gpt-4o-mini", ProviderID: "openai", Tier: vibemodel.TierFast, ContextWindow: 128000, InputPricePerMTok: 0.15, OutputPricePerMTok: 0.6},
		{ID: "o1", ProviderID: "openai", Tier: vibemodel.TierReasoning, ContextWindow: 200000, InputPricePerMTok: 15, OutputPricePerMTok: 60},
		{ID: "claude-sonnet-4-20250514", ProviderID: "anthropic", Tier: vibemodel.TierBalanced, ContextWindow: 200000, InputPricePerMTok: 3, OutputPricePerMTok: 15},
		{ID: "claude-haiku-4-20250514", ProviderID: "anthropic", Tier: vibemodel.TierFast, ContextWindow: 200000, InputPricePerMTok: 0.8, OutputPricePerMTok: 4},
		{ID: "claude-opus-4-20250514", ProviderID: "anthropic", Tier: vibemodel.TierReasoning, ContextWindow: 200000, InputPricePerMTok: 15, OutputPricePerMTok: 75},
		{ID: "gemini-2.0-flash", ProviderID: "gemini", Tier: vibemodel.TierFast, ContextWindow: 1000000, InputPricePerMTok: 0.1, OutputPricePerMTok: 0.4},
		{ID: "gemini-2.0-pro", ProviderID: "gemini", Tier: vibemodel.TierReasoning, ContextWindow: 2000000, InputPricePerMTok: 1.25, OutputPricePerMTok: 5},
	} {
		t.Register(md)
	}
	return t
}
