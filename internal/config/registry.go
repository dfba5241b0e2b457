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

// Package config loads process configuration: the static provider registry,
// the YAML config file, .env values and CLI-flag overrides.
package config

import "github.com/vibeagent/vibe/internal/vibemodel"

// ProviderRegistry is the static, read-only-for-process-lifetime table of
// known provider descriptors, loaded once at process start.
var ProviderRegistry = []vibemodel.ProviderDescriptor{
	{
		ID:             "openai",
		DisplayName:    "OpenAI",
		BaseURL:        "https://api.openai.com/v1",
		APIKeyEnvVar:   "OPENAI_API_KEY",
		DefaultModel:   "gpt-4o",
		RequiresAPIKey: true,
	},
	{
		ID:             "anthropic",
		DisplayName:    "Anthropic",
		BaseURL:        "https://api.anthropic.com",
		APIKeyEnvVar:   "ANTHROPIC_API_KEY",
		DefaultModel:   "claude-sonnet-4-20250514",
		RequiresAPIKey: true,
	},
	{
		ID:             "gemini",
		DisplayName:    "Google Gemini",
		BaseURL:        "https://generativelanguage.googleapis.com",
		APIKeyEnvVar:   "GEMINI_API_KEY",
		DefaultModel:   "gemini-2.0-flash",
		RequiresAPIKey: true,
	},
	{
		ID:             "ollama",
		DisplayName:    "Ollama (local)",
		BaseURL:        "http://localhost:11434",
		APIKeyEnvVar:   "",
		DefaultModel:   "llama3.2",
		RequiresAPIKey: false,
	},
}

// Provider looks up a descriptor by id.
func Provider(id string) (vibemodel.ProviderDescriptor, bool) {
	for _, p := range ProviderRegistry {
		if p.ID == id {
			return p, true
		}
	}
	return vibemodel.ProviderDescriptor{}, false
}
