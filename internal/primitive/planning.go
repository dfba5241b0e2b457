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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vibeagent/vibe/internal/provider"
	"github.com/vibeagent/vibe/internal/vibemodel"
)

const planningSystemPrompt = `You are the planning stage of an autonomous developer agent.
Given a task, emit a single JSON object (and nothing else) of the shape:
{"steps": [{"description": "...", "primitive": "...", "args": {...}, "risk": "low|medium|high|critical"}]}
Each "primitive" must be one of the registered primitive names given to you.`

// Planning turns a task description into an ordered Plan by prompting the
// Provider Router for structured JSON and validating every step's
// primitive name against the registered set.
type Planning struct {
	Router     *provider.Router
	Primitives []string // registered primitive names, for step validation
}

func (p *Planning) Name() string { return "planning" }

// planStepJSON mirrors the JSON shape the model is instructed to emit.
type planStepJSON struct {
	Description string         `json:"description"`
	Primitive   string         `json:"primitive"`
	Args        map[string]any `json:"args"`
	Risk        string         `json:"risk"`
}

type planJSON struct {
	Steps []planStepJSON `json:"steps"`
}

// Execute calls the router with a structured-JSON system prompt, parses
// the first balanced JSON object out of the response, and validates every
// step's primitive name before returning the Plan.
func (p *Planning) Execute(ctx context.Context, task string) Output {
	resp, _, err := p.Router.Chat(ctx, []provider.Message{
		{Role: provider.RoleSystem, Content: planningSystemPrompt},
		{Role: provider.RoleUser, Content: task},
	}, provider.Options{})
	if err != nil {
		return Fail(fmt.Errorf("planning: router chat: %w", err))
	}

	raw, err := firstBalancedJSONObject(resp.Content)
	if err != nil {
		return Fail(fmt.Errorf("planning: %w", err))
	}

	var parsed planJSON
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Fail(fmt.Errorf("planning: decode plan: %w", err))
	}

	allowed := make(map[string]bool, len(p.Primitives))
	for _, name := range p.Primitives {
		allowed[name] = true
	}

	plan := vibemodel.Plan{}
	for _, s := range parsed.Steps {
		if !allowed[s.Primitive] {
			return Fail(fmt.Errorf("planning: unregistered primitive %q in plan step %q", s.Primitive, s.Description))
		}
		risk := vibemodel.RiskLevel(s.Risk)
		switch risk {
		case vibemodel.RiskLow, vibemodel.RiskMedium, vibemodel.RiskHigh, vibemodel.RiskCritical:
		default:
			risk = vibemodel.RiskLow
		}
		plan.Steps = append(plan.Steps, vibemodel.PlanStep{
			Description: s.Description,
			Primitive:   s.Primitive,
			Args:        s.Args,
			Risk:        risk,
		})
	}

	return Ok(plan)
}

// firstBalancedJSONObject scans text for the first `{`...`}` span whose
// braces balance, tolerating surrounding prose the model may emit despite
// instructions.
func firstBalancedJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// inside a string literal, braces don't count
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in response")
}
