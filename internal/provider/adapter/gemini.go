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

package adapter

import (
	"context"

	"google.golang.org/genai"

	"github.com/vibeagent/vibe/internal/provider"
	"github.com/vibeagent/vibe/internal/verr"
)

// Gemini wraps google.golang.org/genai as a provider.Adapter.
type Gemini struct {
	client       *genai.Client
	defaultModel string
}

// NewGemini builds a Gemini adapter, constructed eagerly so that Chat/Stream
// never need a background context for setup.
func NewGemini(ctx context.Context, apiKey, defaultModel string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, verr.New(verr.ClassInternal, err)
	}
	if defaultModel == "" {
		defaultModel = "gemini-2.0-flash"
	}
	return &Gemini{client: client, defaultModel: defaultModel}, nil
}

func (a *Gemini) ID() string           { return "gemini" }
func (a *Gemini) DefaultModel() string { return a.defaultModel }

func toGeminiContents(messages []provider.Message) ([]*genai.Content, string) {
	var system string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		if m.Role == provider.RoleSystem {
			system += m.Content + "\n"
			continue
		}
		role := "user"
		if m.Role == provider.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{genai.NewPartFromText(m.Content)},
		})
	}
	return contents, system
}

func classifyGeminiErr(err error) error {
	if err == context.DeadlineExceeded {
		return verr.New(verr.ClassTimeout, err)
	}
	return verr.New(verr.ClassNetwork, err)
}

func (a *Gemini) genConfig(opts provider.Options, system string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.Temperature != nil {
		t := float32(*opts.Temperature)
		cfg.Temperature = &t
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(system)}}
	}
	return cfg
}

func (a *Gemini) Chat(ctx context.Context, messages []provider.Message, opts provider.Options) (*provider.Response, error) {
	model := opts.Model
	if model == "" {
		model = a.defaultModel
	}
	contents, system := toGeminiContents(messages)

	resp, err := a.client.Models.GenerateContent(ctx, model, contents, a.genConfig(opts, system))
	if err != nil {
		return nil, classifyGeminiErr(err)
	}

	out := &provider.Response{ModelID: model}
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, p := range resp.Candidates[0].Content.Parts {
			out.Content += p.Text
		}
	}
	if resp.UsageMetadata != nil {
		out.Usage = provider.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}

func (a *Gemini) Stream(ctx context.Context, messages []provider.Message, opts provider.Options) (<-chan provider.StreamChunk, error) {
	model := opts.Model
	if model == "" {
		model = a.defaultModel
	}
	contents, system := toGeminiContents(messages)

	out := make(chan provider.StreamChunk)
	go func() {
		defer close(out)
		for resp, err := range a.client.Models.GenerateContentStream(ctx, model, contents, a.genConfig(opts, system)) {
			if err != nil {
				return
			}
			if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
				for _, p := range resp.Candidates[0].Content.Parts {
					if p.Text != "" {
						out <- provider.StreamChunk{Content: p.Text}
					}
				}
			}
		}
		out <- provider.StreamChunk{Done: true}
	}()
	return out, nil
}
