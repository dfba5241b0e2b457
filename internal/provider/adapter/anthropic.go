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
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/vibeagent/vibe/internal/provider"
	"github.com/vibeagent/vibe/internal/verr"
)

// Anthropic wraps github.com/anthropics/anthropic-sdk-go as a provider.Adapter.
type Anthropic struct {
	client       anthropic.Client
	defaultModel string
}

// NewAnthropic builds an Anthropic adapter.
func NewAnthropic(apiKey, baseURL, defaultModel string) *Anthropic {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if defaultModel == "" {
		defaultModel = "claude-sonnet-4-20250514"
	}
	return &Anthropic{client: anthropic.NewClient(opts...), defaultModel: defaultModel}
}

func (a *Anthropic) ID() string           { return "anthropic" }
func (a *Anthropic) DefaultModel() string { return a.defaultModel }

func toAnthropicMessages(messages []provider.Message) ([]anthropic.MessageParam, string) {
	var system string
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case provider.RoleSystem:
			system += m.Content + "\n"
		case provider.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out, system
}

func classifyAnthropicErr(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 401, 403:
			return verr.New(verr.ClassAuthentication, err)
		case 429:
			return verr.New(verr.ClassRateLimit, err)
		case 402:
			return verr.New(verr.ClassQuota, err)
		case 404:
			return verr.New(verr.ClassNotFound, err)
		case 400, 422:
			return verr.New(verr.ClassValidation, err)
		default:
			if apiErr.StatusCode >= 500 {
				return verr.New(verr.ClassInternal, err)
			}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return verr.New(verr.ClassTimeout, err)
	}
	return verr.New(verr.ClassNetwork, err)
}

func (a *Anthropic) Chat(ctx context.Context, messages []provider.Message, opts provider.Options) (*provider.Response, error) {
	model := opts.Model
	if model == "" {
		model = a.defaultModel
	}
	maxTokens := int64(opts.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4096
	}
	msgs, system := toAnthropicMessages(messages)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyAnthropicErr(err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return &provider.Response{
		Content: text,
		ModelID: string(resp.Model),
		Usage: provider.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}

func (a *Anthropic) Stream(ctx context.Context, messages []provider.Message, opts provider.Options) (<-chan provider.StreamChunk, error) {
	model := opts.Model
	if model == "" {
		model = a.defaultModel
	}
	maxTokens := int64(opts.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4096
	}
	msgs, system := toAnthropicMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	str := a.client.Messages.NewStreaming(ctx, params)
	out := make(chan provider.StreamChunk)
	go func() {
		defer close(out)
		for str.Next() {
			event := str.Current()
			if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
				if delta.Delta.Text != "" {
					out <- provider.StreamChunk{Content: delta.Delta.Text}
				}
			}
		}
		if err := str.Err(); err != nil {
			return
		}
		out <- provider.StreamChunk{Done: true}
	}()
	return out, nil
}
