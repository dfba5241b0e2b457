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

// Package adapter contains one file per provider-specific backend, each
// implementing provider.Adapter over its real ecosystem SDK where one
// exists in the retrieval pack.
package adapter

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vibeagent/vibe/internal/provider"
	"github.com/vibeagent/vibe/internal/verr"
)

// OpenAI wraps github.com/sashabaranov/go-openai as a provider.Adapter.
type OpenAI struct {
	client       *openai.Client
	defaultModel string
}

// NewOpenAI builds an OpenAI adapter. baseURL overrides the API host for
// OpenAI-compatible proxies; empty uses the default.
func NewOpenAI(apiKey, baseURL, defaultModel string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if defaultModel == "" {
		defaultModel = openai.GPT4o
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), defaultModel: defaultModel}
}

func (a *OpenAI) ID() string           { return "openai" }
func (a *OpenAI) DefaultModel() string { return a.defaultModel }

func toOpenAIMessages(messages []provider.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func classifyOpenAIErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return verr.New(verr.ClassAuthentication, err)
		case http.StatusTooManyRequests:
			return verr.New(verr.ClassRateLimit, err)
		case http.StatusPaymentRequired:
			return verr.New(verr.ClassQuota, err)
		case http.StatusNotFound:
			return verr.New(verr.ClassNotFound, err)
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return verr.New(verr.ClassValidation, err)
		default:
			if apiErr.HTTPStatusCode >= 500 {
				return verr.New(verr.ClassInternal, err)
			}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return verr.New(verr.ClassTimeout, err)
	}
	return verr.New(verr.ClassNetwork, err)
}

func (a *OpenAI) Chat(ctx context.Context, messages []provider.Message, opts provider.Options) (*provider.Response, error) {
	model := opts.Model
	if model == "" {
		model = a.defaultModel
	}
	req := openai.ChatCompletionRequest{
		Model:     model,
		Messages:  toOpenAIMessages(messages),
		MaxTokens: opts.MaxTokens,
	}
	if opts.Temperature != nil {
		req.Temperature = float32(*opts.Temperature)
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classifyOpenAIErr(err)
	}
	if len(resp.Choices) == 0 {
		return nil, verr.Newf(verr.ClassInternal, "openai: empty choices")
	}

	return &provider.Response{
		Content: resp.Choices[0].Message.Content,
		ModelID: resp.Model,
		Usage: provider.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

func (a *OpenAI) Stream(ctx context.Context, messages []provider.Message, opts provider.Options) (<-chan provider.StreamChunk, error) {
	model := opts.Model
	if model == "" {
		model = a.defaultModel
	}
	req := openai.ChatCompletionRequest{
		Model:     model,
		Messages:  toOpenAIMessages(messages),
		MaxTokens: opts.MaxTokens,
		Stream:    true,
	}
	if opts.Temperature != nil {
		req.Temperature = float32(*opts.Temperature)
	}

	stream, err := a.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, classifyOpenAIErr(err)
	}

	out := make(chan provider.StreamChunk)
	go func() {
		defer close(out)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, context.Canceled) {
				return
			}
			if err != nil {
				// io.EOF is the normal termination for go-openai streams.
				out <- provider.StreamChunk{Done: true}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			out <- provider.StreamChunk{Content: resp.Choices[0].Delta.Content}
		}
	}()
	return out, nil
}
