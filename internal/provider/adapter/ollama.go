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
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/vibeagent/vibe/internal/provider"
	"github.com/vibeagent/vibe/internal/verr"
)

// Ollama talks to a local Ollama server's /api/chat over plain net/http.
// No repo in the retrieval pack carries an official Ollama Go SDK — this is
// the one adapter with no better-grounded library option (see DESIGN.md).
type Ollama struct {
	baseURL      string
	defaultModel string
	httpClient   *http.Client
}

// NewOllama builds an Ollama adapter against a local or remote server.
func NewOllama(baseURL, defaultModel string) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if defaultModel == "" {
		defaultModel = "llama3.2"
	}
	return &Ollama{
		baseURL:      baseURL,
		defaultModel: defaultModel,
		httpClient:   &http.Client{Timeout: 300 * time.Second},
	}
}

func (a *Ollama) ID() string           { return "ollama" }
func (a *Ollama) DefaultModel() string { return a.defaultModel }

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	// Ollama reports counts in its own terms; these map directly onto
	// prompt/completion tokens for cost accounting purposes.
	PromptEvalCount int `json:"prompt_eval_count"`
	EvalCount       int `json:"eval_count"`
}

func (a *Ollama) toMessages(messages []provider.Message) []ollamaMessage {
	out := make([]ollamaMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, ollamaMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func (a *Ollama) options(opts provider.Options) map[string]any {
	o := map[string]any{}
	if opts.Temperature != nil {
		o["temperature"] = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		o["num_predict"] = opts.MaxTokens
	}
	return o
}

func classifyOllamaErr(status int, err error) error {
	if err != nil {
		if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
			return verr.New(verr.ClassTimeout, err)
		}
		return verr.New(verr.ClassNetwork, err)
	}
	switch {
	case status == http.StatusNotFound:
		return verr.Newf(verr.ClassNotFound, "ollama: model not found")
	case status >= 500:
		return verr.Newf(verr.ClassInternal, "ollama: server error %d", status)
	case status >= 400:
		return verr.Newf(verr.ClassValidation, "ollama: request rejected %d", status)
	}
	return nil
}

func (a *Ollama) Chat(ctx context.Context, messages []provider.Message, opts provider.Options) (*provider.Response, error) {
	model := opts.Model
	if model == "" {
		model = a.defaultModel
	}
	body, err := json.Marshal(ollamaChatRequest{
		Model:    model,
		Messages: a.toMessages(messages),
		Stream:   false,
		Options:  a.options(opts),
	})
	if err != nil {
		return nil, verr.New(verr.ClassValidation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, verr.New(verr.ClassInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, classifyOllamaErr(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyOllamaErr(resp.StatusCode, nil)
	}

	var cr ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, verr.New(verr.ClassInternal, err)
	}

	return &provider.Response{
		Content: cr.Message.Content,
		ModelID: cr.Model,
		Usage: provider.Usage{
			PromptTokens:     cr.PromptEvalCount,
			CompletionTokens: cr.EvalCount,
		},
	}, nil
}

func (a *Ollama) Stream(ctx context.Context, messages []provider.Message, opts provider.Options) (<-chan provider.StreamChunk, error) {
	model := opts.Model
	if model == "" {
		model = a.defaultModel
	}
	body, err := json.Marshal(ollamaChatRequest{
		Model:    model,
		Messages: a.toMessages(messages),
		Stream:   true,
		Options:  a.options(opts),
	})
	if err != nil {
		return nil, verr.New(verr.ClassValidation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, verr.New(verr.ClassInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, classifyOllamaErr(0, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, classifyOllamaErr(resp.StatusCode, nil)
	}

	out := make(chan provider.StreamChunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var cr ollamaChatResponse
			if err := json.Unmarshal(line, &cr); err != nil {
				continue
			}
			if cr.Message.Content != "" {
				out <- provider.StreamChunk{Content: cr.Message.Content}
			}
			if cr.Done {
				out <- provider.StreamChunk{Done: true, Usage: &provider.Usage{
					PromptTokens:     cr.PromptEvalCount,
					CompletionTokens: cr.EvalCount,
				}}
				return
			}
		}
		if err := scanner.Err(); err != nil && err != io.EOF {
			return
		}
		out <- provider.StreamChunk{Done: true}
	}()
	return out, nil
}
