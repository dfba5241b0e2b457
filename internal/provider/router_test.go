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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibeagent/vibe/internal/verr"
)

// fakeAdapter is a scripted provider.Adapter for router tests.
type fakeAdapter struct {
	id    string
	calls int
	err   error
	resp  *Response
}

func (f *fakeAdapter) ID() string           { return f.id }
func (f *fakeAdapter) DefaultModel() string { return "fake-model" }

func (f *fakeAdapter) Chat(ctx context.Context, messages []Message, opts Options) (*Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	r := *f.resp
	return &r, nil
}

func (f *fakeAdapter) Stream(ctx context.Context, messages []Message, opts Options) (<-chan StreamChunk, error) {
	return nil, verr.Newf(verr.ClassInternal, "not implemented in fake")
}

func TestRouterFailoverAtMostOnce(t *testing.T) {
	a := &fakeAdapter{id: "A", err: verr.New(verr.ClassRateLimit, assertErr("429"))}
	b := &fakeAdapter{id: "B", resp: &Response{Content: "hi", ModelID: "fake-model"}}

	r := NewRouter(DefaultPriceTable(), a, b)
	resp, attempts, err := r.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hello"}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "B", resp.ProviderID)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)

	seen := map[string]int{}
	for _, at := range attempts {
		seen[at.ProviderID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "provider %s must appear at most once in dispatch log", id)
	}
}

func TestRouterAllProvidersUnavailable(t *testing.T) {
	a := &fakeAdapter{id: "A", err: verr.New(verr.ClassNetwork, assertErr("down"))}
	r := NewRouter(DefaultPriceTable(), a)

	_, _, err := r.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hello"}}, Options{})
	require.Error(t, err)
	var unavailable *AllProvidersUnavailable
	require.ErrorAs(t, err, &unavailable)
}

func TestRouterSkipsOpenCircuit(t *testing.T) {
	a := &fakeAdapter{id: "A", err: verr.New(verr.ClassInternal, assertErr("boom"))}
	b := &fakeAdapter{id: "B", resp: &Response{Content: "ok", ModelID: "fake-model"}}
	r := NewRouter(DefaultPriceTable(), a, b)

	// Trip A's breaker via direct failures before any Chat call.
	entry := r.entries["A"]
	for i := 0; i < entry.breaker.FailureThreshold; i++ {
		entry.breaker.RecordFailure()
	}

	resp, attempts, err := r.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "B", resp.ProviderID)
	assert.Equal(t, 0, a.calls, "open breaker must skip dispatch entirely")
	assert.Equal(t, "circuit_open", attempts[0].SkipReason)
}

type stringErr string

func (e stringErr) Error() string { return string(e) }

func assertErr(s string) error { return stringErr(s) }
