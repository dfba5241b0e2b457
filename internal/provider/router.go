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
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/vibeagent/vibe/internal/observability"
	"github.com/vibeagent/vibe/internal/verr"
)

// AllProvidersUnavailable is returned by Chat/Stream when every provider in
// the fallback order was skipped or failed.
type AllProvidersUnavailable struct {
	Attempts []DispatchAttempt
	LastErr  error
}

func (e *AllProvidersUnavailable) Error() string {
	return "all providers unavailable: " + e.LastErr.Error()
}

func (e *AllProvidersUnavailable) Unwrap() error { return e.LastErr }

// DispatchAttempt records one provider's outcome during a single Chat/Stream
// call, for the at-most-once-per-provider invariant and diagnostics.
type DispatchAttempt struct {
	ProviderID string
	Skipped    bool
	SkipReason string
	Err        error
}

// ProviderUsage is the per-provider usage/cost breakdown.
type ProviderUsage struct {
	Requests int
	Tokens   int
	CostUSD  float64
}

// Totals is the cumulative usage returned by Router.Usage().
type Totals struct {
	Requests  int
	Tokens    int
	CostUSD   float64
	ByProvider map[string]ProviderUsage
}

type providerEntry struct {
	adapter Adapter
	breaker *CircuitBreaker
	limiter *SlidingWindowLimiter
}

// Router dispatches chat/stream requests across providers in fallback
// order, applying circuit breakers and rate limiters, and accounts cost via
// the price table.
type Router struct {
	FallbackOrder  []string
	DefaultModel   map[string]string // providerID -> default model override
	Prices         PriceTable
	RequestTimeout time.Duration
	StreamTimeout  time.Duration
	Metrics        *observability.Metrics
	Tracer         *observability.Tracer

	mu      sync.Mutex
	entries map[string]*providerEntry
	totals  Totals
	history []Response
	current string
}

// NewRouter builds a Router over the given adapters, with FallbackOrder
// set to their registration order.
func NewRouter(prices PriceTable, adapters ...Adapter) *Router {
	r := &Router{
		Prices:         prices,
		RequestTimeout: 30 * time.Second,
		StreamTimeout:  120 * time.Second,
		entries:        make(map[string]*providerEntry),
		totals:         Totals{ByProvider: make(map[string]ProviderUsage)},
	}
	for _, a := range adapters {
		r.entries[a.ID()] = &providerEntry{
			adapter: a,
			breaker: NewCircuitBreaker(5, 30*time.Second),
			limiter: NewSlidingWindowLimiter(60, time.Minute),
		}
		r.FallbackOrder = append(r.FallbackOrder, a.ID())
	}
	return r
}

// ListProviders returns every registered provider id.
func (r *Router) ListProviders() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// IsConfigured reports whether a provider is registered on this router.
func (r *Router) IsConfigured(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// CurrentProvider returns the id of the last provider that served a
// successful request.
func (r *Router) CurrentProvider() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// ResetCircuit is the administrative reset for one provider's breaker.
func (r *Router) ResetCircuit(id string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()
	if ok {
		e.breaker.Reset()
	}
}

// Usage returns the cumulative totals and per-provider breakdown.
func (r *Router) Usage() Totals {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := Totals{Requests: r.totals.Requests, Tokens: r.totals.Tokens, CostUSD: r.totals.CostUSD, ByProvider: make(map[string]ProviderUsage, len(r.totals.ByProvider))}
	for k, v := range r.totals.ByProvider {
		cp.ByProvider[k] = v
	}
	return cp
}

func (r *Router) fallbackList() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.FallbackOrder))
	copy(out, r.FallbackOrder)
	return out
}

func (r *Router) resolveModel(id string, opts Options) Options {
	if opts.Model != "" {
		return opts
	}
	if dm, ok := r.DefaultModel[id]; ok && dm != "" {
		opts.Model = dm
		return opts
	}
	if e, ok := r.entries[id]; ok {
		opts.Model = e.adapter.DefaultModel()
	}
	return opts
}

// Chat performs a non-streaming completion, returning the first successful
// provider's result. Each provider id appears at most once in the dispatch
// attempt log regardless of failure mode — the at-most-once guarantee.
func (r *Router) Chat(ctx context.Context, messages []Message, opts Options) (*Response, []DispatchAttempt, error) {
	order := r.fallbackList()
	attempts := make([]DispatchAttempt, 0, len(order))
	var lastErr error

	for idx, id := range order {
		r.mu.Lock()
		e, ok := r.entries[id]
		r.mu.Unlock()
		if !ok {
			continue
		}

		if idx > 0 && len(attempts) > 0 {
			r.Metrics.RecordRouterFallback(attempts[len(attempts)-1].ProviderID, id)
		}

		if !e.breaker.Allow() {
			attempts = append(attempts, DispatchAttempt{ProviderID: id, Skipped: true, SkipReason: "circuit_open"})
			continue
		}
		if !e.limiter.Allow() {
			attempts = append(attempts, DispatchAttempt{ProviderID: id, Skipped: true, SkipReason: "rate_limited"})
			continue
		}

		reqOpts := r.resolveModel(id, opts)
		reqCtx, cancel := context.WithTimeout(ctx, r.RequestTimeout)

		dispatchCtx := reqCtx
		var span trace.Span
		if r.Tracer != nil {
			dispatchCtx, span = r.Tracer.StartRouterDispatch(reqCtx, id, reqOpts.Model)
		}
		dispatchStart := time.Now()
		resp, err := e.adapter.Chat(dispatchCtx, messages, reqOpts)
		cancel()

		if err != nil {
			e.breaker.RecordFailure()
			attempts = append(attempts, DispatchAttempt{ProviderID: id, Err: err})
			lastErr = err
			slog.Warn("provider dispatch failed", "provider", id, "class", verr.ClassOf(err), "error", err)
			r.Metrics.RecordRouterError(id, string(verr.ClassOf(err)))
			if span != nil {
				observability.RecordError(span, err)
				span.End()
			}
			continue
		}

		e.breaker.RecordSuccess()
		resp.ProviderID = id
		resp.CostUSD = r.Prices.Cost(id, resp.ModelID, resp.Usage)
		r.recordUsage(id, resp)
		attempts = append(attempts, DispatchAttempt{ProviderID: id})
		if span != nil {
			observability.AddCost(span, resp.CostUSD)
			observability.AddTokens(span, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
			span.End()
		}
		r.Metrics.RecordRouterDispatch(id, resp.ModelID, time.Since(dispatchStart), resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.CostUSD)
		return resp, attempts, nil
	}

	if lastErr == nil {
		lastErr = verr.Newf(verr.ClassInternal, "no providers configured")
	}
	return nil, attempts, &AllProvidersUnavailable{Attempts: attempts, LastErr: lastErr}
}

func (r *Router) recordUsage(id string, resp *Response) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = id
	r.totals.Requests++
	r.totals.Tokens += resp.Usage.Total()
	r.totals.CostUSD += resp.CostUSD
	pu := r.totals.ByProvider[id]
	pu.Requests++
	pu.Tokens += resp.Usage.Total()
	pu.CostUSD += resp.CostUSD
	r.totals.ByProvider[id] = pu
	r.history = append(r.history, *resp)
}

// StreamTruncated is the classified error for a provider stream that ends
// before its termination sentinel. Stream does not return or send it: a
// truncated stream closes its channel without a Done chunk, and the
// provider's circuit breaker records a failure.
var StreamTruncated = verr.Newf(verr.ClassInternal, "stream truncated before completion")

// Stream yields content fragments from the first available provider.
// Cancellation of ctx aborts the underlying transport promptly.
func (r *Router) Stream(ctx context.Context, messages []Message, opts Options) (<-chan StreamChunk, string, error) {
	order := r.fallbackList()
	var lastErr error

	for _, id := range order {
		r.mu.Lock()
		e, ok := r.entries[id]
		r.mu.Unlock()
		if !ok {
			continue
		}
		if !e.breaker.Allow() || !e.limiter.Allow() {
			continue
		}

		reqOpts := r.resolveModel(id, opts)
		streamCtx, cancel := context.WithTimeout(ctx, r.StreamTimeout)
		ch, err := e.adapter.Stream(streamCtx, messages, reqOpts)
		if err != nil {
			cancel()
			e.breaker.RecordFailure()
			r.Metrics.RecordRouterError(id, string(verr.ClassOf(err)))
			lastErr = err
			continue
		}

		out := make(chan StreamChunk)
		go func() {
			defer cancel()
			defer close(out)
			ok := false
			for chunk := range ch {
				select {
				case out <- chunk:
				case <-ctx.Done():
					return
				}
				if chunk.Done {
					ok = true
				}
			}
			if ok {
				e.breaker.RecordSuccess()
			} else {
				e.breaker.RecordFailure()
			}
		}()
		return out, id, nil
	}

	if lastErr == nil {
		lastErr = verr.Newf(verr.ClassInternal, "no providers configured")
	}
	return nil, "", &AllProvidersUnavailable{LastErr: lastErr}
}

// IntentTier guesses the model tier a free-form task description implies,
// via the keyword heuristic from the design: "reason"/"think"/"plan" ->
// reasoning, "fast"/"quick" -> fast, code-related -> balanced.
func IntentTier(task string) string {
	t := strings.ToLower(task)
	switch {
	case strings.Contains(t, "reason") || strings.Contains(t, "think") || strings.Contains(t, "plan"):
		return "reasoning"
	case strings.Contains(t, "fast") || strings.Contains(t, "quick"):
		return "fast"
	case strings.Contains(t, "code") || strings.Contains(t, "function") || strings.Contains(t, "refactor"):
		return "balanced"
	default:
		return "balanced"
	}
}
