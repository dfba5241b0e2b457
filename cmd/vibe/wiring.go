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

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vibeagent/vibe/internal/autonomous"
	"github.com/vibeagent/vibe/internal/checkpoint"
	"github.com/vibeagent/vibe/internal/config"
	"github.com/vibeagent/vibe/internal/contextmgr"
	"github.com/vibeagent/vibe/internal/observability"
	"github.com/vibeagent/vibe/internal/orchestrator"
	"github.com/vibeagent/vibe/internal/primitive"
	"github.com/vibeagent/vibe/internal/provider"
	"github.com/vibeagent/vibe/internal/provider/adapter"
	"github.com/vibeagent/vibe/internal/session"
	"github.com/vibeagent/vibe/internal/tool"
	"github.com/vibeagent/vibe/internal/tool/commandtool"
	"github.com/vibeagent/vibe/internal/tool/filetool"
	"github.com/vibeagent/vibe/internal/tool/memorytool"
	"github.com/vibeagent/vibe/internal/tool/searchtool"
	"github.com/vibeagent/vibe/internal/vibemodel"
)

// App is every long-lived collaborator a subcommand needs, wired once at
// startup from config, the environment and the workspace path.
type App struct {
	Config       *config.Config
	Workspace    string
	VibeDir      string
	Router       *provider.Router
	Registry     *tool.Registry
	Sandbox      *tool.Sandbox
	Checkpoints  *checkpoint.Store
	Context      *contextmgr.Manager
	Store        *session.Store
	Orchestrator *orchestrator.Orchestrator
	Planning     *primitive.Planning
	Approval     *primitive.Approval
	Metrics      *observability.Metrics
	Tracer       *observability.Tracer
}

// newApp wires the shared collaborators for one process invocation against
// workspace. approvalMode governs how the Approval primitive resolves risky
// steps for this invocation.
func newApp(cfg *config.Config, workspace string, approvalMode vibemodel.ApprovalMode) (*App, error) {
	vibeDir := filepath.Join(workspace, ".vibe")
	if err := os.MkdirAll(vibeDir, 0o755); err != nil {
		return nil, fmt.Errorf("create .vibe dir: %w", err)
	}

	router, err := buildRouter(cfg)
	if err != nil {
		return nil, fmt.Errorf("build provider router: %w", err)
	}

	store, err := session.Open(session.DialectSQLite, filepath.Join(vibeDir, "vibe.db"))
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	checkpoints, err := checkpoint.NewStore(filepath.Join(vibeDir, "checkpoints"))
	if err != nil {
		return nil, fmt.Errorf("open checkpoint store: %w", err)
	}

	sandbox := tool.NewSandbox(workspace)
	ctxMgr := contextmgr.NewManager(workspace)

	metrics := observability.NewMetrics(&observability.MetricsConfig{Enabled: !cfg.TelemetryOptOut})
	tracer, err := observability.NewTracer(&observability.TracerConfig{Enabled: !cfg.TelemetryOptOut, ServiceName: "vibe-agent"})
	if err != nil {
		return nil, fmt.Errorf("build tracer: %w", err)
	}
	router.Metrics = metrics
	router.Tracer = tracer

	registry := tool.NewRegistry()
	registry.Metrics = metrics
	filetool.Register(registry, filetool.Deps{Sandbox: sandbox, Checkpoint: checkpoints, Context: ctxMgr, SessionID: workspace})
	searchtool.Register(registry, workspace)
	memorytool.Register(registry, store)
	commandtool.Register(registry, commandtool.Config{Sandbox: sandbox, Timeout: commandtool.DefaultTimeout})

	approval := &primitive.Approval{Mode: approvalMode}
	planning := &primitive.Planning{
		Router:     router,
		Primitives: []string{"completion", "execution", "multi_edit", "approval", "memory", "determinism", "search"},
	}
	reviewer := &primitive.Reviewer{Router: router}
	determinism := &primitive.Determinism{Mode: primitive.ModeRecord, Log: primitive.NewLog(nil)}

	o := orchestrator.New(store, reviewer)
	o.Metrics = metrics
	o.Tracer = tracer
	orchestrator.RegisterBundle(o, orchestrator.Bundle{
		Completion:  &primitive.Completion{Router: router},
		Execution:   &primitive.Execution{Registry: registry, Approver: approval},
		MultiEdit:   &primitive.MultiEdit{Registry: registry, Approver: approval},
		Approval:    approval,
		Memory:      &primitive.Memory{Store: store},
		Determinism: determinism,
		Search:      &primitive.Search{WorkspaceRoot: workspace},
	})

	return &App{
		Config:       cfg,
		Workspace:    workspace,
		VibeDir:      vibeDir,
		Router:       router,
		Registry:     registry,
		Sandbox:      sandbox,
		Checkpoints:  checkpoints,
		Context:      ctxMgr,
		Store:        store,
		Orchestrator: o,
		Planning:     planning,
		Approval:     approval,
		Metrics:      metrics,
		Tracer:       tracer,
	}, nil
}

// Close releases every resource newApp opened.
func (a *App) Close() error {
	var errs []error
	if err := a.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.Context.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.Tracer.Shutdown(context.Background()); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close app: %v", errs)
	}
	return nil
}

// buildRouter registers one adapter per provider whose API key is present
// in the environment (Ollama, which needs none, is always registered), in
// the config's declared fallback order.
func buildRouter(cfg *config.Config) (*provider.Router, error) {
	order := append([]string{cfg.DefaultProvider}, cfg.Fallbacks...)

	var adapters []provider.Adapter
	seen := map[string]bool{}
	for _, id := range order {
		if seen[id] {
			continue
		}
		seen[id] = true

		desc, ok := config.Provider(id)
		if !ok {
			continue
		}
		model := desc.DefaultModel
		if m, ok := cfg.Models[id]; ok {
			model = m
		}

		apiKey := ""
		if desc.APIKeyEnvVar != "" {
			apiKey = os.Getenv(desc.APIKeyEnvVar)
			if apiKey == "" {
				continue
			}
		}

		a, err := buildAdapter(desc.ID, apiKey, desc.BaseURL, model)
		if err != nil {
			return nil, fmt.Errorf("build %s adapter: %w", desc.ID, err)
		}
		if a != nil {
			adapters = append(adapters, a)
		}
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("no provider is configured: set an API key env var or run Ollama locally")
	}
	return provider.NewRouter(provider.DefaultPriceTable(), adapters...), nil
}

func buildAdapter(id, apiKey, baseURL, model string) (provider.Adapter, error) {
	switch id {
	case "openai":
		return adapter.NewOpenAI(apiKey, baseURL, model), nil
	case "anthropic":
		return adapter.NewAnthropic(apiKey, baseURL, model), nil
	case "gemini":
		return adapter.NewGemini(context.Background(), apiKey, model)
	case "ollama":
		return adapter.NewOllama(baseURL, model), nil
	default:
		return adapter.NewGeneric(id, apiKey, baseURL, model), nil
	}
}

// newAutonomousLoop builds an Autonomous Loop over a's Router, seeded from
// the process config with any per-invocation overrides applied.
func newAutonomousLoop(a *App, maxIterations, maxDurationMinutes, rateLimitPerHour int) *autonomous.Loop {
	cfg := autonomous.DefaultConfig()
	cfg.MaxIterations = a.Config.Autonomous.MaxIterations
	cfg.MaxDuration = time.Duration(a.Config.Autonomous.MaxDurationMinutes) * time.Minute
	cfg.RateLimitPerHour = a.Config.Autonomous.RateLimitPerHour
	cfg.ConfidenceThreshold = a.Config.Autonomous.ConfidenceThreshold
	cfg.StuckThreshold = a.Config.Autonomous.StuckThreshold
	cfg.EnableCircuitBreaker = a.Config.Autonomous.EnableCircuitBreaker

	if maxIterations > 0 {
		cfg.MaxIterations = maxIterations
	}
	if maxDurationMinutes > 0 {
		cfg.MaxDuration = time.Duration(maxDurationMinutes) * time.Minute
	}
	if rateLimitPerHour > 0 {
		cfg.RateLimitPerHour = rateLimitPerHour
	}
	loop := autonomous.New(cfg, &primitive.Completion{Router: a.Router})
	loop.Metrics = a.Metrics
	loop.Tracer = a.Tracer
	return loop
}
