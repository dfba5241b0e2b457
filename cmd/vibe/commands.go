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
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/vibeagent/vibe/internal/server"
	"github.com/vibeagent/vibe/internal/vibemodel"
)

var (
	colorGreen  = color.New(color.FgGreen).SprintFunc()
	colorRed    = color.New(color.FgRed).SprintFunc()
	colorYellow = color.New(color.FgYellow).SprintFunc()
	colorCyan   = color.New(color.FgCyan).SprintFunc()
)

// RunCmd plans a task once and executes the resulting plan to completion.
type RunCmd struct {
	Task     string `arg:"" help:"Natural-language description of the task."`
	Approval string `help:"Approval mode (auto, prompt, never)." default:"prompt" enum:"auto,prompt,never"`
}

func (c *RunCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	app, err := newApp(cfg, cli.Workspace, vibemodel.ApprovalMode(c.Approval))
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	planOut := app.Planning.Execute(ctx, c.Task)
	if !planOut.Success {
		return fmt.Errorf("planning failed: %w", planOut.Error)
	}
	plan, ok := planOut.Data.(vibemodel.Plan)
	if !ok {
		return fmt.Errorf("planner returned an unexpected result type")
	}

	fmt.Printf("%s plan with %d step(s), risk %s\n", colorCyan("planned"), len(plan.Steps), plan.AggregateRisk())

	run, err := app.Orchestrator.Run(ctx, "cli-user", cli.Workspace, plan)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	printRunSummary(run)

	if summary := app.Checkpoints.DiffSummary(cli.Workspace); summary != "" {
		if _, cpErr := app.Checkpoints.CreateCheckpoint(cli.Workspace, summary); cpErr != nil {
			return fmt.Errorf("checkpoint run output: %w", cpErr)
		}
	}

	if run.Status != vibemodel.RunSuccess {
		return fmt.Errorf("run finished with status %s", run.Status)
	}
	return nil
}

func printRunSummary(run *vibemodel.Run) {
	for _, step := range run.Steps {
		label := fmt.Sprintf("[%d] %s", step.StepNumber, step.Primitive)
		switch step.Status {
		case vibemodel.StepSuccess:
			fmt.Printf("%s %s\n", colorGreen("ok"), label)
		case vibemodel.StepFailed:
			fmt.Printf("%s %s: %s\n", colorRed("fail"), label, step.Error)
		default:
			fmt.Printf("%s %s\n", colorYellow(string(step.Status)), label)
		}
	}
	fmt.Printf("run %s: %s\n", run.ID, run.Status)
}

// AutonomousCmd drives the autonomous loop until it completes, gets stuck,
// or exhausts its budget.
type AutonomousCmd struct {
	Task        string `arg:"" help:"Natural-language description of the task."`
	MaxLoops    int    `help:"Override the configured max iteration count." default:"0"`
	MaxDuration int    `name:"max-duration" help:"Override the configured max duration, in minutes." default:"0"`
	RateLimit   int    `name:"rate-limit" help:"Override the configured per-hour rate limit." default:"0"`
}

func (c *AutonomousCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	app, err := newApp(cfg, cli.Workspace, vibemodel.ApprovalAuto)
	if err != nil {
		return err
	}
	defer app.Close()

	loop := newAutonomousLoop(app, c.MaxLoops, c.MaxDuration, c.RateLimit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println(colorYellow("stopping after the current iteration..."))
		cancel()
	}()

	result, err := loop.Run(ctx, c.Task, autonomousSystemPrompt, "")
	if err != nil {
		return fmt.Errorf("autonomous loop: %w", err)
	}

	for _, it := range result.Iterations {
		fmt.Printf("[%d] confidence=%.2f stuck_hits=%d\n", it.Number, it.Analysis.Confidence, it.Analysis.StuckHitCount)
	}
	fmt.Printf("stopped: %s (cost $%.4f, %d requests)\n", result.Reason, result.Stats.CostUSD, result.Stats.Requests)
	return nil
}

const autonomousSystemPrompt = `You are the autonomous loop of a developer agent. Work the task to
completion, reporting concrete progress each iteration. State clearly when the task is done.`

// CheckpointCmd groups checkpoint management subcommands.
type CheckpointCmd struct {
	Create   CheckpointCreateCmd   `cmd:"" help:"Create a checkpoint from pending tracked changes."`
	List     CheckpointListCmd     `cmd:"" help:"List checkpoints, most recent first."`
	Rollback CheckpointRollbackCmd `cmd:"" help:"Revert the file changes recorded in a checkpoint."`
}

type CheckpointCreateCmd struct {
	Name string `arg:"" help:"Human-readable checkpoint name."`
}

func (c *CheckpointCreateCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	app, err := newApp(cfg, cli.Workspace, vibemodel.ApprovalAuto)
	if err != nil {
		return err
	}
	defer app.Close()

	cp, err := app.Checkpoints.CreateCheckpoint(cli.Workspace, c.Name)
	if err != nil {
		return fmt.Errorf("create checkpoint: %w", err)
	}
	if cp == nil {
		fmt.Println("nothing to checkpoint: no tracked changes pending")
		return nil
	}
	fmt.Printf("created checkpoint %s (%d change(s))\n", cp.ID, len(cp.Changes))
	return nil
}

type CheckpointListCmd struct{}

// Run surfaces every checkpoint across every session in this workspace.
// ListCheckpoints("") already returns the unfiltered set, which also
// doubles as this command's startup-recovery listing: a checkpoint left
// over from an interrupted run shows up here the same as any other.
func (c *CheckpointListCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	app, err := newApp(cfg, cli.Workspace, vibemodel.ApprovalAuto)
	if err != nil {
		return err
	}
	defer app.Close()

	checkpoints, err := app.Checkpoints.ListCheckpoints("")
	if err != nil {
		return fmt.Errorf("list checkpoints: %w", err)
	}
	if len(checkpoints) == 0 {
		fmt.Println("no checkpoints")
		return nil
	}
	for _, cp := range checkpoints {
		fmt.Printf("%s  %s  %s  (%d change(s))\n", cp.ID, cp.CreatedAt.Format("2006-01-02 15:04:05"), cp.Name, len(cp.Changes))
	}
	return nil
}

type CheckpointRollbackCmd struct {
	ID string `arg:"" help:"Checkpoint id to roll back."`
}

func (c *CheckpointRollbackCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	app, err := newApp(cfg, cli.Workspace, vibemodel.ApprovalAuto)
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.Checkpoints.Rollback(c.ID)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	for _, path := range result.Reverted {
		fmt.Printf("%s %s\n", colorGreen("reverted"), path)
	}
	for _, e := range result.Errors {
		fmt.Printf("%s %s\n", colorRed("failed"), e)
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("rollback completed with %d error(s)", len(result.Errors))
	}
	return nil
}

// ShowConfigCmd prints the resolved configuration as JSON.
type ShowConfigCmd struct{}

func (c *ShowConfigCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

// ServerCmd serves the Orchestrator over HTTP.
type ServerCmd struct {
	Port int `help:"Port to listen on." default:"8080"`
}

func (c *ServerCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	app, err := newApp(cfg, cli.Workspace, vibemodel.ApprovalAuto)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &server.Server{
		Orchestrator: app.Orchestrator,
		Planning:     app.Planning,
		Store:        app.Store,
		Metrics:      app.Metrics,
		Tracer:       app.Tracer,
	}

	addr := fmt.Sprintf(":%d", c.Port)
	fmt.Printf("vibe server listening on %s\n", addr)
	return http.ListenAndServe(addr, srv.Router())
}

// UsageCmd prints the cumulative per-provider usage and cost recorded by
// the Provider Router this session.
type UsageCmd struct{}

func (c *UsageCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	app, err := newApp(cfg, cli.Workspace, vibemodel.ApprovalAuto)
	if err != nil {
		return err
	}
	defer app.Close()

	totals := app.Router.Usage()
	fmt.Printf("total: %d request(s), %d token(s), $%.4f\n", totals.Requests, totals.Tokens, totals.CostUSD)
	for provider, usage := range totals.ByProvider {
		fmt.Printf("  %-12s %4d req  %6d tok  $%.4f\n", provider, usage.Requests, usage.Tokens, usage.CostUSD)
	}
	return nil
}
