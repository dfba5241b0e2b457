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

// Command vibe is the CLI for the vibe agent: plan-and-execute runs, a
// fully autonomous loop, checkpoint management, and an optional HTTP
// server exposing the same Orchestrator.
//
// Usage:
//
//	vibe run "add input validation to the signup handler"
//	vibe autonomous "migrate the config loader to yaml.v3" --max-loops 20
//	vibe checkpoint list
//	vibe server --port 8080
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/vibeagent/vibe/internal/config"
)

// CLI is the root command-line interface.
type CLI struct {
	Run         RunCmd         `cmd:"" help:"Plan a task and execute it once."`
	Autonomous  AutonomousCmd  `cmd:"" help:"Run the autonomous loop until done, stuck, or capped."`
	Checkpoint  CheckpointCmd  `cmd:"" help:"Manage file-change checkpoints."`
	ConfigCmd   ShowConfigCmd  `cmd:"" name:"config" help:"Print the resolved configuration."`
	Server      ServerCmd      `cmd:"" help:"Serve the Orchestrator over HTTP."`
	Usage       UsageCmd       `cmd:"" help:"Show per-provider usage and cost."`
	Version     VersionCmd     `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	Workspace string `short:"w" help:"Workspace root." type:"path" default:"."`
	LogLevel  string `help:"Log level (debug, info, warn, error)."`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (text or json)."`
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Run(cli *CLI) error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("vibe version %s\n", version)
	return nil
}

// loadConfig resolves the config path (CLI flag, then the default
// per-user location) and loads it, bringing in a colocated .env file.
func loadConfig(cli *CLI) (*config.Config, error) {
	path := cli.Config
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}
	return config.Load(path)
}

func main() {
	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("vibe"),
		kong.Description("vibe - an AI-assisted developer agent"),
		kong.UsageOnError(),
	)

	cleanup, err := initLogger(cli.LogLevel, cli.LogFile, cli.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	err = kctx.Run(&cli)
	kctx.FatalIfErrorf(err)
}
