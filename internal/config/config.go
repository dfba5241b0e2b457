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

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the per-user/per-workspace configuration persisted as JSON/YAML
// at ~/.vibe/config.yaml or a workspace-local override.
type Config struct {
	DefaultProvider string            `yaml:"default_provider"`
	Fallbacks       []string          `yaml:"fallbacks"`
	Models          map[string]string `yaml:"models"` // providerID -> model override
	LogLevel        string            `yaml:"log_level"`
	LogFile         string            `yaml:"log_file"`
	LogFormat       string            `yaml:"log_format"`
	TelemetryOptOut bool              `yaml:"telemetry_opt_out"`

	Autonomous AutonomousConfig `yaml:"autonomous"`
}

// AutonomousConfig mirrors the Autonomous Loop's configuration surface.
type AutonomousConfig struct {
	MaxIterations        int     `yaml:"max_iterations"`
	MaxDurationMinutes    int     `yaml:"max_duration_minutes"`
	RateLimitPerHour      int     `yaml:"rate_limit_per_hour"`
	ConfidenceThreshold   float64 `yaml:"confidence_threshold"`
	StuckThreshold        int     `yaml:"stuck_threshold"`
	EnableCircuitBreaker  bool    `yaml:"enable_circuit_breaker"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		DefaultProvider: "anthropic",
		Fallbacks:       []string{"openai", "gemini", "ollama"},
		Models:          map[string]string{},
		LogLevel:        "info",
		LogFormat:       "text",
		Autonomous: AutonomousConfig{
			MaxIterations:       100,
			MaxDurationMinutes:  60,
			RateLimitPerHour:    100,
			ConfidenceThreshold: 0.7,
			StuckThreshold:      3,
			EnableCircuitBreaker: true,
		},
	}
}

// Load reads a YAML config file, falling back to defaults for any field the
// file doesn't set, and loads a colocated .env file (if present) into the
// process environment (teacher: v2/config/dotenv.go).
func Load(path string) (*Config, error) {
	cfg := Default()

	envPath := filepath.Join(filepath.Dir(path), ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config back to disk as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// DefaultPath returns ~/.vibe/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".vibe", "config.yaml")
}
