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
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	// LogLevelEnvVar is the environment variable name for the log level.
	LogLevelEnvVar = "VIBE_LOG_LEVEL"
	// LogFileEnvVar is the environment variable name for the log file path.
	LogFileEnvVar = "VIBE_LOG_FILE"
	// LogFormatEnvVar is the environment variable name for the log format
	// ("text" or "json").
	LogFormatEnvVar = "VIBE_LOG_FORMAT"
)

// initLogger builds and installs the process-wide slog logger from CLI
// flags, falling back to environment variables and then defaults.
// Priority: CLI flag > env var > default.
func initLogger(cliLevel, cliFile, cliFormat string) (cleanup func(), err error) {
	level := firstNonEmpty(cliLevel, os.Getenv(LogLevelEnvVar), "info")
	file := firstNonEmpty(cliFile, os.Getenv(LogFileEnvVar), "")
	format := firstNonEmpty(cliFormat, os.Getenv(LogFormatEnvVar), "text")

	slogLevel, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	output := os.Stderr
	cleanup = func() {}
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		output = f
		cleanup = func() { _ = f.Close() }
	}

	opts := &slog.HandlerOptions{Level: slogLevel}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", s)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
