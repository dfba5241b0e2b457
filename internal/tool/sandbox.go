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

package tool

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultDeniedCommands blocks destructive or privilege-escalating shell
// builtins regardless of any caller-supplied allow list.
var DefaultDeniedCommands = []string{
	"rm", "rmdir", "sudo", "su", "chmod", "chown",
	"dd", "mkfs", "fdisk", "mount", "umount",
	"kill", "killall", "pkill", "reboot", "shutdown",
	"passwd", "useradd", "userdel", "groupadd",
}

// DefaultDeniedPatterns blocks whole-command shapes that are dangerous
// even when the base command looks benign.
var DefaultDeniedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`rm\s+(-rf|-fr|--recursive)`),
	regexp.MustCompile(`>\s*/dev/`),
	regexp.MustCompile(`:\(\)\s*\{\s*:\|:\s*&\s*\}\s*;`),
	regexp.MustCompile(`wget.*\|\s*sh`),
	regexp.MustCompile(`curl.*\|\s*sh`),
	regexp.MustCompile(`eval\s*\$`),
	regexp.MustCompile(`\$\(.*\)\s*>\s*/`),
	regexp.MustCompile(`>\s*/etc/`),
	regexp.MustCompile(`chmod\s+777`),
	regexp.MustCompile(`--no-preserve-root`),
}

// DefaultDeniedPathPrefixes blocks filesystem tools from touching paths
// outside the workspace or inside sensitive system directories.
var DefaultDeniedPathPrefixes = []string{
	"/etc", "/proc", "/sys", "/dev", "/boot", "/root/.ssh",
}

// Sandbox enforces the shell/path policy shared by commandtool and
// filetool: a command or path blocklist plus traversal detection.
type Sandbox struct {
	WorkspaceRoot    string
	DeniedCommands   map[string]bool
	AllowedCommands  map[string]bool
	DenyByDefault    bool
	DeniedPatterns   []*regexp.Regexp
	DeniedPathPrefix []string
}

// NewSandbox builds a Sandbox rooted at workspaceRoot with the default
// command/pattern/path blocklists.
func NewSandbox(workspaceRoot string) *Sandbox {
	denied := make(map[string]bool, len(DefaultDeniedCommands))
	for _, c := range DefaultDeniedCommands {
		denied[c] = true
	}
	return &Sandbox{
		WorkspaceRoot:    workspaceRoot,
		DeniedCommands:   denied,
		AllowedCommands:  map[string]bool{},
		DeniedPatterns:   DefaultDeniedPatterns,
		DeniedPathPrefix: DefaultDeniedPathPrefixes,
	}
}

// ValidateCommand rejects a shell command matching a denied pattern, an
// explicitly denied base command, or (when DenyByDefault is set) a base
// command absent from AllowedCommands.
func (s *Sandbox) ValidateCommand(command string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("command is required")
	}
	for _, p := range s.DeniedPatterns {
		if p.MatchString(command) {
			return fmt.Errorf("command matches denied pattern: %s", p.String())
		}
	}

	base := extractBaseCommand(command)
	if base == "" {
		return fmt.Errorf("could not extract base command")
	}
	if s.DeniedCommands[base] {
		return fmt.Errorf("command not allowed: %s (in deny list)", base)
	}
	if s.DenyByDefault && !s.AllowedCommands[base] {
		return fmt.Errorf("command not allowed: %s (not in allow list)", base)
	}
	if !s.DenyByDefault && len(s.AllowedCommands) > 0 && !s.AllowedCommands[base] {
		return fmt.Errorf("command not allowed: %s (not in allow list)", base)
	}
	return nil
}

func extractBaseCommand(command string) string {
	parts := strings.FieldsFunc(command, func(r rune) bool {
		return r == '|' || r == '>' || r == '<' || r == ';' || r == '&'
	})
	if len(parts) == 0 {
		return ""
	}
	fields := strings.Fields(strings.TrimSpace(parts[0]))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ValidatePath rejects a path that escapes the workspace root (via `..`
// traversal or an absolute path outside it) or falls under a denied
// system prefix.
func (s *Sandbox) ValidatePath(path string) (string, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(s.WorkspaceRoot, path)
	}
	clean := filepath.Clean(abs)

	for _, prefix := range s.DeniedPathPrefix {
		if clean == prefix || strings.HasPrefix(clean, prefix+string(filepath.Separator)) {
			return "", fmt.Errorf("path %q falls under denied prefix %q", clean, prefix)
		}
	}

	if s.WorkspaceRoot != "" {
		rel, err := filepath.Rel(s.WorkspaceRoot, clean)
		if err != nil || strings.HasPrefix(rel, "..") {
			return "", fmt.Errorf("path %q escapes workspace root %q", clean, s.WorkspaceRoot)
		}
	}

	return clean, nil
}
