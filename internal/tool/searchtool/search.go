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

// Package searchtool provides file-path and content substring search,
// constrained to source extensions and the standard ignore set, scored by
// the fraction of query terms a line matches.
package searchtool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vibeagent/vibe/internal/contextmgr"
	"github.com/vibeagent/vibe/internal/tool"
	"github.com/vibeagent/vibe/internal/vibemodel"
)

// Match is one scored hit.
type Match struct {
	Path    string  `json:"path"`
	Line    int     `json:"line"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Search walks root (skipping DefaultIgnorePatterns, restricted to
// DefaultSourceExtensions) and scores every line by the fraction of query
// terms it contains.
func Search(root, query string) ([]Match, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, fmt.Errorf("query must contain at least one term")
	}

	var matches []Match
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort walk
		}
		if d.IsDir() {
			name := d.Name()
			for _, ig := range contextmgr.DefaultIgnorePatterns {
				if name == ig {
					return filepath.SkipDir
				}
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		sourceExt := false
		for _, e := range contextmgr.DefaultSourceExtensions {
			if e == ext {
				sourceExt = true
				break
			}
		}
		if !sourceExt {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		pathScore := scoreLine(strings.ToLower(rel), terms)

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil //nolint:nilerr
		}
		for i, line := range strings.Split(string(data), "\n") {
			s := scoreLine(strings.ToLower(line), terms)
			if s == 0 && pathScore == 0 {
				continue
			}
			combined := s
			if pathScore > combined {
				combined = pathScore
			}
			if combined == 0 {
				continue
			}
			matches = append(matches, Match{Path: rel, Line: i + 1, Content: line, Score: combined})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches, nil
}

// scoreLine returns the fraction of terms that appear in line.
func scoreLine(line string, terms []string) float64 {
	hits := 0
	for _, t := range terms {
		if strings.Contains(line, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

// searchArgs is the search_workspace parameter schema, reflected by
// tool.ArgsSchema.
type searchArgs struct {
	Query      string `json:"query" jsonschema:"required,description=Search query terms"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"description=Maximum number of results to return"`
}

// Register adds search_workspace to registry.
func Register(registry *tool.Registry, workspaceRoot string) {
	registry.Register(tool.Tool{
		Name:        "search_workspace",
		Description: "Search file paths and content for query terms, ranked by match ratio.",
		Category:    tool.CategorySearch,
		Risk:        vibemodel.RiskLow,
		Parameters:  tool.ArgsSchema[searchArgs](),
		Handler: func(ctx context.Context, args map[string]any) (vibemodel.ToolResult, error) {
			query, _ := args["query"].(string)
			matches, err := Search(workspaceRoot, query)
			if err != nil {
				return vibemodel.ToolResult{Success: false, Error: err.Error()}, err
			}

			maxResults := 20
			if v, ok := args["max_results"].(float64); ok && v > 0 {
				maxResults = int(v)
			}
			if len(matches) > maxResults {
				matches = matches[:maxResults]
			}

			var b strings.Builder
			for _, m := range matches {
				fmt.Fprintf(&b, "%s:%d: %s (score %.2f)\n", m.Path, m.Line, m.Content, m.Score)
			}
			return vibemodel.ToolResult{Success: true, Output: b.String()}, nil
		},
	})
}
