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

package contextmgr

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SelectOptions configures selectRelevantFiles.
type SelectOptions struct {
	Query            string
	MaxTokens        int
	IncludePatterns  []string
	ExcludePatterns  []string
	PrioritizeRecent bool
	MinRelevance     float64
}

// SelectResult is the aggregate output of selectRelevantFiles.
type SelectResult struct {
	Files        []ScoredFile
	TotalTokens  int
	SkippedFiles []string
}

// FileChunk is one lazily-produced slice of a large file.
type FileChunk struct {
	Content   string
	StartLine int
	EndLine   int
}

// SemanticMatch is one symbol-level hit from semanticSearch.
type SemanticMatch struct {
	Path   string
	Symbol string
	Score  float64
}

// Manager is the Context Manager: it owns the process-wide semantic index
// and file cache and exposes the context-selection operations.
type Manager struct {
	Root string

	index   *SemanticIndex
	cache   *FileCache
	watcher *fsnotify.Watcher

	mu sync.Mutex
}

// NewManager builds a Context Manager rooted at workspace root.
func NewManager(root string) *Manager {
	return &Manager{
		Root:  root,
		index: NewSemanticIndex(DefaultSemanticIndexSize),
		cache: NewFileCache(DefaultCacheEntries, DefaultCacheMemoryBytes, DefaultCacheTTL),
	}
}

// ensureIndex builds the semantic index lazily on first use and whenever
// the one-hour freshness window has elapsed.
func (m *Manager) ensureIndex() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index.IsFresh() {
		return
	}
	if err := m.index.Build(m.Root); err != nil {
		slog.Warn("semantic index build encountered errors", "error", err)
	}
}

// EstimateTokens is the Context Manager's estimateTokens operation.
func (m *Manager) EstimateTokens(text string) Estimate { return EstimateTokens(text) }

// SelectRelevantFiles is the Context Manager's selectRelevantFiles
// operation: greedy selection by descending score while the running token
// total stays at or below MaxTokens.
func (m *Manager) SelectRelevantFiles(opts SelectOptions) SelectResult {
	m.ensureIndex()

	now := time.Now()
	entries := m.index.All()

	candidates := make([]ScoredFile, 0, len(entries))
	var skipped []string

	for _, e := range entries {
		rel, err := filepath.Rel(m.Root, e.Path)
		if err != nil {
			rel = e.Path
		}
		if len(opts.IncludePatterns) > 0 && !matchesAny(rel, opts.IncludePatterns) {
			continue
		}
		if len(opts.ExcludePatterns) > 0 && matchesAny(rel, opts.ExcludePatterns) {
			skipped = append(skipped, e.Path)
			continue
		}

		s, reasons := score(opts.Query, e, now)
		if !opts.PrioritizeRecent {
			// Recency was already folded into s: score() applies the recency
			// multiplier to every score after summation, so PrioritizeRecent
			// changes neither the scores nor the ordering.
			_ = reasons
		}
		if s < opts.MinRelevance {
			skipped = append(skipped, e.Path)
			continue
		}

		content, err := m.cache.Read(e.Path)
		if err != nil {
			skipped = append(skipped, e.Path)
			continue
		}
		tok := EstimateTokens(content).Total

		candidates = append(candidates, ScoredFile{
			Path:         e.Path,
			Score:        s,
			MatchReasons: reasons,
			TokenCount:   tok,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })

	var selected []ScoredFile
	total := 0
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1 << 30
	}
	for _, c := range candidates {
		if total+c.TokenCount > maxTokens {
			skipped = append(skipped, c.Path)
			continue
		}
		selected = append(selected, c)
		total += c.TokenCount
	}

	return SelectResult{Files: selected, TotalTokens: total, SkippedFiles: skipped}
}

// SplitLargeFile lazily yields chunks of path, each kept below
// maxTokens*0.8, annotated with start/end line.
func (m *Manager) SplitLargeFile(path string, maxTokens int) func(yield func(FileChunk) bool) {
	limit := int(float64(maxTokens) * 0.8)
	return func(yield func(FileChunk) bool) {
		content, err := m.cache.Read(path)
		if err != nil {
			return
		}
		lines := strings.Split(content, "\n")

		start := 0
		for start < len(lines) {
			var b strings.Builder
			startLine := start
			end := start
			for end < len(lines) {
				candidate := b.String() + lines[end] + "\n"
				if b.Len() > 0 && EstimateTokens(candidate).Total > limit {
					break
				}
				b.WriteString(lines[end])
				b.WriteString("\n")
				end++
			}
			if end == start {
				// a single line already exceeds the budget; emit it alone
				end++
			}
			chunk := FileChunk{Content: b.String(), StartLine: startLine + 1, EndLine: end}
			if !yield(chunk) {
				return
			}
			start = end
		}
	}
}

// SemanticSearch matches symbols against the index, optionally constrained
// to a file subset.
func (m *Manager) SemanticSearch(query string, files []string, maxResults int, minScore float64) []SemanticMatch {
	m.ensureIndex()
	now := time.Now()

	allowed := map[string]bool{}
	for _, f := range files {
		allowed[f] = true
	}

	var matches []SemanticMatch
	for _, e := range m.index.All() {
		if len(allowed) > 0 && !allowed[e.Path] {
			continue
		}
		s, reasons := score(query, e, now)
		if s < minScore || len(reasons) == 0 {
			continue
		}
		symbol := ""
		if len(e.Functions) > 0 {
			symbol = e.Functions[0]
		} else if len(e.Types) > 0 {
			symbol = e.Types[0]
		}
		matches = append(matches, SemanticMatch{Path: e.Path, Symbol: symbol, Score: s})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches
}

// Invalidate clears one path (or the whole cache/index when path is empty)
// from both the file cache and the semantic index.
func (m *Manager) Invalidate(path string) {
	m.cache.Invalidate(path)
	m.index.Invalidate(path)
}

// WatchForInvalidation starts an fsnotify watcher over root that invalidates
// the cache/index entry for any file that changes on disk, so mutations
// made outside the Tool Layer (e.g. by an external editor) don't serve
// stale content.
func (m *Manager) WatchForInvalidation(root string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.watcher = w
	m.mu.Unlock()

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
					m.Invalidate(ev.Name)
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return w.Add(root)
}

// Close stops the invalidation watcher, if one was started.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watcher != nil {
		return m.watcher.Close()
	}
	return nil
}
