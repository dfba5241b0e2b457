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
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vibeagent/vibe/internal/vibemodel"
)

// DefaultSemanticIndexSize is the LRU capacity bound from the design
// ("e.g., 5000 entries").
const DefaultSemanticIndexSize = 5000

// SemanticIndex is the bounded, LRU-governed symbol table keyed by file
// path that feeds context-relevance scoring.
type SemanticIndex struct {
	mu        sync.RWMutex
	entries   *lru.Cache[string, vibemodel.SemanticIndexEntry]
	builtAt   time.Time
	cachePath string
}

// NewSemanticIndex builds an empty index bounded at capacity entries.
func NewSemanticIndex(capacity int) *SemanticIndex {
	if capacity <= 0 {
		capacity = DefaultSemanticIndexSize
	}
	c, _ := lru.New[string, vibemodel.SemanticIndexEntry](capacity)
	return &SemanticIndex{entries: c}
}

// Len reports the current number of indexed files.
func (idx *SemanticIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.entries.Len()
}

// Put inserts or updates an entry, touching it as most-recently-used and
// evicting the least-recently-touched entry if the capacity bound is hit.
func (idx *SemanticIndex) Put(e vibemodel.SemanticIndexEntry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries.Add(e.Path, e)
}

// Get fetches an entry, promoting it to most-recently-used on hit.
func (idx *SemanticIndex) Get(path string) (vibemodel.SemanticIndexEntry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.entries.Get(path)
}

// Invalidate removes one path, or the whole index when path is empty.
func (idx *SemanticIndex) Invalidate(path string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if path == "" {
		idx.entries.Purge()
		return
	}
	idx.entries.Remove(path)
}

// All returns a snapshot of every indexed entry.
func (idx *SemanticIndex) All() []vibemodel.SemanticIndexEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	keys := idx.entries.Keys()
	out := make([]vibemodel.SemanticIndexEntry, 0, len(keys))
	for _, k := range keys {
		if v, ok := idx.entries.Peek(k); ok {
			out = append(out, v)
		}
	}
	return out
}

// FreshnessWindow is how long an on-disk index cache is trusted before a
// rebuild is triggered.
const FreshnessWindow = time.Hour

// IsFresh reports whether the index was built within FreshnessWindow.
func (idx *SemanticIndex) IsFresh() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return !idx.builtAt.IsZero() && time.Since(idx.builtAt) < FreshnessWindow
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:8])
}

// Build walks root, indexing every file under DefaultSourceExtensions that
// doesn't match DefaultIgnorePatterns, and marks the index fresh.
func (idx *SemanticIndex) Build(root string) error {
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort walk, skip unreadable entries
		}
		if d.IsDir() {
			for _, ig := range DefaultIgnorePatterns {
				if d.Name() == ig {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !hasSourceExt(path) {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil //nolint:nilerr
		}
		fns, types, imports, exports, kw := ExtractSymbols(string(content))
		info, _ := d.Info()
		var mtime int64
		if info != nil {
			mtime = info.ModTime().UnixNano()
		}
		idx.Put(vibemodel.SemanticIndexEntry{
			Path:         path,
			ContentHash:  hashContent(string(content)),
			LastModified: mtime,
			Functions:    fns,
			Types:        types,
			Imports:      imports,
			Exports:      exports,
			Keywords:     kw,
		})
		return nil
	})
	idx.mu.Lock()
	idx.builtAt = time.Now()
	idx.mu.Unlock()
	return err
}

func hasSourceExt(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range DefaultSourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// persistedIndex is the on-disk shape written to cache/semantic-index.json.gz.
type persistedIndex struct {
	BuiltAt time.Time                        `json:"built_at"`
	Entries []vibemodel.SemanticIndexEntry    `json:"entries"`
}

// SaveTo gzip-serializes the index to path (cache/semantic-index.json.gz).
func (idx *SemanticIndex) SaveTo(path string) error {
	idx.mu.RLock()
	p := persistedIndex{BuiltAt: idx.builtAt, Entries: idx.All()}
	idx.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir cache dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index cache: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()
	return json.NewEncoder(gz).Encode(p)
}

// LoadFrom reads a previously saved index cache, if present.
func LoadFrom(path string, capacity int) (*SemanticIndex, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return NewSemanticIndex(capacity), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open index cache: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer gz.Close()

	var p persistedIndex
	if err := json.NewDecoder(gz).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode index cache: %w", err)
	}

	idx := NewSemanticIndex(capacity)
	for _, e := range p.Entries {
		idx.Put(e)
	}
	idx.builtAt = p.BuiltAt
	return idx, nil
}

// matchesAny reports whether s contains any of the substrings in needles,
// case-insensitively. Used by glob-less include/exclude pattern matching.
func matchesAny(s string, needles []string) bool {
	low := strings.ToLower(s)
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(low, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
