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
	"os"
	"sync"
	"time"
)

// DefaultCacheEntries and DefaultCacheMemoryBytes are the dual bounds from
// the design ("e.g., 1000" entries, "100 MB").
const (
	DefaultCacheEntries     = 1000
	DefaultCacheMemoryBytes = 100 * 1024 * 1024
	DefaultCacheTTL         = 5 * time.Minute
)

type cacheEntry struct {
	content    string
	size       int64
	accessedAt time.Time
}

// FileCache is an LRU file-content cache with an entry-count ceiling and a
// memory-byte ceiling; eviction runs until both bounds hold. Access
// promotes an entry to most-recently-used.
type FileCache struct {
	maxEntries int
	maxBytes   int64
	ttl        time.Duration

	mu      sync.Mutex
	order   []string // most-recent at the back
	entries map[string]*cacheEntry
	bytes   int64
}

// NewFileCache builds a cache with the given bounds; zero values fall back
// to the documented defaults.
func NewFileCache(maxEntries int, maxBytes int64, ttl time.Duration) *FileCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	if maxBytes <= 0 {
		maxBytes = DefaultCacheMemoryBytes
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &FileCache{
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		ttl:        ttl,
		entries:    make(map[string]*cacheEntry),
	}
}

// Size returns the current entry count.
func (c *FileCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Memory returns the current total byte accounting.
func (c *FileCache) Memory() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

// Get returns cached content for path if present and not expired,
// promoting it to most-recently-used.
func (c *FileCache) Get(path string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[path]
	if !ok {
		return "", false
	}
	if time.Since(e.accessedAt) > c.ttl {
		c.removeLocked(path)
		return "", false
	}
	e.accessedAt = time.Now()
	c.touchLocked(path)
	return e.content, true
}

// Read loads path via Get, falling back to os.ReadFile and populating the
// cache on miss.
func (c *FileCache) Read(path string) (string, error) {
	if content, ok := c.Get(path); ok {
		return content, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	content := string(data)
	c.Put(path, content)
	return content, nil
}

// Put inserts or replaces a cache entry, then evicts least-recently-used
// entries until both bounds hold.
func (c *FileCache) Put(path, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[path]; ok {
		c.bytes -= old.size
	} else {
		c.order = append(c.order, path)
	}

	size := int64(len(content))
	c.entries[path] = &cacheEntry{content: content, size: size, accessedAt: time.Now()}
	c.bytes += size
	c.touchLocked(path)

	for (len(c.entries) > c.maxEntries || c.bytes > c.maxBytes) && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		if e, ok := c.entries[oldest]; ok {
			c.bytes -= e.size
			delete(c.entries, oldest)
		}
	}
}

// Invalidate drops one path, or the whole cache when path is empty.
func (c *FileCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if path == "" {
		c.entries = make(map[string]*cacheEntry)
		c.order = nil
		c.bytes = 0
		return
	}
	c.removeLocked(path)
}

func (c *FileCache) removeLocked(path string) {
	if e, ok := c.entries[path]; ok {
		c.bytes -= e.size
		delete(c.entries, path)
	}
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// touchLocked moves path to the most-recently-used end of the order slice.
func (c *FileCache) touchLocked(path string) {
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, path)
}
