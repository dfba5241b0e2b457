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

// Package checkpoint gives a sequence of mutating tool invocations
// transactional semantics: either all are retained or all are reverted.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vibeagent/vibe/internal/vibemodel"
)

// Store tracks pending file mutations per session and drains them into
// immutable, disk-persisted Checkpoint records.
type Store struct {
	dir string

	mu      sync.Mutex
	pending map[string][]vibemodel.FileChange // sessionID -> pending changes
}

// NewStore opens a checkpoint store rooted at dir (typically
// <workspace>/.vibe/checkpoints).
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	return &Store{dir: dir, pending: make(map[string][]vibemodel.FileChange)}, nil
}

// Track records the pre-mutation state of path before a mutating tool runs.
// For modify/delete it captures the current on-disk content as OldContent;
// for create there is no prior content to capture.
func (s *Store) Track(sessionID, path string, changeType vibemodel.ChangeType) {
	var old *string
	if changeType == vibemodel.ChangeModify || changeType == vibemodel.ChangeDelete {
		if data, err := os.ReadFile(path); err == nil {
			v := string(data)
			old = &v
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[sessionID] = append(s.pending[sessionID], vibemodel.FileChange{
		Path:       path,
		ChangeType: changeType,
		OldContent: old,
	})
}

// UpdateChangeContent records the resulting bytes once a tracked mutation
// completes, matching the most recent pending entry for path.
func (s *Store) UpdateChangeContent(sessionID, path, newContent string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changes := s.pending[sessionID]
	for i := len(changes) - 1; i >= 0; i-- {
		if changes[i].Path == path {
			v := newContent
			changes[i].NewContent = &v
			return
		}
	}
}

// CreateCheckpoint atomically drains pending changes for sessionID into a
// new named Checkpoint, resets the pending list, and persists it to disk.
// Returns nil if there were no pending changes.
func (s *Store) CreateCheckpoint(sessionID, name string) (*vibemodel.Checkpoint, error) {
	s.mu.Lock()
	changes := s.pending[sessionID]
	delete(s.pending, sessionID)
	s.mu.Unlock()

	if len(changes) == 0 {
		return nil, nil
	}

	cp := &vibemodel.Checkpoint{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Name:      name,
		CreatedAt: time.Now(),
		Changes:   changes,
	}

	if err := s.save(cp); err != nil {
		return nil, err
	}
	slog.Info("checkpoint created", "id", cp.ID, "session_id", sessionID, "changes", len(changes))
	return cp, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) save(cp *vibemodel.Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := os.WriteFile(s.path(cp.ID), data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// GetCheckpoint loads one checkpoint by id.
func (s *Store) GetCheckpoint(id string) (*vibemodel.Checkpoint, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("read checkpoint %s: %w", id, err)
	}
	var cp vibemodel.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", id, err)
	}
	return &cp, nil
}

// ListCheckpoints returns every checkpoint belonging to sessionID, newest
// first.
func (s *Store) ListCheckpoints(sessionID string) ([]*vibemodel.Checkpoint, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list checkpoint dir: %w", err)
	}

	var out []*vibemodel.Checkpoint
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		id := e.Name()[:len(e.Name())-len(".json")]
		cp, err := s.GetCheckpoint(id)
		if err != nil {
			slog.Warn("skipping unreadable checkpoint", "id", id, "error", err)
			continue
		}
		if sessionID != "" && cp.SessionID != sessionID {
			continue
		}
		out = append(out, cp)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// RollbackResult reports the outcome of a rollback.
type RollbackResult struct {
	Reverted []string
	Errors   []string
}

// Rollback reverts every FileChange in cp in reverse order: a create is
// deleted, a modify restores OldContent, a delete recreates the file from
// OldContent. Partial rollback is permitted; failures are collected rather
// than aborting the remainder.
func (s *Store) Rollback(id string) (*RollbackResult, error) {
	cp, err := s.GetCheckpoint(id)
	if err != nil {
		return nil, err
	}

	result := &RollbackResult{}
	for i := len(cp.Changes) - 1; i >= 0; i-- {
		ch := cp.Changes[i]
		if err := revertOne(ch); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", ch.Path, err))
			continue
		}
		result.Reverted = append(result.Reverted, ch.Path)
	}

	slog.Info("checkpoint rolled back", "id", id, "reverted", len(result.Reverted), "errors", len(result.Errors))
	return result, nil
}

func revertOne(ch vibemodel.FileChange) error {
	switch ch.ChangeType {
	case vibemodel.ChangeCreate:
		if err := os.Remove(ch.Path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	case vibemodel.ChangeModify:
		if ch.OldContent == nil {
			return fmt.Errorf("no prior content recorded")
		}
		return os.WriteFile(ch.Path, []byte(*ch.OldContent), 0o644)
	case vibemodel.ChangeDelete:
		if ch.OldContent == nil {
			return fmt.Errorf("no prior content recorded")
		}
		if err := os.MkdirAll(filepath.Dir(ch.Path), 0o755); err != nil {
			return err
		}
		return os.WriteFile(ch.Path, []byte(*ch.OldContent), 0o644)
	default:
		return fmt.Errorf("unknown change type %q", ch.ChangeType)
	}
}

// DiffSummary reports the number of pending (not-yet-checkpointed) changes
// for sessionID.
func (s *Store) DiffSummary(sessionID string) string {
	s.mu.Lock()
	n := len(s.pending[sessionID])
	s.mu.Unlock()

	if n == 0 {
		return "no pending changes"
	}
	if n == 1 {
		return "1 pending change"
	}
	return fmt.Sprintf("%d pending changes", n)
}
