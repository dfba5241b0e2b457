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

package vibemodel

import "time"

// ChangeType classifies one FileChange within a Checkpoint.
type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeModify ChangeType = "modify"
	ChangeDelete ChangeType = "delete"
)

// FileChange is one mutation tracked by the Checkpoint Store. OldContent is
// present iff ChangeType is modify or delete; NewContent is present iff
// ChangeType is create or modify after the mutation has completed.
type FileChange struct {
	Path       string
	ChangeType ChangeType
	OldContent *string
	NewContent *string
}

// Checkpoint is a named, atomic snapshot of file mutations that can be
// rolled back as a unit.
type Checkpoint struct {
	ID        string
	SessionID string
	Name      string
	CreatedAt time.Time
	Changes   []FileChange
}

// SessionStatus is the lifecycle state of a long-lived Session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
	SessionCancelled SessionStatus = "cancelled"
)

// IterationRecord is one entry in a Session's iteration history, written by
// the Autonomous Loop.
type IterationRecord struct {
	Iteration          int
	ResponseText       string
	ActionItems        []string
	CompletionFraction float64
	Duration           time.Duration
	Errors             []string
}

// Session is an optional long-lived container wrapping one or more Runs.
type Session struct {
	ID          string
	Task        string
	Iterations  []IterationRecord
	Status      SessionStatus
	RunIDs      []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
