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

package primitive

import (
	"context"
	"sync"
	"time"

	"github.com/vibeagent/vibe/internal/verr"
)

// IOEntry is one recorded tool invocation: the tool name, its serialized
// input, the output it produced, and when it ran.
type IOEntry struct {
	Tool      string
	Input     string
	Output    string
	Timestamp time.Time
}

// DeterminismMode selects whether Determinism appends to or consumes the
// I/O log.
type DeterminismMode string

const (
	ModeRecord DeterminismMode = "record"
	ModeReplay DeterminismMode = "replay"
)

// Log is an ordered, run-scoped record of tool invocations, safe for
// concurrent append and sequential replay consumption.
type Log struct {
	mu      sync.Mutex
	entries []IOEntry
	cursor  int
}

// NewLog returns an empty log, or one seeded with prior entries for replay.
func NewLog(seed []IOEntry) *Log {
	return &Log{entries: append([]IOEntry(nil), seed...)}
}

func (l *Log) append(e IOEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
}

// next returns the next unconsumed entry in recorded order, or false once
// exhausted.
func (l *Log) next() (IOEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cursor >= len(l.entries) {
		return IOEntry{}, false
	}
	e := l.entries[l.cursor]
	l.cursor++
	return e, true
}

// Entries returns a snapshot of every recorded entry.
func (l *Log) Entries() []IOEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]IOEntry(nil), l.entries...)
}

// DeterminismInput is one tool invocation to record or replay.
type DeterminismInput struct {
	Tool   string
	Input  string
	Output string // the live output, supplied by the caller when recording
}

// Determinism records or replays the (tool, input, output) sequence of a
// run's tool invocations. In record mode it appends the live call to the
// log; in replay mode it consumes the log in order and raises a
// ClassReplayMismatch error the moment the live (tool, input) pair
// diverges from what was recorded, returning the recorded output
// otherwise so the run reproduces byte-for-byte.
type Determinism struct {
	Mode DeterminismMode
	Log  *Log
}

func (d *Determinism) Name() string { return "determinism" }

func (d *Determinism) Execute(ctx context.Context, input DeterminismInput) Output {
	switch d.Mode {
	case ModeRecord:
		d.Log.append(IOEntry{Tool: input.Tool, Input: input.Input, Output: input.Output, Timestamp: time.Now()})
		return Ok(input.Output)

	case ModeReplay:
		recorded, ok := d.Log.next()
		if !ok {
			return Fail(verr.Newf(verr.ClassReplayMismatch, "no recorded entry left for tool %q", input.Tool))
		}
		if recorded.Tool != input.Tool || recorded.Input != input.Input {
			return Fail(verr.Newf(verr.ClassReplayMismatch,
				"replay diverged: recorded call to %q with input %q, live call is %q with input %q",
				recorded.Tool, recorded.Input, input.Tool, input.Input))
		}
		return Ok(recorded.Output)

	default:
		return Fail(verr.Newf(verr.ClassInternal, "determinism: unknown mode %q", d.Mode))
	}
}
