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

// Package session is the Session Store: an embedded relational database
// persisting runs, steps and key-value items, with idempotent migrations
// applied on startup.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vibeagent/vibe/internal/vibemodel"
)

// Dialect names the SQL backend in use, matching the driver registered
// with database/sql.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// Store is the embedded relational Session Store.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to dsn over driver dialect and applies pending migrations.
func Open(dialect Dialect, dsn string) (*Store, error) {
	switch dialect {
	case DialectSQLite, DialectMySQL, DialectPostgres:
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

type migration struct {
	name string
	sql  []string
}

var migrations = []migration{
	{
		name: "0001_runs",
		sql: []string{
			`CREATE TABLE IF NOT EXISTS runs (
				id VARCHAR(64) PRIMARY KEY,
				user_id VARCHAR(255) NOT NULL,
				workspace_path TEXT NOT NULL,
				status VARCHAR(32) NOT NULL,
				config_snapshot TEXT,
				created_at TIMESTAMP NOT NULL
			)`,
		},
	},
	{
		name: "0002_workflow_steps",
		sql: []string{
			`CREATE TABLE IF NOT EXISTS workflow_steps (
				id VARCHAR(64) PRIMARY KEY,
				run_id VARCHAR(64) NOT NULL,
				step_number INTEGER NOT NULL,
				primitive VARCHAR(128) NOT NULL,
				task TEXT,
				status VARCHAR(32) NOT NULL,
				input TEXT,
				output TEXT,
				error TEXT,
				duration_ms BIGINT,
				created_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_workflow_steps_run_id ON workflow_steps(run_id)`,
			`CREATE INDEX IF NOT EXISTS idx_workflow_steps_status ON workflow_steps(status)`,
		},
	},
	{
		name: "0003_persistence_items",
		sql: []string{
			`CREATE TABLE IF NOT EXISTS persistence_items (
				key VARCHAR(255) PRIMARY KEY,
				value TEXT,
				metadata TEXT,
				updated_at TIMESTAMP NOT NULL
			)`,
		},
	},
}

// migrate applies every pending migration, each wrapped in its own
// transaction, and records it in the migrations table idempotently.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS migrations (
		name VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	for _, m := range migrations {
		var count int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM migrations WHERE name = `+s.placeholder(1), m.name).Scan(&count); err != nil {
			return fmt.Errorf("check migration %s: %w", m.name, err)
		}
		if count > 0 {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.name, err)
		}

		for _, stmt := range m.sql {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("apply migration %s: %w", m.name, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO migrations (name, applied_at) VALUES (`+s.placeholder(1)+`, `+s.placeholder(2)+`)`, m.name, time.Now()); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.name, err)
		}
		slog.Info("applied migration", "name", m.name)
	}
	return nil
}

// placeholder returns the dialect-appropriate positional parameter marker.
func (s *Store) placeholder(n int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// CreateRun inserts a new run row in status pending.
func (s *Store) CreateRun(ctx context.Context, run *vibemodel.Run) error {
	snapshot, err := json.Marshal(run.ConfigSnapshot)
	if err != nil {
		return fmt.Errorf("marshal config snapshot: %w", err)
	}
	q := fmt.Sprintf(
		`INSERT INTO runs (id, user_id, workspace_path, status, config_snapshot, created_at) VALUES (%s, %s, %s, %s, %s, %s)`,
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4), s.placeholder(5), s.placeholder(6),
	)
	_, err = s.db.ExecContext(ctx, q, run.ID, run.UserID, run.WorkspacePath, run.Status, string(snapshot), run.StartedAt)
	return err
}

// UpdateRunStatus transitions a run's status.
func (s *Store) UpdateRunStatus(ctx context.Context, runID string, status vibemodel.RunStatus) error {
	q := fmt.Sprintf(`UPDATE runs SET status = %s WHERE id = %s`, s.placeholder(1), s.placeholder(2))
	_, err := s.db.ExecContext(ctx, q, status, runID)
	return err
}

// CreateStep inserts a pending workflow_steps row for one plan step.
func (s *Store) CreateStep(ctx context.Context, step *vibemodel.Step) error {
	q := fmt.Sprintf(
		`INSERT INTO workflow_steps (id, run_id, step_number, primitive, task, status, input, created_at)
		 VALUES (%s, %s, %s, %s, %s, %s, %s, %s)`,
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4),
		s.placeholder(5), s.placeholder(6), s.placeholder(7), s.placeholder(8),
	)
	_, err := s.db.ExecContext(ctx, q, step.ID, step.RunID, step.StepNumber, step.Primitive, step.Task, step.Status, step.Input, time.Now())
	return err
}

// UpdateStepResult records a step's status transition together with its
// output, error and duration (empty and zero for a non-terminal status).
func (s *Store) UpdateStepResult(ctx context.Context, stepID string, output []byte, status vibemodel.StepStatus, errMsg string, duration time.Duration) error {
	q := fmt.Sprintf(
		`UPDATE workflow_steps SET output = %s, status = %s, error = %s, duration_ms = %s WHERE id = %s`,
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4), s.placeholder(5),
	)
	_, err := s.db.ExecContext(ctx, q, output, status, errMsg, duration.Milliseconds(), stepID)
	return err
}

// StepsForRun returns every step belonging to runID, ordered by step number.
func (s *Store) StepsForRun(ctx context.Context, runID string) ([]vibemodel.Step, error) {
	q := fmt.Sprintf(`SELECT id, run_id, step_number, primitive, task, status, input, output, error, duration_ms
	                   FROM workflow_steps WHERE run_id = %s ORDER BY step_number ASC`, s.placeholder(1))
	rows, err := s.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []vibemodel.Step
	for rows.Next() {
		var st vibemodel.Step
		var durationMS int64
		var output, errMsg sql.NullString
		var input []byte
		if err := rows.Scan(&st.ID, &st.RunID, &st.StepNumber, &st.Primitive, &st.Task, &st.Status, &input, &output, &errMsg, &durationMS); err != nil {
			return nil, err
		}
		st.Input = input
		st.Output = []byte(output.String)
		st.Error = errMsg.String
		st.Duration = time.Duration(durationMS) * time.Millisecond
		steps = append(steps, st)
	}
	return steps, rows.Err()
}

// GetRun returns a run and its steps, or nil if runID is unknown.
func (s *Store) GetRun(ctx context.Context, runID string) (*vibemodel.Run, error) {
	q := fmt.Sprintf(`SELECT id, user_id, workspace_path, status, config_snapshot, created_at
	                   FROM runs WHERE id = %s`, s.placeholder(1))
	row := s.db.QueryRowContext(ctx, q, runID)

	var run vibemodel.Run
	var snapshot string
	if err := row.Scan(&run.ID, &run.UserID, &run.WorkspacePath, &run.Status, &snapshot, &run.StartedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if snapshot != "" {
		if err := json.Unmarshal([]byte(snapshot), &run.ConfigSnapshot); err != nil {
			return nil, fmt.Errorf("unmarshal config snapshot: %w", err)
		}
	}

	steps, err := s.StepsForRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	run.Steps = make([]*vibemodel.Step, len(steps))
	for i := range steps {
		run.Steps[i] = &steps[i]
	}
	return &run, nil
}

// Put upserts a persistence_items row. It satisfies memorytool.Store.
func (s *Store) Put(ctx context.Context, key, value, metadata string) error {
	var q string
	switch s.dialect {
	case DialectPostgres:
		q = `INSERT INTO persistence_items (key, value, metadata, updated_at) VALUES ($1, $2, $3, $4)
		     ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, metadata = EXCLUDED.metadata, updated_at = EXCLUDED.updated_at`
	case DialectMySQL:
		q = `INSERT INTO persistence_items (key, value, metadata, updated_at) VALUES (?, ?, ?, ?)
		     ON DUPLICATE KEY UPDATE value = VALUES(value), metadata = VALUES(metadata), updated_at = VALUES(updated_at)`
	default:
		q = `INSERT INTO persistence_items (key, value, metadata, updated_at) VALUES (?, ?, ?, ?)
		     ON CONFLICT(key) DO UPDATE SET value = excluded.value, metadata = excluded.metadata, updated_at = excluded.updated_at`
	}
	_, err := s.db.ExecContext(ctx, q, key, value, metadata, time.Now())
	return err
}

// Get reads a persistence_items value. It satisfies memorytool.Store.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	q := fmt.Sprintf(`SELECT value FROM persistence_items WHERE key = %s`, s.placeholder(1))
	var value string
	err := s.db.QueryRowContext(ctx, q, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}
