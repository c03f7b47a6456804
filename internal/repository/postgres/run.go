// Package postgres stores insight run history in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/insight-engine/internal/metrics"
)

// ErrRunNotFound is returned by Get for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// Run is one completed pipeline execution.
type Run struct {
	ID            string          `json:"id"`
	Dataset       string          `json:"dataset"`
	RowCount      int             `json:"row_count"`
	NarrativeMode string          `json:"narrative_mode"`
	Summary       metrics.Summary `json:"summary"`
	Artifacts     []string        `json:"artifacts"`
	CreatedAt     time.Time       `json:"created_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS insight_runs (
	id             TEXT PRIMARY KEY,
	dataset        TEXT NOT NULL DEFAULT '',
	row_count      INTEGER NOT NULL DEFAULT 0,
	narrative_mode TEXT NOT NULL DEFAULT '',
	summary        JSONB NOT NULL DEFAULT '{}',
	artifacts      TEXT[] NOT NULL DEFAULT '{}',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_insight_runs_created_at ON insight_runs (created_at DESC);`

// RunRepo implements run history against PostgreSQL.
type RunRepo struct{ db *sql.DB }

// NewRunRepo creates a Postgres-backed run repository.
func NewRunRepo(db *sql.DB) *RunRepo { return &RunRepo{db: db} }

// EnsureSchema creates the table and index when missing.
func (r *RunRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure run schema: %w", err)
	}
	return nil
}

// Create inserts run, assigning an id and timestamp when unset.
func (r *RunRepo) Create(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	artifacts := run.Artifacts
	if artifacts == nil {
		artifacts = []string{}
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO insight_runs
			(id, dataset, row_count, narrative_mode, summary, artifacts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.ID, run.Dataset, run.RowCount, run.NarrativeMode, summary, pq.Array(artifacts), run.CreatedAt)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

const runColumns = `id, dataset, row_count, narrative_mode, summary, artifacts, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run     Run
		summary []byte
	)
	if err := s.Scan(&run.ID, &run.Dataset, &run.RowCount, &run.NarrativeMode,
		&summary, pq.Array(&run.Artifacts), &run.CreatedAt); err != nil {
		return nil, err
	}
	if len(summary) > 0 {
		if err := json.Unmarshal(summary, &run.Summary); err != nil {
			return nil, fmt.Errorf("decode run summary: %w", err)
		}
	}
	return &run, nil
}

// Get returns the run with id, or ErrRunNotFound.
func (r *RunRepo) Get(ctx context.Context, id string) (*Run, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM insight_runs WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns the newest runs first. A non-positive limit means 50.
func (r *RunRepo) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM insight_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}
