// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps a history of extraction runs in a SQLite database.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

// Run status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// defaultLimit caps Recent when no limit is given.
const defaultLimit = 20

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Run is one recorded extraction.
type Run struct {
	ID             string        `json:"id"`
	Input          string        `json:"input"`
	OutputDir      string        `json:"output_dir"`
	SHA256         string        `json:"sha256,omitempty"`
	Method         types.Method  `json:"method,omitempty"`
	FallbackReason string        `json:"fallback_reason,omitempty"`
	Pages          int           `json:"pages"`
	Images         int           `json:"images"`
	FilteredImages int           `json:"filtered_images"`
	LowTextYield   bool          `json:"low_text_yield"`
	Status         string        `json:"status"`
	ErrorKind      string        `json:"error_kind,omitempty"`
	Error          string        `json:"error,omitempty"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration_ns"`
}

// Ledger is the run history database.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path, creating the parent
// directory and the schema when missing.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			input TEXT NOT NULL,
			output_dir TEXT NOT NULL,
			sha256 TEXT,
			method TEXT,
			fallback_reason TEXT,
			pages INTEGER NOT NULL DEFAULT 0,
			images INTEGER NOT NULL DEFAULT 0,
			filtered_images INTEGER NOT NULL DEFAULT 0,
			low_text_yield INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error_kind TEXT,
			error TEXT,
			started_at TEXT NOT NULL,
			duration_ns INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_sha256 ON runs(sha256)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores run. An empty ID is replaced with a new UUID; the stored
// ID is returned.
func (l *Ledger) Record(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, input, output_dir, sha256, method, fallback_reason,
			pages, images, filtered_images, low_text_yield, status, error_kind, error,
			started_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Input, run.OutputDir, run.SHA256, string(run.Method), run.FallbackReason,
		run.Pages, run.Images, run.FilteredImages, run.LowTextYield, run.Status, run.ErrorKind, run.Error,
		run.StartedAt.UTC().Format(time.RFC3339Nano), int64(run.Duration),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

const selectRuns = `SELECT id, input, output_dir, sha256, method, fallback_reason,
	pages, images, filtered_images, low_text_yield, status, error_kind, error,
	started_at, duration_ns FROM runs`

// Recent returns up to limit runs, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := l.db.QueryContext(ctx, selectRuns+` ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// Get returns the run with the given id.
func (l *Ledger) Get(ctx context.Context, id string) (Run, error) {
	r, err := scanRun(l.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r                                   Run
		sha, method, reason, kind, errorMsg sql.NullString
		started                             string
		duration                            int64
	)
	err := s.Scan(&r.ID, &r.Input, &r.OutputDir, &sha, &method, &reason,
		&r.Pages, &r.Images, &r.FilteredImages, &r.LowTextYield, &r.Status, &kind, &errorMsg,
		&started, &duration)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}
	r.SHA256 = sha.String
	r.Method = types.Method(method.String)
	r.FallbackReason = reason.String
	r.ErrorKind = kind.String
	r.Error = errorMsg.String
	r.Duration = time.Duration(duration)
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, fmt.Errorf("parsing start time of run %s: %w", r.ID, err)
	}
	return r, nil
}
